package shell_test

import (
	"bufio"
	"strings"
	"testing"

	"sophiatech.io/serialterm/shell"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "CRLF reply with prompt",
			input:    "get dev_eui\r\n70B3D57ED0001234\r\nroot/svc/net/lora> \r\n",
			expected: []string{"get dev_eui", "70B3D57ED0001234", "root/svc/net/lora> "},
		},
		{
			name:     "LF only",
			input:    "cd /\nuser@device:/$ \n",
			expected: []string{"cd /", "user@device:/$ "},
		},
		{
			name:     "Lone CR",
			input:    "a\rb\r\nc",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "Empty lines are kept",
			input:    "\r\n\r\nvalue\r\n",
			expected: []string{"", "", "value"},
		},
		{
			name:     "Trailing CR at EOF",
			input:    "value\r",
			expected: []string{"value"},
		},
		{
			name:     "No terminator at EOF",
			input:    "partial",
			expected: []string{"partial"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(shell.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %q\nGot: %q",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestSplitterWaitsAfterCR(t *testing.T) {
	advance, token, err := shell.Splitter([]byte("value\r"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advance != 0 || token != nil {
		t.Errorf("expected splitter to request more data, got advance=%d token=%q", advance, token)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected shell.LineType
	}{
		{name: "empty", input: "", expected: shell.TypeBlank},
		{name: "whitespace", input: " \t", expected: shell.TypeBlank},
		{name: "user prompt", input: "user@menzu:~$", expected: shell.TypePrompt},
		{name: "root prompt", input: "root@menzu:/#", expected: shell.TypePrompt},
		{name: "path prompt", input: "root/svc/nvm>", expected: shell.TypePrompt},
		{name: "indented prompt", input: "  root@x", expected: shell.TypePrompt},
		{name: "echo", input: "get dev_eui", expected: shell.TypeEcho},
		{name: "echo upper case", input: "GET dev_eui", expected: shell.TypeEcho},
		{name: "get without key", input: "get", expected: shell.TypeData},
		{name: "set echo is data", input: "set band 868", expected: shell.TypeData},
		{name: "value", input: "868", expected: shell.TypeData},
		{name: "getter word", input: "getaway", expected: shell.TypeData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shell.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		chunk    string
		expected string
	}{
		{
			name:     "value after echo",
			chunk:    "get dev_eui\r\n  70B3D57ED0001234  \r\nroot/svc/net/lora> ",
			expected: "70B3D57ED0001234",
		},
		{
			name:     "prompt first",
			chunk:    "\r\nuser@menzu:/svc/gps$ get fix\r\n3D\r\n",
			expected: "3D",
		},
		{
			name:     "only noise returns whole chunk",
			chunk:    "  get fix\r\nroot@menzu:/# \r\n",
			expected: "get fix\r\nroot@menzu:/#",
		},
		{
			name:     "empty",
			chunk:    "",
			expected: "",
		},
		{
			name:     "set reply",
			chunk:    "set band 868\r\nOK\r\n",
			expected: "set band 868",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shell.Extract(tt.chunk)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		got, expected string
	}{
		{shell.Cd(shell.Root), "cd /"},
		{shell.Cd("svc/nvm"), "cd svc/nvm"},
		{shell.Get("dev_eui"), "get dev_eui"},
		{shell.Set("band", "868"), "set band 868"},
		{shell.Set("reboot", ""), "set reboot"},
		{string(shell.Wire("get x")), "get x\r\n"},
		{string(shell.Wire("get x\n")), "get x\r\n"},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, tt.got)
		}
	}
}
