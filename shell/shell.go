// Package shell holds the vocabulary of the device's command shell:
// command builders, output line classification and reply extraction.
package shell

import "strings"

const (
	// Line terminator written after every command.
	CRLF = "\r\n"
	// Root is the directory every exchange starts and ends in.
	Root = "/"

	// Commands
	CmdCd  = "cd"
	CmdGet = "get"
	CmdSet = "set"
)

// PromptPrefixes mark shell prompt lines in command output.
var PromptPrefixes = []string{"user@", "root@", "root/"}

type LineType int

const (
	TypeBlank  LineType = iota // empty or whitespace only
	TypePrompt                 // user@..., root@..., root/...
	TypeEcho                   // echoed "get <key>"
	TypeData                   // anything else, including the value
)

func (t LineType) String() string {
	switch t {
	case TypeBlank:
		return "blank"
	case TypePrompt:
		return "prompt"
	case TypeEcho:
		return "echo"
	default:
		return "data"
	}
}

// Cd builds a change-directory command.
func Cd(path string) string {
	return CmdCd + " " + path
}

// Get builds a read command for key.
func Get(key string) string {
	return CmdGet + " " + key
}

// Set builds a write command. An empty value yields the bare form
// "set <key>", used by parameters that act on their own.
func Set(key, value string) string {
	if value == "" {
		return CmdSet + " " + key
	}
	return CmdSet + " " + key + " " + value
}

// Wire returns the bytes written for cmd.
func Wire(cmd string) []byte {
	return []byte(strings.TrimRight(cmd, "\r\n") + CRLF)
}
