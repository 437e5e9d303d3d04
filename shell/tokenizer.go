package shell

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter tokenizes shell output into lines. It has the signature of
// bufio.SplitFunc so it can be used directly with bufio.Scanner.
//
// Lines end with LF, CRLF or a lone CR; the terminator is not part of the
// token. A CR at the end of the available data waits for more input
// unless atEOF, since it may be the first half of a CRLF.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[0:i], nil
		}
		// CR
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[0:i], nil
			}
			return i + 1, data[0:i], nil
		}
		if atEOF {
			return i + 1, data[0:i], nil
		}
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of one line of shell output.
func Classify(line string) LineType {
	s := strings.TrimSpace(line)
	if s == "" {
		return TypeBlank
	}

	for _, p := range PromptPrefixes {
		if strings.HasPrefix(s, p) {
			return TypePrompt
		}
	}

	if len(s) >= len(CmdGet)+1 && strings.EqualFold(s[:len(CmdGet)+1], CmdGet+" ") {
		return TypeEcho
	}
	return TypeData
}

// Lines splits a chunk of shell output with Splitter.
func Lines(chunk string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(chunk))
	scanner.Buffer(make([]byte, 0, 4096), len(chunk)+1)
	scanner.Split(Splitter)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// Extract picks the value out of a command reply: the first line that is
// neither blank, a prompt, nor the echoed get command, trimmed. When no
// such line exists the whole chunk is returned trimmed.
func Extract(chunk string) string {
	for _, line := range Lines(chunk) {
		if Classify(line) == TypeData {
			return strings.TrimSpace(line)
		}
	}
	return strings.TrimSpace(chunk)
}
