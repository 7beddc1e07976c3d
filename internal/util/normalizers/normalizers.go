// Package normalizers tidies the help text of commands so it can be written as
// indented raw strings in source.
package normalizers

import (
	"strings"
)

const Indentation = `  `

// LongDesc trims the text and collapses runs of blank lines into one.
func LongDesc(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Examples strips the source indentation of every line and indents it again
// by Indentation. Blank lines stay empty.
func Examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			line = Indentation + line
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
