package util

import (
	"bytes"
	"fmt"
	"strings"
)

// LineAndColumn converts a byte offset into a 1-based line and column.
func LineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i >= pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}

// ContextLines shows the two lines before errorLine, errorLine itself and a
// caret under errorCol.
func ContextLines(src string, errorLine, errorCol int) string {
	var result bytes.Buffer
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")

	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	for i := startLine; i <= errorLine && i <= len(lines); i++ {
		lineContent := lines[i-1]
		if i != errorLine {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
			continue
		}

		margin := fmt.Sprintf("  >  %3d | ", i)
		result.WriteString(fmt.Sprintf("%s%s\n", margin, lineContent))
		col := errorCol - 1
		if col > len(lineContent) {
			col = len(lineContent)
		}
		if col < 0 {
			col = 0
		}
		result.WriteString(replaceVisibleWithSpaces(margin+lineContent[:col]) + "^ unexpected here")
	}

	return result.String()
}

// replaceVisibleWithSpaces blanks every character except tabs so a caret
// lines up under the text above it.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
