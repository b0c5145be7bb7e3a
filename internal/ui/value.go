package ui

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rowpane/rowpane/internal/grid"
)

// maxClipboardLength bounds what a single copy pushes at the terminal or the
// system clipboard. OSC 52 payloads beyond ~1MB get dropped by most
// terminals, silently.
const maxClipboardLength = 1 << 20

// valueText formats a cell value for display and copying. A resolved nil is
// an empty string; bytes that are not valid UTF-8 are hex-dumped.
func valueText(v grid.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		return "0x" + hex.EncodeToString(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

var flatten = strings.NewReplacer("\t", " ", "\r", "", "\n", " ")

// buildTSV renders rows as tab-separated lines with a header, skipping any
// row that still has pending cells. Returns the text and how many rows made
// it in.
func buildTSV(cols []string, rows [][]grid.Cell) (string, int) {
	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))
	b.WriteByte('\n')

	var copied int
	fields := make([]string, len(cols))
rows:
	for _, row := range rows {
		for i, cell := range row {
			v, ok := cell.Value()
			if !ok {
				continue rows
			}
			fields[i] = flatten.Replace(valueText(v))
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteByte('\n')
		copied++
	}
	return b.String(), copied
}

// clampClipboard keeps the beginning and end of an oversized copy and marks
// what fell out of the middle.
func clampClipboard(content string) string {
	if len(content) <= maxClipboardLength {
		return content
	}

	halfLength := maxClipboardLength / 2
	start := content[:halfLength]
	end := content[len(content)-halfLength:]

	middle := content[halfLength : len(content)-halfLength]
	droppedLines := strings.Count(middle, "\n") + 1

	return fmt.Sprintf(
		"%s\n[... %d lines (%d bytes) omitted ...]\n%s",
		start, droppedLines, len(middle), end,
	)
}
