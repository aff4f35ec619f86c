package pgn

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// LineAssembler turns arbitrarily sized byte chunks into complete lines.
// An unterminated trailing fragment is carried between Feed calls as raw
// bytes, so a chunk boundary may fall anywhere, including inside a
// multi-byte rune, without splitting or corrupting a line.
type LineAssembler struct {
	pending []byte
}

// Feed appends chunk to the pending fragment and returns every complete
// line it now holds. Invalid UTF-8 inside a complete line is replaced with
// U+FFFD; decoding never fails.
func (la *LineAssembler) Feed(chunk []byte) []string {
	la.pending = append(la.pending, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(la.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, decodeLine(la.pending[:i]))
		la.pending = la.pending[i+1:]
	}

	if len(la.pending) == 0 {
		la.pending = nil
	}
	return lines
}

// Flush discards the trailing unterminated fragment at end of stream and
// reports how many bytes were dropped. A line without a terminator is not a
// line.
func (la *LineAssembler) Flush() int {
	n := len(la.pending)
	la.pending = nil
	return n
}

func decodeLine(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
