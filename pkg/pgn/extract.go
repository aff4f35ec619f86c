package pgn

import (
	"strconv"
	"strings"
)

// UnitScanner walks one movetext line and yields annotated move units in
// left-to-right order, in the manner of bufio.Scanner. A unit is
//
//	N. <san> {[%eval E][%clk C]}
//
// optionally followed by the black reply with its own annotation block.
// Anything that does not complete that shape (a result marker, a move with
// no annotations, a block missing one of the two annotations) yields no
// unit; scanning resumes past it. Construct a new scanner to restart.
type UnitScanner struct {
	line string
	pos  int
	unit MoveUnit
}

func NewUnitScanner(line string) *UnitScanner {
	return &UnitScanner{line: line}
}

// Scan advances to the next complete move unit. It reports false once the
// line is exhausted.
func (s *UnitScanner) Scan() bool {
	for s.pos < len(s.line) {
		start := s.nextDigit(s.pos)
		if start < 0 {
			s.pos = len(s.line)
			return false
		}

		if unit, end, ok := s.parseUnit(start); ok {
			s.unit = unit
			s.pos = end
			return true
		}

		// Failed candidate. Resume one byte further, the way a regex
		// engine retries at every offset.
		s.pos = start + 1
	}
	return false
}

// Unit returns the most recently scanned move unit.
func (s *UnitScanner) Unit() MoveUnit {
	return s.unit
}

func (s *UnitScanner) nextDigit(from int) int {
	for i := from; i < len(s.line); i++ {
		if isDigit(s.line[i]) {
			return i
		}
	}
	return -1
}

// parseUnit attempts a full unit at a digit position. On success it returns
// the unit and the offset just past it.
func (s *UnitScanner) parseUnit(start int) (MoveUnit, int, bool) {
	line := s.line

	i := start
	for i < len(line) && isDigit(line[i]) {
		i++
	}
	if i >= len(line) || line[i] != '.' {
		return MoveUnit{}, 0, false
	}
	number, err := strconv.Atoi(line[start:i])
	if err != nil {
		return MoveUnit{}, 0, false
	}
	i++ // consume '.'

	// White SAN runs up to the opening brace of the annotation block and
	// must be at least one character wide.
	brace := strings.IndexByte(line[i:], '{')
	if brace < 1 {
		return MoveUnit{}, 0, false
	}
	whiteSAN := strings.TrimSpace(line[i : i+brace])
	if !sanOK(whiteSAN) {
		return MoveUnit{}, 0, false
	}

	whiteEval, whiteClock, afterWhite, ok := parseAnnotations(line, i+brace)
	if !ok {
		return MoveUnit{}, 0, false
	}

	unit := MoveUnit{
		Number:     number,
		WhiteSAN:   whiteSAN,
		WhiteEval:  whiteEval,
		WhiteClock: whiteClock,
	}

	if black, afterBlack, ok := parseBlack(line, afterWhite); ok {
		unit.BlackSAN = black.BlackSAN
		unit.BlackEval = black.BlackEval
		unit.BlackClock = black.BlackClock
		return unit, afterBlack, true
	}

	return unit, afterWhite, true
}

// parseBlack attempts the black half of a unit. The black reply may carry a
// "N..." continuation marker. A fresh move number ("N." with a single dot)
// belongs to the next unit and means black is absent here.
func parseBlack(line string, from int) (MoveUnit, int, bool) {
	i := skipSpace(line, from)
	if i >= len(line) {
		return MoveUnit{}, 0, false
	}

	if j := i; isDigit(line[j]) {
		for j < len(line) && isDigit(line[j]) {
			j++
		}
		if j < len(line) && line[j] == '.' && !strings.HasPrefix(line[j:], "...") {
			return MoveUnit{}, 0, false
		}
	}

	brace := strings.IndexByte(line[i:], '{')
	if brace < 0 {
		return MoveUnit{}, 0, false
	}

	san := strings.TrimSpace(line[i : i+brace])
	if dots := strings.Index(san, "..."); dots >= 0 {
		san = strings.TrimSpace(san[dots+3:])
	}
	if !sanOK(san) {
		return MoveUnit{}, 0, false
	}

	eval, clock, end, ok := parseAnnotations(line, i+brace)
	if !ok {
		return MoveUnit{}, 0, false
	}

	return MoveUnit{BlackSAN: san, BlackEval: eval, BlackClock: clock}, end, true
}

// parseAnnotations reads "{[%eval E][%clk C]}" starting at an opening brace
// and returns the trimmed eval and clock strings plus the offset past the
// closing brace. Both annotations must be present, in that order.
func parseAnnotations(line string, at int) (eval, clock string, end int, ok bool) {
	i := at
	if i >= len(line) || line[i] != '{' {
		return "", "", 0, false
	}
	i = skipSpace(line, i+1)

	eval, i, ok = parseBracketed(line, i, "[%eval")
	if !ok {
		return "", "", 0, false
	}
	i = skipSpace(line, i)

	clock, i, ok = parseBracketed(line, i, "[%clk")
	if !ok {
		return "", "", 0, false
	}
	i = skipSpace(line, i)

	if i >= len(line) || line[i] != '}' {
		return "", "", 0, false
	}
	return eval, clock, i + 1, true
}

func parseBracketed(line string, at int, marker string) (value string, end int, ok bool) {
	if !strings.HasPrefix(line[at:], marker) {
		return "", 0, false
	}
	i := at + len(marker)

	close := strings.IndexByte(line[i:], ']')
	if close < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(line[i : i+close]), i + close + 1, true
}

// sanOK rejects move text that strayed into annotation syntax; a SAN token
// never carries brackets, braces or quotes.
func sanOK(san string) bool {
	return san != "" && !strings.ContainsAny(san, `[]{}"`)
}

func skipSpace(line string, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
