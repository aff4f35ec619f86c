package pgn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedClock       = errors.New("pgn: malformed clock annotation")
	ErrMalformedEval        = errors.New("pgn: malformed eval annotation")
	ErrMalformedTimeControl = errors.New("pgn: malformed time control")
)

// Evaluations are given in pawns from White's perspective. Forced mates carry
// no numeric score, so they map to a fixed sentinel regardless of distance.
const mateScore = 10.0

// ClockToSeconds converts a clock annotation to total seconds.
// A bare number is read as seconds, two colon-separated parts as MM:SS,
// three as HH:MM:SS. Any other shape is worth zero seconds rather than an
// error. Non-numeric parts return ErrMalformedClock; the caller decides
// between zeroing and rejecting.
func ClockToSeconds(s string) (int, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return clockPart(s, parts[0])
	case 2:
		m, err := clockPart(s, parts[0])
		if err != nil {
			return 0, err
		}
		sec, err := clockPart(s, parts[1])
		if err != nil {
			return 0, err
		}
		return m*60 + sec, nil
	case 3:
		h, err := clockPart(s, parts[0])
		if err != nil {
			return 0, err
		}
		m, err := clockPart(s, parts[1])
		if err != nil {
			return 0, err
		}
		sec, err := clockPart(s, parts[2])
		if err != nil {
			return 0, err
		}
		return h*3600 + m*60 + sec, nil
	default:
		return 0, nil
	}
}

func clockPart(clock, part string) (int, error) {
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, clock)
	}
	return n, nil
}

// ParseEval converts an eval annotation to a float. Mate scores start with
// '#' and collapse to ±10.0; the mate distance is discarded.
func ParseEval(s string) (float64, error) {
	if strings.HasPrefix(s, "#") {
		if strings.HasPrefix(s, "#-") {
			return -mateScore, nil
		}
		return mateScore, nil
	}

	eval, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedEval, s)
	}
	return eval, nil
}

// ParseTimeControl splits a "base+increment" tag value into seconds.
// Both parts must be non-negative integers.
func ParseTimeControl(s string) (TimeControl, error) {
	parts := strings.Split(s, "+")
	if len(parts) != 2 {
		return TimeControl{}, fmt.Errorf("%w: %q", ErrMalformedTimeControl, s)
	}

	initial, err := strconv.Atoi(parts[0])
	if err != nil || initial < 0 {
		return TimeControl{}, fmt.Errorf("%w: %q", ErrMalformedTimeControl, s)
	}
	increment, err := strconv.Atoi(parts[1])
	if err != nil || increment < 0 {
		return TimeControl{}, fmt.Errorf("%w: %q", ErrMalformedTimeControl, s)
	}

	return TimeControl{Initial: initial, Increment: increment}, nil
}

// ResolveTimeControl applies the documented default for games with a missing
// or malformed TimeControl tag: "0+0", i.e. zero base and zero increment.
func ResolveTimeControl(raw string) TimeControl {
	if raw == "" {
		return TimeControl{}
	}
	tc, err := ParseTimeControl(raw)
	if err != nil {
		return TimeControl{}
	}
	return tc
}
