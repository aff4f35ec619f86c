package pgn

import (
	"strconv"
	"strings"
)

// GameState accumulates one game between `[Event` boundaries. Exactly one
// GameState is live at a time; the pipeline driver creates it fresh on each
// boundary and hands it to EmitGame (or drops it) at the next one.
//
// Only the tags the emitter and filters consume are retained. Rejection is
// sticky: once set it survives until the game is discarded.
type GameState struct {
	moves       []string
	timeControl string
	hasClkEval  bool
	rejected    bool
}

func NewGameState() *GameState {
	return &GameState{}
}

// ApplyTag folds one tag line into the game. The Event tag is a boundary and
// is handled by the driver, not here.
//
// A non-integer Elo counts as below any configured threshold and rejects the
// game; the tolerant alternative would admit games whose rating cannot be
// checked at all.
func (g *GameState) ApplyTag(tag Tag, value string, f Filters) {
	switch tag {
	case TAG_WHITE_ELO, TAG_BLACK_ELO:
		if f.MinElo <= 0 {
			return
		}
		elo, err := strconv.Atoi(value)
		if err != nil || elo < f.MinElo {
			g.rejected = true
		}
	case TAG_TERMINATION:
		if f.ExcludeAbandoned && strings.Contains(value, TERM_ABANDONED) {
			g.rejected = true
		}
	case TAG_TIMECONTROL:
		g.timeControl = value
	}
}

// ApplyMoveLine appends a movetext line if it carries both annotation kinds.
// Lines missing either are dropped without invalidating the game. Rejected
// games stop accumulating to bound memory.
func (g *GameState) ApplyMoveLine(line string) {
	if g.rejected {
		return
	}
	if strings.Contains(line, "%clk") && strings.Contains(line, "%eval") {
		g.hasClkEval = true
		g.moves = append(g.moves, line)
	}
}

// Emittable reports whether finalization should produce rows: the game has
// moves, was not rejected, and (when required) saw at least one annotated
// move.
func (g *GameState) Emittable(f Filters) bool {
	if len(g.moves) == 0 || g.rejected {
		return false
	}
	return g.hasClkEval || !f.RequireClockEval
}

// Rejected reports whether a rejection rule has fired.
func (g *GameState) Rejected() bool {
	return g.rejected
}

// TimeControl returns the verbatim TimeControl tag value, or the "0+0"
// substitute when the tag was absent.
func (g *GameState) TimeControl() string {
	if g.timeControl == "" {
		return "0+0"
	}
	return g.timeControl
}
