package pgn

import (
	"strconv"
)

// derivation carries the per-game state the emitter threads across
// half-moves: the previous evaluation and each side's previous clock. It
// lives for one EmitGame call and never crosses games.
type derivation struct {
	prevEval       float64
	prevWhiteClock int
	haveWhiteClock bool
	prevBlackClock int
	haveBlackClock bool
}

// EmitGame turns a finalized game into ordered half-move rows.
//
// Time spent on a move is the drop from that side's previous clock (the
// game's base time for the first move) plus the increment; inconsistent
// clock data may make it negative. Centipawn loss is the non-negative swing
// against the mover, with evaluations always from White's perspective.
//
// A malformed eval skips the rest of its unit. A malformed clock either
// zeroes out or, with Filters.RejectOnBadClock, discards the whole game.
func EmitGame(g *GameState, f Filters) []Row {
	if !g.Emittable(f) {
		return nil
	}

	tc := ResolveTimeControl(g.timeControl)
	d := derivation{}
	rows := []Row{}

	for _, line := range g.moves {
		sc := NewUnitScanner(line)
		for sc.Scan() {
			u := sc.Unit()

			whiteClock, err := ClockToSeconds(u.WhiteClock)
			if err != nil {
				if f.RejectOnBadClock {
					return nil
				}
				whiteClock = 0
			}
			whiteEval, err := ParseEval(u.WhiteEval)
			if err != nil {
				continue
			}

			rows = append(rows, Row{
				Label:         strconv.Itoa(u.Number) + "w",
				Eval:          whiteEval,
				CentipawnLoss: max0(d.prevEval - whiteEval),
				TimeLeft:      whiteClock,
				TimeSpent:     spent(whiteClock, d.prevWhiteClock, d.haveWhiteClock, tc),
			})
			d.prevEval = whiteEval

			if u.BlackSAN != "" {
				blackClock, err := ClockToSeconds(u.BlackClock)
				if err != nil {
					if f.RejectOnBadClock {
						return nil
					}
					blackClock = 0
				}
				blackEval, err := ParseEval(u.BlackEval)
				if err == nil {
					rows = append(rows, Row{
						Label:         strconv.Itoa(u.Number) + "b",
						Eval:          blackEval,
						CentipawnLoss: max0(blackEval - d.prevEval),
						TimeLeft:      blackClock,
						TimeSpent:     spent(blackClock, d.prevBlackClock, d.haveBlackClock, tc),
					})
					d.prevEval = blackEval
					d.prevBlackClock = blackClock
					d.haveBlackClock = true
				}
			}

			d.prevWhiteClock = whiteClock
			d.haveWhiteClock = true
		}
	}

	return rows
}

func spent(clock, prev int, havePrev bool, tc TimeControl) int {
	if !havePrev {
		prev = tc.Initial
	}
	return prev - clock + tc.Increment
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
