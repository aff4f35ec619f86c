package pgn_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/plyforge/movesheet/pkg/pgn"
)

func gameWith(t *testing.T, f pgn.Filters, tags map[pgn.Tag]string, moveLines ...string) *pgn.GameState {
	t.Helper()

	g := pgn.NewGameState()
	for tag, value := range tags {
		g.ApplyTag(tag, value, f)
	}
	for _, line := range moveLines {
		g.ApplyMoveLine(line)
	}
	return g
}

func TestEmitGameFirstMoveDerivation(t *testing.T) {
	g := gameWith(t, strictFilters,
		map[pgn.Tag]string{
			pgn.TAG_WHITE_ELO:   "2200",
			pgn.TAG_BLACK_ELO:   "2100",
			pgn.TAG_TIMECONTROL: "180+2",
		},
		`1. e4 {[%eval 0.2][%clk 180]} e5 {[%eval 0.1][%clk 179]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	want := []pgn.Row{
		{Label: "1w", Eval: 0.2, CentipawnLoss: 0.0, TimeLeft: 180, TimeSpent: 2},
		{Label: "1b", Eval: 0.1, CentipawnLoss: 0.0, TimeLeft: 179, TimeSpent: 3},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %+v\nwant %+v", rows, want)
	}
}

func TestEmitGameRejectedYieldsNothing(t *testing.T) {
	g := gameWith(t, strictFilters,
		map[pgn.Tag]string{pgn.TAG_WHITE_ELO: "1500"},
		`1. e4 {[%eval 0.2][%clk 180]} e5 {[%eval 0.1][%clk 179]}`,
	)

	if rows := pgn.EmitGame(g, strictFilters); rows != nil {
		t.Errorf("rejected game emitted %d rows", len(rows))
	}
}

func TestEmitGameClockDerivationAcrossMoves(t *testing.T) {
	g := gameWith(t, strictFilters,
		map[pgn.Tag]string{pgn.TAG_TIMECONTROL: "300+3"},
		`1. e4 {[%eval 0.2][%clk 5:00]} e5 {[%eval 0.1][%clk 5:00]} 2. Nf3 {[%eval 0.3][%clk 4:48]} Nc6 {[%eval 0.25][%clk 4:55]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	// First moves burn against the base time; later ones against that
	// side's previous clock. Every move earns the increment.
	wantSpent := []int{3, 3, 15, 8}
	for i, row := range rows {
		if row.TimeSpent != wantSpent[i] {
			t.Errorf("row %s: TimeSpent = %d, want %d", row.Label, row.TimeSpent, wantSpent[i])
		}
	}
}

func TestEmitGameNegativeTimeSpentNotClamped(t *testing.T) {
	// Clock going backwards (inconsistent data) must pass through.
	g := gameWith(t, strictFilters,
		map[pgn.Tag]string{pgn.TAG_TIMECONTROL: "60+0"},
		`1. e4 {[%eval 0.0][%clk 1:30]} e5 {[%eval 0.0][%clk 0:59]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TimeSpent != -30 {
		t.Errorf("white TimeSpent = %d, want -30", rows[0].TimeSpent)
	}
}

func TestEmitGameCentipawnLossSigns(t *testing.T) {
	// Eval is from White's perspective: a drop hurts White, a rise hurts
	// Black.
	g := gameWith(t, strictFilters, nil,
		`1. e4 {[%eval -0.5][%clk 1:00]} e5 {[%eval 0.7][%clk 1:00]} 2. d4 {[%eval 0.4][%clk 0:58]} d5 {[%eval 0.1][%clk 0:58]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	wantLoss := []float64{0.5, 1.2, 0.3, 0.0}
	for i, row := range rows {
		if !almostEqual(row.CentipawnLoss, wantLoss[i]) {
			t.Errorf("row %s: CentipawnLoss = %v, want %v", row.Label, row.CentipawnLoss, wantLoss[i])
		}
		if row.CentipawnLoss < 0 {
			t.Errorf("row %s: negative centipawn loss", row.Label)
		}
	}
}

func TestEmitGameMateSentinel(t *testing.T) {
	g := gameWith(t, strictFilters, nil,
		`40. Qe8 {[%eval #3][%clk 0:10]} Kg7 {[%eval #-2][%clk 0:09]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Eval != 10.0 || rows[1].Eval != -10.0 {
		t.Errorf("mate evals = %v, %v; want 10, -10", rows[0].Eval, rows[1].Eval)
	}
	// The swing went in black's favor, so black's loss is clamped to zero.
	if !almostEqual(rows[1].CentipawnLoss, 0) {
		t.Errorf("black CentipawnLoss = %v, want 0", rows[1].CentipawnLoss)
	}
}

func TestEmitGameRowOrder(t *testing.T) {
	g := gameWith(t, strictFilters, nil,
		`1. e4 {[%eval 0.2][%clk 180]} e5 {[%eval 0.1][%clk 179]} 2. Nf3 {[%eval 0.25][%clk 178]} Nc6 {[%eval 0.2][%clk 177]} 3. Bb5 {[%eval 0.3][%clk 176]} 1-0`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	want := []string{"1w", "1b", "2w", "2b", "3w"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, row := range rows {
		if row.Label != want[i] {
			t.Errorf("row %d: Label = %q, want %q", i, row.Label, want[i])
		}
	}
}

func TestEmitGameMalformedClockPolicies(t *testing.T) {
	line := `1. e4 {[%eval 0.2][%clk junk]} e5 {[%eval 0.1][%clk 2:59]}`

	// Tolerant policy: unreadable clock scores as zero seconds.
	g := gameWith(t, strictFilters, map[pgn.Tag]string{pgn.TAG_TIMECONTROL: "180+0"}, line)
	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows under the zero policy, got %d", len(rows))
	}
	if rows[0].TimeLeft != 0 || rows[0].TimeSpent != 180 {
		t.Errorf("zero policy row = %+v", rows[0])
	}

	// Strict policy: the whole game is dropped.
	strict := strictFilters
	strict.RejectOnBadClock = true
	g = gameWith(t, strict, map[pgn.Tag]string{pgn.TAG_TIMECONTROL: "180+0"}, line)
	if rows := pgn.EmitGame(g, strict); rows != nil {
		t.Errorf("strict policy emitted %d rows", len(rows))
	}
}

func TestEmitGameMalformedEvalSkipsUnit(t *testing.T) {
	g := gameWith(t, strictFilters, nil,
		`1. e4 {[%eval oops][%clk 1:00]} e5 {[%eval 0.1][%clk 1:00]} 2. d4 {[%eval 0.3][%clk 0:58]} d5 {[%eval 0.2][%clk 0:58]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	for _, row := range rows {
		if strings.HasPrefix(row.Label, "1") {
			t.Errorf("unit with malformed eval emitted row %q", row.Label)
		}
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows from the intact unit, got %d", len(rows))
	}
}

func TestEmitGameMultipleMoveLines(t *testing.T) {
	// Derivation state carries across move lines of the same game.
	g := gameWith(t, strictFilters, map[pgn.Tag]string{pgn.TAG_TIMECONTROL: "60+0"},
		`1. e4 {[%eval 0.2][%clk 1:00]} e5 {[%eval 0.1][%clk 1:00]}`,
		`2. Nf3 {[%eval 0.3][%clk 0:55]} Nc6 {[%eval 0.2][%clk 0:54]}`,
	)

	rows := pgn.EmitGame(g, strictFilters)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[2].TimeSpent != 5 || rows[3].TimeSpent != 6 {
		t.Errorf("cross-line clock derivation broken: %+v, %+v", rows[2], rows[3])
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
