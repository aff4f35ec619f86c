package pgn

type Tag string

const (
	TAG_EVENT       Tag = "Event"
	TAG_TERMINATION Tag = "Termination"
	TAG_TIMECONTROL Tag = "TimeControl"
	TAG_WHITE_ELO   Tag = "WhiteElo"
	TAG_BLACK_ELO   Tag = "BlackElo"
)

const TERM_ABANDONED = "Abandoned"

// TimeControl is a game's base allotment and per-move increment in seconds.
type TimeControl struct {
	Initial   int
	Increment int
}

// Row is one emitted half-move record.
// TimeSpent may go negative on inconsistent clock data; it is not clamped.
type Row struct {
	Label         string
	Eval          float64
	CentipawnLoss float64
	TimeLeft      int
	TimeSpent     int
}

// MoveUnit is one scanned movetext unit: a numbered white half-move with its
// eval/clk annotations and, when present, the black reply with its own.
// An absent black half-move is signalled by an empty BlackSAN.
type MoveUnit struct {
	Number     int
	WhiteSAN   string
	WhiteEval  string
	WhiteClock string
	BlackSAN   string
	BlackEval  string
	BlackClock string
}

// Filters are the per-game inclusion rules applied while accumulating tags
// and at finalization.
type Filters struct {
	// MinElo rejects games where either player is rated below the threshold.
	// Zero disables rating rejection.
	MinElo int
	// RequireClockEval gates emission on at least one annotated move line.
	RequireClockEval bool
	// ExcludeAbandoned rejects games whose Termination mentions abandonment.
	ExcludeAbandoned bool
	// RejectOnBadClock drops the whole game on a malformed clock annotation
	// instead of treating it as zero seconds.
	RejectOnBadClock bool
}
