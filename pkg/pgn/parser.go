package pgn

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"
)

// RowSink receives the ordered row batches of finalized games. Each batch is
// tagged with the owning game's TimeControl string so a sink may bucket by
// it; a single-stream sink ignores the tag.
type RowSink interface {
	WriteBatch(ctx context.Context, timeControl string, rows []Row) error
	Flush(ctx context.Context) error
}

// ParserConfig is the behavior surface of one parsing run.
type ParserConfig struct {
	Filters Filters
	// ChunkSize is the read size for pulling bytes from the source.
	ChunkSize int
	// MaxLines stops the run after this many non-empty lines. Zero means
	// unlimited. The open game is still finalized on stop.
	MaxLines int64
}

const defaultChunkSize = 1 << 20

// Parser drives one source through the pipeline: chunks to lines, lines to
// the game state machine, finalized games to the sink. It owns exactly one
// GameState at a time.
type Parser struct {
	source Source
	sink   RowSink
	cfg    ParserConfig
	log    *zap.Logger

	asm  LineAssembler
	game *GameState

	clock     time.Time
	readBytes bytesize.ByteSize
	lastBytes bytesize.ByteSize

	gameCount int64
	rowCount  int64
	lineCount int64
}

func NewParser(source Source, sink RowSink, cfg ParserConfig, log *zap.Logger) *Parser {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Parser{
		source: source,
		sink:   sink,
		cfg:    cfg,
		log:    log,
		clock:  time.Now(),
		game:   NewGameState(),
	}
}

// Run pulls the source to exhaustion (or cancellation, or the line limit),
// finalizes the last open game and flushes the sink. The sink's buffered
// rows are also flushed whenever its threshold logic demands it; the parser
// itself holds no rows beyond the current game.
func (p *Parser) Run(ctx context.Context) error {
	if err := p.source.Open(); err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = p.source.Close() }()

	chunk := make([]byte, p.cfg.ChunkSize)

stream:
	for {
		select {
		case <-ctx.Done():
			break stream
		default:
		}

		n, err := p.source.Read(chunk)
		if n > 0 {
			if done, aerr := p.applyChunk(ctx, chunk[:n]); aerr != nil {
				return aerr
			} else if done {
				break stream
			}
		}
		if err == io.EOF {
			break stream
		}
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}

		if time.Since(p.clock) > time.Second {
			p.Progress(false)
			p.clock = time.Now()
		}
	}

	if dropped := p.asm.Flush(); dropped > 0 {
		p.log.Debug("discarded unterminated trailing fragment", zap.Int("bytes", dropped))
	}
	if err := p.finalize(ctx); err != nil {
		return err
	}
	if err := p.sink.Flush(ctx); err != nil {
		return fmt.Errorf("flushing sink: %w", err)
	}

	p.log.Info("source done",
		zap.Int64("games", p.gameCount),
		zap.Int64("rows", p.rowCount),
		zap.Int64("lines", p.lineCount),
	)
	return nil
}

// applyChunk assembles lines from one chunk and applies them. It reports
// true once the configured line limit is reached.
func (p *Parser) applyChunk(ctx context.Context, chunk []byte) (bool, error) {
	p.lastBytes += bytesize.New(float64(len(chunk)))
	p.readBytes += bytesize.New(float64(len(chunk)))

	for _, line := range p.asm.Feed(chunk) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := p.applyLine(ctx, line); err != nil {
			return false, err
		}

		p.lineCount++
		if p.cfg.MaxLines > 0 && p.lineCount >= p.cfg.MaxLines {
			return true, nil
		}
	}
	return false, nil
}

func (p *Parser) applyLine(ctx context.Context, line string) error {
	if isTag(line) {
		tag, value := parseTag(line)
		if tag == TAG_EVENT {
			if err := p.finalize(ctx); err != nil {
				return err
			}
			p.game = NewGameState()
			return nil
		}
		p.game.ApplyTag(tag, value, p.cfg.Filters)
		return nil
	}

	p.game.ApplyMoveLine(line)
	return nil
}

// finalize emits the current game if it passes the inclusion gate. Discarded
// games produce no output and no error.
func (p *Parser) finalize(ctx context.Context) error {
	rows := EmitGame(p.game, p.cfg.Filters)
	if len(rows) == 0 {
		return nil
	}

	p.gameCount++
	p.rowCount += int64(len(rows))

	if err := p.sink.WriteBatch(ctx, p.game.TimeControl(), rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// Games returns the number of games emitted so far.
func (p *Parser) Games() int64 { return p.gameCount }

// Rows returns the number of rows emitted so far.
func (p *Parser) Rows() int64 { return p.rowCount }

// Progress prints a progress bar for the current source.
func (p *Parser) Progress(done bool) {
	total := p.source.Size()
	progress := float64(1)
	if total > 0 {
		progress = math.Min(float64(p.source.BytesRead())/float64(total), 1)
	}
	if done {
		progress = 1
	}
	barN := int(50 * progress)
	bar := "[" + strings.Repeat("#", barN) + strings.Repeat(".", 50-barN) + "]"
	fmt.Printf("%s %.2f%%, games: %d rows: %d rate: %v/s read: %v\r",
		bar, 100*progress, p.gameCount, p.rowCount, p.lastBytes, p.readBytes)
	p.lastBytes = 0
}
