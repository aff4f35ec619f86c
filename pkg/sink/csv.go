package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/plyforge/movesheet/pkg/pgn"
)

// Headers is the output column order.
var Headers = []string{"Move Number", "Eval", "Centipawn Loss", "Time Left", "Time Spent"}

// CSVConfig configures a CSV sink.
type CSVConfig struct {
	// Path is the output file in single-stream mode.
	Path string
	// Dir and BaseName place per-time-control files in bucketed mode:
	// <Dir>/<BaseName>_<timecontrol>.csv.
	Dir      string
	BaseName string
	// BucketByTimeControl routes each batch to its time control's own file.
	BucketByTimeControl bool
	// FlushRows is the buffered-row threshold (per file in bucketed mode)
	// above which rows are written out. Zero writes every batch through.
	FlushRows int
}

// CSV buffers row batches and writes them as CSV, either to a single file or
// to one file per time control. Headers are written once per created file.
type CSV struct {
	cfg CSVConfig
	log *zap.Logger

	files map[string]*csvFile
}

type csvFile struct {
	file   *os.File
	writer *csv.Writer
	buffer []pgn.Row
}

func NewCSV(cfg CSVConfig, log *zap.Logger) (*CSV, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.BucketByTimeControl && cfg.Path == "" {
		return nil, fmt.Errorf("csv sink: no output path")
	}
	if cfg.BucketByTimeControl && cfg.BaseName == "" {
		return nil, fmt.Errorf("csv sink: no base name for bucketed output")
	}

	return &CSV{
		cfg:   cfg,
		log:   log,
		files: make(map[string]*csvFile),
	}, nil
}

// WriteBatch buffers the batch under its destination file and writes the
// buffer through once it exceeds the flush threshold.
func (c *CSV) WriteBatch(ctx context.Context, timeControl string, rows []pgn.Row) error {
	f, err := c.fileFor(timeControl)
	if err != nil {
		return err
	}

	f.buffer = append(f.buffer, rows...)
	if len(f.buffer) > c.cfg.FlushRows {
		return c.flushFile(f)
	}
	return nil
}

// Flush writes every buffered row through to disk.
func (c *CSV) Flush(ctx context.Context) error {
	for _, f := range c.files {
		if err := c.flushFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes all output files.
func (c *CSV) Close() error {
	var firstErr error
	for _, f := range c.files {
		if err := c.flushFile(f); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *CSV) fileFor(timeControl string) (*csvFile, error) {
	path := c.cfg.Path
	if c.cfg.BucketByTimeControl {
		name := fmt.Sprintf("%s_%s.csv", c.cfg.BaseName, sanitizeTC(timeControl))
		path = filepath.Join(c.cfg.Dir, name)
	}

	if f, ok := c.files[path]; ok {
		return f, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csv sink: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv sink: %w", err)
	}

	f := &csvFile{file: file, writer: csv.NewWriter(file)}
	if err := f.writer.Write(Headers); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("csv sink: writing header: %w", err)
	}

	c.files[path] = f
	c.log.Debug("opened output file", zap.String("path", path))
	return f, nil
}

func (c *CSV) flushFile(f *csvFile) error {
	for _, row := range f.buffer {
		if err := f.writer.Write(formatRow(row)); err != nil {
			return fmt.Errorf("csv sink: %w", err)
		}
	}
	f.buffer = f.buffer[:0]

	f.writer.Flush()
	return f.writer.Error()
}

func formatRow(r pgn.Row) []string {
	return []string{
		r.Label,
		strconv.FormatFloat(r.Eval, 'g', -1, 64),
		strconv.FormatFloat(r.CentipawnLoss, 'g', -1, 64),
		strconv.Itoa(r.TimeLeft),
		strconv.Itoa(r.TimeSpent),
	}
}

// sanitizeTC makes a time control tag safe for file names. Tags are normally
// "base+inc" but correspondence games use "-".
func sanitizeTC(tc string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-':
			return r
		default:
			return '_'
		}
	}, tc)
}

var _ pgn.RowSink = (*CSV)(nil)
