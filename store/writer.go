package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Writer streams DecisionRows into outDir/tmp and moves the finished file into
// outDir on Finalize, so readers never see a partial file.
type Writer struct {
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[DecisionRow]

	games int
	rows  int
}

func NewWriter(outDir string) (*Writer, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("decisions_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[DecisionRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("state"),
	)
	w.SetKeyValueMetadata("schema", schemaName)

	return &Writer{
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (w *Writer) OutPath() string { return w.outPath }
func (w *Writer) Rows() int       { return w.rows }
func (w *Writer) Games() int      { return w.games }

func (w *Writer) WriteRows(rows []DecisionRow) error {
	if w.writer == nil {
		return fmt.Errorf("decision writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := w.writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.rows += len(rows)
	return nil
}

// WriteGame writes the rows of one finished game.
func (w *Writer) WriteGame(rows []DecisionRow) error {
	if err := w.WriteRows(rows); err != nil {
		return err
	}
	w.games++
	return nil
}

// Finalize closes the file and moves it out of tmp/. With no rows the tmp file
// is removed and the returned path is empty.
func (w *Writer) Finalize() (string, error) {
	if w.writer == nil && w.file == nil {
		return "", nil
	}

	var closeErr, fileErr error
	if w.writer != nil {
		closeErr = w.writer.Close()
		w.writer = nil
	}
	if w.file != nil {
		_ = w.file.Sync()
		fileErr = w.file.Close()
		w.file = nil
	}
	if closeErr != nil {
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}

	if w.rows == 0 {
		_ = os.Remove(w.tmpPath)
		return "", nil
	}
	if err := os.Rename(w.tmpPath, w.outPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return w.outPath, nil
}

// ReadFile loads every row of a decision file.
func ReadFile(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
