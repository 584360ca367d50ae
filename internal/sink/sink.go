// Package sink publishes dataset outputs: CSV files in a directory, the
// record store, or both.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/recordstore"
	"github.com/dgallion1/fundgest/internal/table"
)

// Sink receives finished outputs. source is the uploaded file name and
// jobID the job that produced the output, when there is one.
type Sink interface {
	Name() string
	Write(ctx context.Context, out dataset.Output, source, jobID string) error
}

// Dir writes each output as <dir>/<name>.csv.
type Dir struct {
	Path string
}

func (d Dir) Name() string { return "csv" }

func (d Dir) Write(ctx context.Context, out dataset.Output, _, _ string) error {
	_, err := WriteTable(ctx, d.Path, out.Name, out.Table)
	return err
}

// WriteTable writes t as CSV, header first, and returns the file path. The
// directory is created when missing.
func WriteTable(ctx context.Context, dir, name string, t *table.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if t == nil {
		t = &table.Table{}
	}
	if err := w.WriteAll(t.Strings()); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// FileName maps an output name to a file name: path separators become
// dashes and ".csv" is appended.
func FileName(name string) string {
	name = strings.NewReplacer("/", "-", `\`, "-", ":", "-").Replace(strings.TrimSpace(name))
	if name == "" {
		name = "output"
	}
	return name + ".csv"
}

// Store publishes outputs to the record store.
type Store struct {
	Client *recordstore.Client
}

func (s Store) Name() string { return "recordstore" }

func (s Store) Write(ctx context.Context, out dataset.Output, source, jobID string) error {
	_, err := s.Client.PutOutput(ctx, Stored(out, source, jobID))
	return err
}

// Stored converts an output to its record store value.
func Stored(out dataset.Output, source, jobID string) recordstore.StoredOutput {
	var cols []string
	var rows [][]string
	if out.Table != nil {
		all := out.Table.Strings()
		cols, rows = all[0], all[1:]
	}
	return recordstore.StoredOutput{
		Dataset:  out.Dataset,
		Name:     out.Name,
		Date:     out.Date,
		Source:   source,
		JobID:    jobID,
		Columns:  cols,
		Rows:     rows,
		Skipped:  out.Skipped,
		Warnings: out.Warnings,
	}
}
