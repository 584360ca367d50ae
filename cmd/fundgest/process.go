package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/parser"
	"github.com/dgallion1/fundgest/internal/recordstore"
	"github.com/dgallion1/fundgest/internal/sink"
	"github.com/dgallion1/fundgest/internal/table"
)

var (
	procDataset  string
	procInput    string
	procOutput   string
	procWorkers  int
	procYear     string
	procTextFile string
	procExisting string
)

func init() {
	processCmd.Flags().StringVarP(&procDataset, "dataset", "d", "", "Dataset processor to run (required)")
	processCmd.Flags().StringVarP(&procInput, "input", "i", "", "Input file or directory (required)")
	processCmd.Flags().StringVarP(&procOutput, "output", "o", "", "Directory for CSV outputs (required)")
	processCmd.Flags().IntVarP(&procWorkers, "workers", "w", 4, "Files processed in parallel")
	processCmd.Flags().StringVar(&procYear, "year", "", "Academic year for registry exports, e.g. 2024-2025")
	processCmd.Flags().StringVar(&procTextFile, "text", "", "Companion text file, e.g. the resolution text of an FR sheet")
	processCmd.Flags().StringVar(&procExisting, "existing", "", "Earlier cleaned OASIS output to extend, csv or xlsx")
	_ = processCmd.MarkFlagRequired("dataset")
	_ = processCmd.MarkFlagRequired("input")
	_ = processCmd.MarkFlagRequired("output")
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run a dataset processor over files",
	Long: `Run a dataset processor over one file or every matching file in a directory
and write one CSV per output.

Examples:
  # Clean a finance resolution sheet
  fundgest process --dataset FR --input fr.xlsx --output out/

  # Extract decisions from a folder of minutes, 8 at a time
  fundgest process --dataset Contingency --input minutes/ --output out/ --workers 8

  # Add this year's registry export to the running OASIS dataset
  fundgest process --dataset OASIS --input oasis.csv --year 2024-2025 --existing out/OASIS.csv --output out/`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		var text string
		if procTextFile != "" {
			b, err := os.ReadFile(procTextFile)
			if err != nil {
				return fmt.Errorf("read companion text: %w", err)
			}
			text = string(b)
		}
		var existing *table.Table
		if procExisting != "" {
			if existing, err = readHeaderTable(procExisting); err != nil {
				return fmt.Errorf("read existing output: %w", err)
			}
		}

		sinks := []sink.Sink{sink.Dir{Path: procOutput}}
		if e.cfg.RecordStoreURL != "" {
			rs := recordstore.NewClient(e.cfg.RecordStoreURL, e.cfg.RecordStoreAPIKey)
			defer rs.Close()
			sinks = append(sinks, sink.Store{Client: rs})
		}

		b := batch{
			reg:       e.reg,
			dataset:   procDataset,
			sinks:     sinks,
			workers:   procWorkers,
			year:      procYear,
			text:      text,
			existing:  existing,
			parseOpts: parser.Options{PDFFallbackPdftotext: e.cfg.PDFFallbackPdftotext},
		}
		results, err := b.run(cmd.Context(), procInput)
		if len(results) > 0 {
			renderSummary(cmd.OutOrStdout(), results)
		}
		return err
	},
}

// batch processes many files of one dataset.
type batch struct {
	reg       *dataset.Registry
	dataset   string
	sinks     []sink.Sink
	workers   int
	year      string
	text      string
	existing  *table.Table
	parseOpts parser.Options
}

// result is the outcome for one input file.
type result struct {
	File   string
	Output dataset.Output
	Total  decimal.Decimal
	Err    error
}

// run processes every input under path. A failing file does not stop the
// others; the returned error counts the failures.
func (b batch) run(ctx context.Context, path string) ([]result, error) {
	proc, ok := b.reg.Lookup(b.dataset)
	if !ok {
		names := make([]string, 0)
		for _, p := range b.reg.Processors() {
			names = append(names, p.Name())
		}
		return nil, fmt.Errorf("unknown dataset %q (have %s)", b.dataset, strings.Join(names, ", "))
	}
	files, err := collectInputs(path, proc.Kind())
	if err != nil {
		return nil, err
	}

	results := make([]result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.one(gctx, proc, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return results, nil
}

func (b batch) one(ctx context.Context, proc dataset.Processor, path string) result {
	name := filepath.Base(path)
	res := result{File: name}

	in, err := b.input(proc.Kind(), path, name)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := b.reg.ProcessOne(proc.Name(), in)
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	res.Total = outputTotal(out)

	for _, s := range b.sinks {
		if err := s.Write(ctx, out, name, ""); err != nil {
			res.Err = fmt.Errorf("%s sink: %w", s.Name(), err)
			return res
		}
	}
	return res
}

func (b batch) input(kind dataset.Kind, path, name string) (dataset.Input, error) {
	in := dataset.Input{Name: name, Year: b.year, Text: b.text, Existing: b.existing}
	f, err := os.Open(path)
	if err != nil {
		return in, err
	}
	defer f.Close()

	if kind == dataset.KindTable {
		in.Table, err = parser.Table(f, name)
		return in, err
	}
	in.Text, err = parser.Text(f, name, b.parseOpts)
	return in, err
}

// collectInputs returns path itself, or the files in directory path that
// the dataset kind can read, sorted by name.
func collectInputs(path string, kind dataset.Kind) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		isTable := parser.IsTable(e.Name())
		if kind == dataset.KindTable && isTable || kind == dataset.KindText && !isTable && parser.IsSupportedExtension(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s inputs in %s", kind, path)
	}
	sort.Strings(files)
	return files, nil
}

// amountColumns are summed for outputs that carry no classified records.
var amountColumns = []string{"Amount", "Amount Approved", "Amount Allowed"}

// outputTotal sums the dollar amounts of an output.
func outputTotal(out dataset.Output) decimal.Decimal {
	total := decimal.Zero
	if len(out.Records) > 0 {
		for _, r := range out.Records {
			if r.Amount.Valid() {
				total = total.Add(r.Amount.Value.Decimal)
			}
		}
		return total
	}
	if out.Table == nil {
		return total
	}
	for _, name := range amountColumns {
		col, ok := out.Table.Column(name)
		if !ok {
			continue
		}
		for _, c := range col {
			v, err := decimal.NewFromString(strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(c.Text)))
			if c.Valid && err == nil {
				total = total.Add(v)
			}
		}
		return total
	}
	return total
}

func renderSummary(w io.Writer, results []result) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetHeader([]string{"File", "Output", "Rows", "Skipped", "Total", "Status"})

	rows, total := 0, decimal.Zero
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		n := r.Output.Table.Len()
		rows += n
		total = total.Add(r.Total)
		tw.Append([]string{
			r.File,
			r.Output.Name,
			strconv.Itoa(n),
			strconv.Itoa(len(r.Output.Skipped)),
			r.Total.StringFixed(2),
			status,
		})
	}
	tw.SetFooter([]string{"", "", strconv.Itoa(rows), "", total.StringFixed(2), ""})
	tw.Render()
}
