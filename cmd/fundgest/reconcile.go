package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/parser"
	"github.com/dgallion1/fundgest/internal/sink"
	"github.com/dgallion1/fundgest/internal/table"
)

var (
	recFR     string
	recAgenda string
	recOutput string
)

func init() {
	reconcileCmd.Flags().StringVar(&recFR, "fr", "", "Cleaned FR output, csv or xlsx (required)")
	reconcileCmd.Flags().StringVar(&recAgenda, "agenda", "", "Agenda output, csv or xlsx (required)")
	reconcileCmd.Flags().StringVarP(&recOutput, "output", "o", "", "Directory for the reconciled CSV (required)")
	_ = reconcileCmd.MarkFlagRequired("fr")
	_ = reconcileCmd.MarkFlagRequired("agenda")
	_ = reconcileCmd.MarkFlagRequired("output")
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Join a cleaned FR sheet with agenda decisions",
	Long: `Outer-join a cleaned FR output with an agenda output on organization name.
Agenda amount, decision, request type and date win; amounts are zeroed unless
the decision is an approval.

Examples:
  fundgest reconcile --fr out/FR_clean_2025-03-03.csv --agenda "out/2025-03-03 Agenda.csv" --output final/`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		path, sum, err := reconcileFiles(cmd.Context(), recFR, recAgenda, recOutput)
		if err != nil {
			return err
		}
		e.log.Info("reconciled", "output", path, "rows", sum.Total)
		renderReconcile(cmd.OutOrStdout(), path, sum)
		return nil
	},
}

func reconcileFiles(ctx context.Context, frPath, agendaPath, outDir string) (string, dataset.ReconcileSummary, error) {
	fr, err := readHeaderTable(frPath)
	if err != nil {
		return "", dataset.ReconcileSummary{}, fmt.Errorf("read FR: %w", err)
	}
	agenda, err := readHeaderTable(agendaPath)
	if err != nil {
		return "", dataset.ReconcileSummary{}, fmt.Errorf("read agenda: %w", err)
	}
	out, sum, err := dataset.Reconcile(fr, agenda)
	if err != nil {
		return "", sum, err
	}
	path, err := sink.WriteTable(ctx, outDir, dataset.ReconciledName(filepath.Base(frPath)), out)
	return path, sum, err
}

// readHeaderTable reads a processed output, whose first row is its header.
func readHeaderTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	var p parser.TableParser = &parser.CSVParser{Header: true}
	if strings.ToLower(filepath.Ext(name)) != ".csv" {
		if !parser.IsTable(name) {
			return nil, fmt.Errorf("unsupported table type: %s", filepath.Ext(name))
		}
		p = &parser.XLSXParser{Header: true}
	}
	return p.ParseTable(f, name)
}

func renderReconcile(w io.Writer, path string, sum dataset.ReconcileSummary) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Source", "Rows"})
	tw.Append([]string{dataset.SourceBoth, strconv.Itoa(sum.Both)})
	tw.Append([]string{dataset.SourceFROnly, strconv.Itoa(sum.FROnly)})
	tw.Append([]string{dataset.SourceAgenda, strconv.Itoa(sum.AgendaOnly)})
	tw.SetFooter([]string{"Total", strconv.Itoa(sum.Total)})
	tw.Render()
	fmt.Fprintf(w, "wrote %s\n", path)
}
