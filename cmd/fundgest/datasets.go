package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fundgest/internal/dataset"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List registered dataset processors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		renderDatasets(cmd.OutOrStdout(), e.reg)
		return nil
	},
}

func renderDatasets(w io.Writer, reg *dataset.Registry) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Dataset", "Input"})
	for _, p := range reg.Processors() {
		input := "spreadsheet (csv, xlsx)"
		if p.Kind() == dataset.KindText {
			input = "minutes (txt, md, html, pdf, docx)"
		}
		table.Append([]string{p.Name(), input})
	}
	table.Render()
}
