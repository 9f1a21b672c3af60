package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/importusers/import-service/internal/format"
)

var formatOutput string

// formatCmd represents the format command
var formatCmd = &cobra.Command{
	Use:   "format <file>",
	Short: "Validate an XML format file",
	Long: `Parse an XML format file and show what it describes: its type and parameters,
the default settings, the data sheet and row ranges, and the field templates in
the order they are evaluated.`,
	Example: `  importusers format ./students.xml
  importusers format ./students.xml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().StringVar(&formatOutput, "output", "table", "Output format: table or json")
}

func runFormat(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	model, err := format.Parse(content)
	if err != nil {
		return fmt.Errorf("invalid format file: %w", err)
	}
	logger.Debug().Str("file", args[0]).Str("type", model.Type).Msg("Format file parsed")

	w := cmd.OutOrStdout()
	switch strings.ToLower(formatOutput) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model)
	case "table":
		return writeFormatSummary(w, model)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", formatOutput)
	}
}

func writeFormatSummary(w io.Writer, m *format.Model) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Type:\t%s\n", m.Type)
	for _, k := range sortedKeys(m.Params) {
		fmt.Fprintf(tw, "Param %s:\t%s\n", k, m.Params[k])
	}
	for _, k := range sortedKeys(m.Settings) {
		fmt.Fprintf(tw, "Setting %s:\t%s\n", k, m.Settings[k])
	}

	for i, sheet := range m.DataSheets() {
		fmt.Fprintf(tw, "Sheets %d:\t%s\n", i+1, bounds(sheet.Start, sheet.End))
		for _, kind := range []format.Kind{format.KindMeta, format.KindData} {
			for _, row := range sheet.Rows[kind] {
				for _, cellKind := range []format.Kind{format.KindMeta, format.KindData} {
					if cells := row.Cells[cellKind]; len(cells) > 0 {
						fmt.Fprintf(tw, "  %s rows %s, %s cells:\t%s\n", kind, bounds(row.Start, row.End), cellKind, strings.Join(cells, ", "))
					}
				}
			}
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ENTITY\tFIELD\tTEMPLATE")
	for _, t := range m.Templates() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Entity, t.Name, t.Value)
	}
	return tw.Flush()
}

func bounds(start, end *int) string {
	s, e := "first", "last"
	if start != nil {
		s = fmt.Sprint(*start)
	}
	if end != nil {
		e = fmt.Sprint(*end)
	}
	return s + "-" + e
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
