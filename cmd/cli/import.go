package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/importusers/import-service/internal/importer"
	"github.com/importusers/import-service/internal/store"
)

var (
	importFormat string
	importMode   string
	importOutput string
)

// optionFlags maps command line flags onto import option keys. Only flags the
// user actually sets override the config and the format file settings.
var optionFlags = []struct {
	flag, key, usage string
}{
	{"upload-action", "upload_action", "addnew, addupdate or updateexisting"},
	{"password-action", "password_action", "filefield, formfield or createnew"},
	{"password-text", "password_text", "password used by the formfield action"},
	{"send-password", "send_password", "no, new or yes"},
	{"change-password", "change_password", "no, new or yes"},
	{"unique-email", "unique_email", "no, new or yes"},
	{"fix-usernames", "fix_usernames", "no, new or yes"},
	{"auth", "auth_method", "authentication method of new users"},
	{"timezone", "timezone", "default timezone"},
	{"lang", "language", "default language"},
	{"calendar", "calendar_type", "default calendar type"},
	{"description", "description_text", "default user description"},
	{"description-format", "description_format", "format of the default description"},
	{"preview-rows", "preview_rows", "rows shown by preview and review"},
	{"resource-type", "resource_type", "none, page or book login details per course"},
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <datafile>",
	Short: "Preview, review or import a data file",
	Long: `Run a data file through an XML format file. Preview shows the raw cells of the
first data rows, review shows the templated records without changing anything,
and import creates or updates users, enrolments and groups.

Options are resolved from the config file, then the format file's settings,
then the flags given here.`,
	Example: `  importusers import ./students.xlsx --format ./students.xml
  importusers import ./students.csv --format ./students.xml --mode review
  importusers import ./students.csv --format ./students.xml --mode import --upload-action addupdate --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "", "XML format file (required)")
	importCmd.Flags().StringVar(&importMode, "mode", "preview", "Run mode: preview, review or import")
	importCmd.Flags().StringVar(&importOutput, "output", "table", "Output format: table or json")
	for _, o := range optionFlags {
		importCmd.Flags().String(o.flag, "", o.usage)
	}
	importCmd.MarkFlagRequired("format")
}

func runImport(cmd *cobra.Command, args []string) error {
	dataPath := args[0]

	mode, err := importer.ParseMode(importMode)
	if err != nil {
		return err
	}
	output := strings.ToLower(importOutput)
	if output != "table" && output != "json" {
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", importOutput)
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	formatXML, err := os.ReadFile(importFormat)
	if err != nil {
		return fmt.Errorf("failed to read format file: %w", err)
	}

	ctx := cmd.Context()
	entities, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open entity store: %w", err)
	}
	defer closeStore()

	imp := importer.New(entities, logger, importer.WithDefaults(cfg.Import))
	report, err := imp.Run(ctx, importer.Request{
		Mode:         mode,
		DataFileName: filepath.Base(dataPath),
		Data:         data,
		Format:       formatXML,
		Overrides:    flagOverrides(cmd),
	})
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), report, output)
}

func flagOverrides(cmd *cobra.Command) map[string]string {
	overrides := make(map[string]string)
	for _, o := range optionFlags {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(o.flag)
		overrides[o.key] = v
	}
	return overrides
}

func writeReport(w io.Writer, report *importer.Report, output string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteTable(w)
}
