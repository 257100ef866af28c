package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/healthscore/internal/importer"
	"github.com/sells-group/healthscore/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import customers from a CSV or XLSX export",
	Long: `Import customer records from a CSV or XLSX file. Columns are matched
against the metric and field catalogs by name; trending metrics read four
columns suffixed _M1 through _M4. Records matching an existing customer by
name (case-insensitive) overwrite it; the rest are appended. Every imported
record is scored before it is stored.

Examples:
  # Import a CSV export
  import storehub-december.csv

  # Preview without writing
  import storehub-december.csv --dry-run

  # Use a saved mapping profile's parse settings
  import intercom.csv --profile intercom-weekly`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("profile", "", "saved mapping profile name")
	f.String("month", "", "reporting month stamped on rows without one (default from config)")
	f.String("year", "", "reporting year stamped on rows without one (default from config)")
	f.Bool("dry-run", false, "parse and score but do not write")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	profileName, _ := cmd.Flags().GetString("profile")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	svc, st, err := initService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := importer.Options{
		Month: cfg.Import.DefaultMonth,
		Year:  cfg.Import.DefaultYear,
	}
	if v, _ := cmd.Flags().GetString("month"); v != "" {
		opts.Month = v
	}
	if v, _ := cmd.Flags().GetString("year"); v != "" {
		opts.Year = v
	}

	if profileName != "" {
		profile, err := findProfile(ctx, st, profileName)
		if err != nil {
			return err
		}
		popts := importer.FromProfile(*profile)
		opts.Delimiter = popts.Delimiter
		opts.SkipFirstRow = popts.SkipFirstRow
		opts.NumberFormat = popts.NumberFormat

		profile.LastUsed = time.Now()
		if err := st.SaveProfile(ctx, *profile); err != nil {
			zap.L().Warn("update profile last-used", zap.Error(err))
		}
	}

	metrics, err := st.ListMetrics(ctx)
	if err != nil {
		return err
	}
	fields, err := st.ListFields(ctx)
	if err != nil {
		return err
	}
	cat := importer.Catalogs{Metrics: metrics, Fields: fields}

	var records []model.Customer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "import: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		records, err = importer.ParseCSV(ctx, f, cat, opts)
		if err != nil {
			return err
		}
	case ".xlsx":
		records, err = importer.ParseXLSX(path, cat, opts)
		if err != nil {
			return err
		}
	default:
		return eris.Errorf("import: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}

	if len(records) == 0 {
		fmt.Println("No importable rows found.")
		return nil
	}

	if dryRun {
		fmt.Printf("Parsed %d records (dry run, nothing written):\n\n", len(records))
		for _, r := range records {
			fmt.Printf("  %-30s %d metric values\n", r.Name, len(r.MetricValues))
		}
		return nil
	}

	updated, added, err := svc.MergeCustomers(ctx, records)
	if err != nil {
		return eris.Wrap(err, "import: merge records")
	}

	sub := importer.Submission(filepath.Base(path), opts)
	if err := st.AddSubmission(ctx, sub); err != nil {
		zap.L().Warn("record submission", zap.Error(err))
	}

	fmt.Printf("Imported %d records: %d updated, %d added\n", len(records), updated, added)
	return nil
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a CSV upload template for the current catalogs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		metrics, err := st.ListMetrics(ctx)
		if err != nil {
			return err
		}
		fields, err := st.ListFields(ctx)
		if err != nil {
			return err
		}

		w := os.Stdout
		if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
			w, err = os.Create(outputPath)
			if err != nil {
				return eris.Wrapf(err, "template: create %s", outputPath)
			}
			defer w.Close() //nolint:errcheck
		}

		return importer.Template(w, metrics, fields)
	},
}

func init() {
	templateCmd.Flags().String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(templateCmd)
}
