package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthscore/internal/importer"
	"github.com/sells-group/healthscore/internal/model"
	"github.com/sells-group/healthscore/internal/store"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List data submissions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		subs, err := st.ListSubmissions(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-25s %-10s %-10s %s\n", "Submitted", "File", "Period", "Status", "Metric")
		fmt.Println(strings.Repeat("-", 85))
		for _, s := range subs {
			fmt.Printf("%-20s %-25s %-10s %-10s %s\n",
				s.SubmittedAt.Format("2006-01-02 15:04"),
				s.FileName,
				s.Month[:min(3, len(s.Month))]+" "+s.Year,
				s.Status,
				s.MetricName,
			)
		}
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <metric> [value]",
	Short: "Record a data submission for a metric",
	Long: `Record a submission in the audit log. With a value argument the entry is
logged as a manual entry; with --file it references an uploaded file. The
submission starts pending either way. The audit log never enters scoring;
use "customer set" to change a customer's value.

Examples:
  # Log a manual entry for the Ticket metric
  submit Ticket 12 --month January --year 2025

  # Log a file drop for a metric by ID
  submit 3 --file gmv-january.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := findMetric(ctx, st, args[0])
	if err != nil {
		return err
	}

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

	file, _ := cmd.Flags().GetString("file")
	var sub model.Submission
	switch {
	case file != "" && len(args) == 2:
		return eris.New("submit: pass a value or --file, not both")
	case file != "":
		sub = importer.Submission(filepath.Base(file), opts)
		sub.MetricID = m.ID
		sub.MetricName = m.Name
		sub.Status = model.SubmissionPending
	case len(args) == 2:
		sub = importer.ManualSubmission(*m, args[1], opts)
	default:
		return eris.New("submit: pass a value or --file")
	}

	if err := st.AddSubmission(ctx, sub); err != nil {
		return err
	}
	fmt.Printf("Recorded %s submission for %s (%s %s)\n", sub.Status, sub.MetricName, sub.Month, sub.Year)
	return nil
}

// findMetric resolves a metric by ID or by case-insensitive name.
func findMetric(ctx context.Context, st store.Store, idOrName string) (*model.Metric, error) {
	metrics, err := st.ListMetrics(ctx)
	if err != nil {
		return nil, err
	}
	for i := range metrics {
		if metrics[i].ID == idOrName || strings.EqualFold(metrics[i].Name, idOrName) {
			return &metrics[i], nil
		}
	}
	return nil, eris.Wrapf(store.ErrNotFound, "metric %s", idOrName)
}

func init() {
	f := submitCmd.Flags()
	f.String("month", "", "reporting month (default from config)")
	f.String("year", "", "reporting year (default from config)")
	f.String("file", "", "record a file drop instead of a manual entry")

	rootCmd.AddCommand(submissionsCmd, submitCmd)
}
