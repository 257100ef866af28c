package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/healthscore/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute all customer scores and print the results",
	Long: `Recompute every customer's composite score against the current metric and
band catalogs, store the results, and print them.

Each metric value is normalized to 0-100 (band position for scalar values,
trend direction for 4-point series), weighted by the metric's weight
percentage, and summed. The composite maps to a status and recommended
action through the score-band catalog.

Examples:
  # Recompute and print a table
  score

  # Export to CSV
  score --format csv --output scores.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	svc, st, err := initService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := svc.RecomputeAll(ctx); err != nil {
		return eris.Wrap(err, "score: recompute")
	}

	customers, err := st.ListCustomers(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("scoring complete", zap.Int("customers", len(customers)))

	if err := outputCustomers(customers, format, outputPath); err != nil {
		return err
	}
	printScoreSummary(customers)
	return nil
}

func outputCustomers(customers []model.Customer, format, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	switch format {
	case "csv":
		return writeCustomerCSV(w, customers)
	default:
		fmt.Fprintf(w, "%-25s %-12s %-10s %5s %-10s %s\n", "Customer", "Account", "Period", "Score", "Status", "Action")
		fmt.Fprintln(w, strings.Repeat("-", 110))
		for _, c := range customers {
			name := c.Name
			if len(name) > 25 {
				name = name[:22] + "..."
			}
			fmt.Fprintf(w, "%-25s %-12s %-10s %5d %-10s %s\n",
				name, c.AccountID, c.Month+" "+c.Year, c.Score, c.Status, c.Action)
		}
		return nil
	}
}

func writeCustomerCSV(w *os.File, customers []model.Customer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"id", "customer", "account_id", "month", "year", "score", "status", "action"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, c := range customers {
		row := []string{
			c.ID, c.Name, c.AccountID, c.Month, c.Year,
			strconv.Itoa(c.Score), c.Status, c.Action,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func printScoreSummary(customers []model.Customer) {
	if len(customers) == 0 {
		fmt.Println("No customers.")
		return
	}

	var sum int
	maxScore, minScore := 0, 101
	byStatus := make(map[string]int)
	for _, c := range customers {
		sum += c.Score
		if c.Score > maxScore {
			maxScore = c.Score
		}
		if c.Score < minScore {
			minScore = c.Score
		}
		byStatus[c.Status]++
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Customers:     %d\n", len(customers))
	fmt.Printf("Score range:   %d - %d\n", minScore, maxScore)
	fmt.Printf("Average score: %.1f\n", float64(sum)/float64(len(customers)))
	for status, n := range byStatus {
		fmt.Printf("  %-10s %d\n", status, n)
	}
}
