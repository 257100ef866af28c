package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthscore/internal/model"
)

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Manage the metric catalog",
}

var metricListCmd = &cobra.Command{
	Use:   "list",
	Short: "List metrics",
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

		fmt.Printf("%-10s %-20s %7s %-8s %10s %10s %-6s %-6s\n",
			"ID", "Name", "Weight", "Input", "Lower", "Upper", "LowIsB", "Trend")
		fmt.Println(strings.Repeat("-", 85))
		for _, m := range metrics {
			fmt.Printf("%-10s %-20s %7.0f %-8s %10g %10g %-6v %-6v\n",
				m.ID, m.Name, m.Weight, m.InputType, m.LowerBand, m.UpperBand, m.LowerIsBetter, m.UseTrending)
		}
		if total := model.TotalWeight(metrics); total != 100 {
			fmt.Printf("\nWarning: weights sum to %g, not 100. Composite scores are skewed.\n", total)
		}
		return nil
	},
}

var metricAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a metric and rescore all customers",
	Long: `Add a metric to the catalog. Existing customers are back-filled with the
midpoint of the new metric's band and all scores are recomputed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		m, err := metricFromFlags(cmd)
		if err != nil {
			return err
		}
		created, err := svc.AddMetric(ctx, m)
		if err != nil {
			return err
		}
		fmt.Printf("Added metric %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var metricUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a metric and rescore all customers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		metrics, err := st.ListMetrics(ctx)
		if err != nil {
			return err
		}
		var current *model.Metric
		for i := range metrics {
			if metrics[i].ID == args[0] {
				current = &metrics[i]
				break
			}
		}
		if current == nil {
			return eris.Errorf("metric not found: %s", args[0])
		}

		applyMetricOverrides(cmd, current)
		if err := svc.UpdateMetric(ctx, *current); err != nil {
			return err
		}
		fmt.Printf("Updated metric %s\n", current.ID)
		return nil
	},
}

var metricDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a metric and rescore all customers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := svc.DeleteMetric(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted metric %s\n", args[0])
		return nil
	},
}

func metricFromFlags(cmd *cobra.Command) (model.Metric, error) {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return model.Metric{}, eris.New("metric: --name is required")
	}
	weight, _ := cmd.Flags().GetFloat64("weight")
	input, _ := cmd.Flags().GetString("input")
	lower, _ := cmd.Flags().GetFloat64("lower")
	upper, _ := cmd.Flags().GetFloat64("upper")
	lowerIsBetter, _ := cmd.Flags().GetBool("lower-is-better")
	trending, _ := cmd.Flags().GetBool("trending")

	return model.Metric{
		Name:          name,
		Weight:        weight,
		InputType:     model.InputType(input),
		LowerBand:     lower,
		UpperBand:     upper,
		LowerIsBetter: lowerIsBetter,
		UseTrending:   trending,
	}, nil
}

func applyMetricOverrides(cmd *cobra.Command, m *model.Metric) {
	f := cmd.Flags()
	if f.Changed("name") {
		m.Name, _ = f.GetString("name")
	}
	if f.Changed("weight") {
		m.Weight, _ = f.GetFloat64("weight")
	}
	if f.Changed("input") {
		v, _ := f.GetString("input")
		m.InputType = model.InputType(v)
	}
	if f.Changed("lower") {
		m.LowerBand, _ = f.GetFloat64("lower")
	}
	if f.Changed("upper") {
		m.UpperBand, _ = f.GetFloat64("upper")
	}
	if f.Changed("lower-is-better") {
		m.LowerIsBetter, _ = f.GetBool("lower-is-better")
	}
	if f.Changed("trending") {
		m.UseTrending, _ = f.GetBool("trending")
	}
}

func addMetricFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "metric name")
	f.Float64("weight", 0, "weight as a percentage (catalog should sum to 100)")
	f.String("input", "manual", "input type: manual or upload")
	f.Float64("lower", 0, "lower band boundary")
	f.Float64("upper", 0, "upper band boundary")
	f.Bool("lower-is-better", false, "lower raw values score higher")
	f.Bool("trending", false, "score by 4-point trend direction instead of band position")
}

func init() {
	addMetricFlags(metricAddCmd)
	addMetricFlags(metricUpdateCmd)
	metricCmd.AddCommand(metricListCmd, metricAddCmd, metricUpdateCmd, metricDeleteCmd)
	rootCmd.AddCommand(metricCmd)
}
