package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthscore/internal/model"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customer records",
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers with score, status, and action",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		customers, err := st.ListCustomers(ctx)
		if err != nil {
			return err
		}
		writeCustomerTable(customers)
		return nil
	},
}

var customerShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one customer in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := st.GetCustomer(ctx, args[0])
		if err != nil {
			return err
		}
		metrics, err := st.ListMetrics(ctx)
		if err != nil {
			return err
		}
		fields, err := st.ListFields(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %s\n", c.ID)
		fmt.Printf("Name:    %s\n", c.Name)
		if c.AccountID != "" {
			fmt.Printf("Account: %s\n", c.AccountID)
		}
		fmt.Printf("Period:  %s %s\n", c.Month, c.Year)
		fmt.Printf("Score:   %d\n", c.Score)
		fmt.Printf("Status:  %s\n", c.Status)
		fmt.Printf("Action:  %s\n", c.Action)

		fmt.Println("\nMetric values:")
		for _, m := range metrics {
			fmt.Printf("  %-20s %s\n", m.Name, formatValue(c.MetricValues[m.ID]))
		}
		if len(c.CustomFields) > 0 {
			fmt.Println("\nCustom fields:")
			for _, f := range fields {
				if v, ok := c.CustomFields[f.ID]; ok && v != "" {
					fmt.Printf("  %-20s %s\n", f.Name, v)
				}
			}
		}
		return nil
	},
}

var customerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a customer record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		name, _ := cmd.Flags().GetString("name")
		accountID, _ := cmd.Flags().GetString("account")
		month, _ := cmd.Flags().GetString("month")
		year, _ := cmd.Flags().GetString("year")
		if month == "" {
			month = cfg.Import.DefaultMonth
		}
		if year == "" {
			year = cfg.Import.DefaultYear
		}

		created, err := svc.SaveCustomer(ctx, model.Customer{
			Name:      name,
			AccountID: accountID,
			Month:     month,
			Year:      year,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added customer %s (%s), score %d %s\n", created.Name, created.ID, created.Score, created.Status)
		return nil
	},
}

var customerSetCmd = &cobra.Command{
	Use:   "set <customer-id> <metric-id> <value>",
	Short: "Set one metric value and rescore the customer",
	Long: `Set a customer's raw value for a metric. A plain number sets a scalar
value; four comma-separated numbers set a 4-point trend series, for example
"15,12,8,5".`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		value, err := parseValueArg(args[2])
		if err != nil {
			return err
		}

		updated, err := svc.SetMetricValue(ctx, args[0], args[1], value)
		if err != nil {
			return err
		}
		fmt.Printf("%s: score %d, status %s\n", updated.Name, updated.Score, updated.Status)
		return nil
	},
}

var customerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a customer record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteCustomer(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted customer %s\n", args[0])
		return nil
	},
}

// parseValueArg turns "85" into a scalar and "15,12,8,5" into a trend
// series.
func parseValueArg(arg string) (model.MetricValue, error) {
	parts := strings.Split(arg, ",")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return model.MetricValue{}, eris.Wrapf(err, "parse value %q", arg)
		}
		return model.Scalar(v), nil
	case model.TrendPoints:
		var points [model.TrendPoints]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return model.MetricValue{}, eris.Wrapf(err, "parse trend point %q", p)
			}
			points[i] = v
		}
		return model.Trend(points), nil
	default:
		return model.MetricValue{}, eris.Errorf("value must be a number or %d comma-separated numbers (got %q)", model.TrendPoints, arg)
	}
}

func formatValue(v model.MetricValue) string {
	switch v.Kind() {
	case model.ValueScalar:
		return fmt.Sprintf("%g", v.ScalarValue())
	case model.ValueTrend:
		points := v.TrendValues()
		parts := make([]string, len(points))
		for i, p := range points {
			parts[i] = fmt.Sprintf("%g", p)
		}
		return strings.Join(parts, " -> ")
	default:
		return "(none)"
	}
}

func writeCustomerTable(customers []model.Customer) {
	fmt.Printf("%-36s %-25s %-10s %5s %-10s %s\n", "ID", "Customer", "Period", "Score", "Status", "Action")
	fmt.Println(strings.Repeat("-", 120))
	for _, c := range customers {
		name := c.Name
		if len(name) > 25 {
			name = name[:22] + "..."
		}
		action := c.Action
		if len(action) > 40 {
			action = action[:37] + "..."
		}
		fmt.Printf("%-36s %-25s %-10s %5d %-10s %s\n",
			c.ID, name, c.Month[:min(3, len(c.Month))]+" "+c.Year, c.Score, c.Status, action)
	}
}

func init() {
	f := customerAddCmd.Flags()
	f.String("name", "", "customer name")
	f.String("account", "", "external account ID")
	f.String("month", "", "reporting month (default from config)")
	f.String("year", "", "reporting year (default from config)")

	customerCmd.AddCommand(customerListCmd, customerShowCmd, customerAddCmd, customerSetCmd, customerDeleteCmd)
	rootCmd.AddCommand(customerCmd)
}
