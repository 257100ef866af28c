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

var bandCmd = &cobra.Command{
	Use:   "band",
	Short: "Manage the score-band catalog",
	Long: `Score bands map a composite score to a status label and a recommended
action. Resolution scans the catalog in order and the first band whose
inclusive range contains the score wins, so band order matters when ranges
overlap.`,
}

var bandListCmd = &cobra.Command{
	Use:   "list",
	Short: "List score bands in resolution order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		bands, err := st.ListBands(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s %-12s %5s %5s %-8s %s\n", "ID", "Name", "Min", "Max", "Color", "Action")
		fmt.Println(strings.Repeat("-", 90))
		for _, b := range bands {
			fmt.Printf("%-10s %-12s %5g %5g %-8s %s\n", b.ID, b.Name, b.MinScore, b.MaxScore, b.Color, b.Action)
		}
		return nil
	},
}

var bandAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a score band and rescore all customers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		b, err := bandFromFlags(cmd)
		if err != nil {
			return err
		}
		created, err := svc.AddBand(ctx, b)
		if err != nil {
			return err
		}
		fmt.Printf("Added band %s (%s, color %s)\n", created.Name, created.ID, created.Color)
		return nil
	},
}

var bandUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a score band and rescore all customers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		bands, err := st.ListBands(ctx)
		if err != nil {
			return err
		}
		var current *model.ScoreBand
		for i := range bands {
			if bands[i].ID == args[0] {
				current = &bands[i]
				break
			}
		}
		if current == nil {
			return eris.Errorf("band not found: %s", args[0])
		}

		f := cmd.Flags()
		if f.Changed("name") {
			current.Name, _ = f.GetString("name")
		}
		if f.Changed("min") {
			current.MinScore, _ = f.GetFloat64("min")
		}
		if f.Changed("max") {
			current.MaxScore, _ = f.GetFloat64("max")
		}
		if f.Changed("action") {
			current.Action, _ = f.GetString("action")
		}

		if err := svc.UpdateBand(ctx, *current); err != nil {
			return err
		}
		fmt.Printf("Updated band %s\n", current.ID)
		return nil
	},
}

var bandDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a score band and rescore all customers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := svc.DeleteBand(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted band %s\n", args[0])
		return nil
	},
}

func bandFromFlags(cmd *cobra.Command) (model.ScoreBand, error) {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return model.ScoreBand{}, eris.New("band: --name is required")
	}
	minScore, _ := cmd.Flags().GetFloat64("min")
	maxScore, _ := cmd.Flags().GetFloat64("max")
	action, _ := cmd.Flags().GetString("action")

	return model.ScoreBand{
		Name:     name,
		MinScore: minScore,
		MaxScore: maxScore,
		Action:   action,
	}, nil
}

func addBandFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "band name (also drives the display color)")
	f.Float64("min", 0, "minimum score, inclusive")
	f.Float64("max", 0, "maximum score, inclusive")
	f.String("action", "", "recommended action for customers in this band")
}

func init() {
	addBandFlags(bandAddCmd)
	addBandFlags(bandUpdateCmd)
	bandCmd.AddCommand(bandListCmd, bandAddCmd, bandUpdateCmd, bandDeleteCmd)
	rootCmd.AddCommand(bandCmd)
}
