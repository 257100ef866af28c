package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute all customer scores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := svc.RecomputeAll(ctx); err != nil {
			return err
		}
		sum, err := svc.Summarize(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Recomputed %d customers\n", sum.Customers)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show portfolio-level score aggregates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := svc.Summarize(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Customers:     %d\n", sum.Customers)
		fmt.Printf("Average score: %.1f\n", sum.AverageScore)
		for status, n := range sum.ByStatus {
			fmt.Printf("  %-10s %d\n", status, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd, summaryCmd)
}
