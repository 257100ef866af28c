package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/healthscore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "healthscore",
	Short: "Customer health scoring over weighted metrics",
	Long:  "Maintains metric, score-band, and custom-field catalogs, imports customer data from CSV/XLSX, and computes weighted composite health scores with status and recommended action per customer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
