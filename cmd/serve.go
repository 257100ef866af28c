package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/healthscore/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serve the catalogs, customer records, and scoring operations over a REST
API. All mutating routes run the same recompute triggers as the CLI, so
scores stay consistent whichever surface edits the data.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		serverCfg := cfg.Server
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			serverCfg.Port = port
		}

		return server.New(svc, serverCfg).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
