package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/healthscore/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full application state as a document",
	Long: `Export the catalogs, customer records, submissions, and mapping profiles
as one document. The JSON format round-trips with the browser edition's
backup files; restore reads the same document back.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.Export(ctx)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		var data []byte
		switch format {
		case "json":
			data, err = json.MarshalIndent(doc, "", "  ")
		case "yaml":
			data, err = yaml.Marshal(doc)
		default:
			return eris.Errorf("export: --format must be json or yaml (got %q)", format)
		}
		if err != nil {
			return eris.Wrap(err, "export: marshal document")
		}

		if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return eris.Wrapf(err, "export: write %s", outputPath)
			}
			fmt.Printf("Exported to %s\n", outputPath)
			return nil
		}
		fmt.Println(string(data))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the application state with an exported document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "restore: read %s", args[0])
		}
		var doc model.AppData
		if err := json.Unmarshal(data, &doc); err != nil {
			return eris.Wrapf(err, "restore: parse %s", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Import(ctx, &doc); err != nil {
			return err
		}
		fmt.Printf("Restored %d metrics, %d bands, %d customers\n",
			len(doc.Metrics), len(doc.ScoreGroups), len(doc.Merchants))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all application data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if force, _ := cmd.Flags().GetBool("force"); !force {
			fmt.Print("This deletes all catalogs and customer records. Type 'yes' to continue: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("All data cleared. Defaults are reseeded on next run.")
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "output format: json or yaml")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
	clearCmd.Flags().Bool("force", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportCmd, restoreCmd, clearCmd)
}
