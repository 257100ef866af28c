package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthscore/internal/importer"
	"github.com/sells-group/healthscore/internal/model"
	"github.com/sells-group/healthscore/internal/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved CSV mapping profiles",
	Long:  "Mapping profiles save column mappings and parse settings for a recurring CSV source, so repeat imports need no manual configuration.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mapping profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profiles, err := st.ListProfiles(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-20s %-15s %8s %-10s\n", "ID", "Name", "Source", "Mappings", "Last used")
		fmt.Println(strings.Repeat("-", 95))
		for _, p := range profiles {
			lastUsed := "never"
			if !p.LastUsed.IsZero() {
				lastUsed = p.LastUsed.Format("2006-01-02")
			}
			fmt.Printf("%-36s %-20s %-15s %8d %-10s\n", p.ID, p.Name, p.Source, len(p.FieldMappings), lastUsed)
		}
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a mapping profile, optionally detecting mappings from a file",
	Long: `Create a mapping profile. With --from-file, the file's header row is read
and column mappings are suggested by keyword heuristics (customer/client,
ticket/support, adoption/usage, gmv/revenue, sentiment/satisfaction).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return eris.New("profile: --name is required")
		}
		description, _ := cmd.Flags().GetString("description")
		source, _ := cmd.Flags().GetString("source")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		fromFile, _ := cmd.Flags().GetString("from-file")

		p := model.MappingProfile{
			ID:          uuid.New().String(),
			Name:        name,
			Description: description,
			Source:      source,
			CreatedAt:   time.Now(),
			Settings:    model.DefaultProfileSettings(),
		}
		if delimiter != "" {
			p.Settings.Delimiter = delimiter
		}

		if fromFile != "" {
			headers, err := readHeaderRow(fromFile, p.Settings.Delimiter)
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
			p.FieldMappings = importer.DetectMappings(headers, importer.Catalogs{Metrics: metrics, Fields: fields})
		}

		if err := st.SaveProfile(ctx, p); err != nil {
			return err
		}
		fmt.Printf("Created profile %s (%s) with %d mappings\n", p.Name, p.ID, len(p.FieldMappings))
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-name>",
	Short: "Delete a mapping profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := findProfile(ctx, st, args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteProfile(ctx, p.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted profile %s\n", p.Name)
		return nil
	},
}

// findProfile resolves a profile by ID or by case-insensitive name.
func findProfile(ctx context.Context, st store.Store, idOrName string) (*model.MappingProfile, error) {
	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == idOrName || strings.EqualFold(profiles[i].Name, idOrName) {
			return &profiles[i], nil
		}
	}
	return nil, eris.Wrapf(store.ErrNotFound, "profile %s", idOrName)
}

func readHeaderRow(path, delimiter string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	if delimiter != "" {
		r.Comma = rune(delimiter[0])
	}
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read header of %s", path)
	}
	return header, nil
}

func init() {
	f := profileCreateCmd.Flags()
	f.String("name", "", "profile name")
	f.String("description", "", "profile description")
	f.String("source", "", "source system the profile maps (e.g. Intercom)")
	f.String("delimiter", "", "CSV delimiter (default comma)")
	f.String("from-file", "", "detect column mappings from this file's header row")

	profileCmd.AddCommand(profileListCmd, profileCreateCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
