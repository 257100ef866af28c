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

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage custom fields",
	Long:  "Custom fields hold informational values per customer (industry, contract value). They never enter scoring.",
}

var fieldListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custom fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		fields, err := st.ListFields(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s %-20s %-8s %-9s %s\n", "ID", "Name", "Type", "Required", "Options")
		fmt.Println(strings.Repeat("-", 75))
		for _, f := range fields {
			fmt.Printf("%-10s %-20s %-8s %-9v %s\n", f.ID, f.Name, f.Type, f.Required, strings.Join(f.Options, ", "))
		}
		return nil
	},
}

var fieldAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom field",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return eris.New("field: --name is required")
		}
		fieldType, _ := cmd.Flags().GetString("type")
		required, _ := cmd.Flags().GetBool("required")
		options, _ := cmd.Flags().GetStringSlice("options")

		created, err := svc.AddField(ctx, model.CustomField{
			Name:     name,
			Type:     model.FieldType(fieldType),
			Required: required,
			Options:  options,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added field %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var fieldDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom field and its values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := svc.DeleteField(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted field %s\n", args[0])
		return nil
	},
}

func init() {
	f := fieldAddCmd.Flags()
	f.String("name", "", "field name")
	f.String("type", "text", "field type: text, number, date, or select")
	f.Bool("required", false, "mark the field required")
	f.StringSlice("options", nil, "allowed values for select fields")

	fieldCmd.AddCommand(fieldListCmd, fieldAddCmd, fieldDeleteCmd)
	rootCmd.AddCommand(fieldCmd)
}
