// cmd/subsidyctl/registry.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subsidy-recommender/pkg/registry"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the activity registry",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TASK TYPE\tVERSION\tSTATUS\tTIMEOUT\tRETRIES")
		for _, a := range reg.Activities {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Version, a.ImplementationStatus, a.Timeout, a.Retries)
		}
		return tw.Flush()
	},
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check ids, task types, statuses, timeouts and input schemas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <id> <field> <value>",
	Short: "Set status, version, displayName, description, timeout or retries of an activity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if registryPath == "" {
			return fmt.Errorf("--path is required for update; the embedded registry is read-only")
		}
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Update(args[0], args[1], args[2]); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", args[0], args[1], args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file (defaults to the embedded registry)")
	registryCmd.AddCommand(registryListCmd, registryValidateCmd, registryUpdateCmd)
}

func openRegistry() (*registry.ActivityRegistry, error) {
	if registryPath == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(registryPath)
}
