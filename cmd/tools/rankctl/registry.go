// cmd/tools/rankctl/registry.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ranking-workers/pkg/registry"
)

func registryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and edit the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "registry file (default: embedded registry)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadOrDefault(path)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tID\tVERSION\tTIMEOUT\tRETRIES\tSTATUS")
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", a.TaskType, a.ID, a.Version, a.Timeout, a.Retries, a.ImplementationStatus)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the registry for structural problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadOrDefault(path)
			if err != nil {
				return err
			}
			if problems := reg.Check(); len(problems) > 0 {
				return fmt.Errorf("registry validation failed:\n  %s", strings.Join(problems, "\n  "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	})

	var field, value string
	update := &cobra.Command{
		Use:   "update <task-type>",
		Short: "Update one field of an activity in a registry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required for update")
			}
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			activity, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("activity with task type %s not found", args[0])
			}
			if err := setField(activity, field, value); err != nil {
				return err
			}
			reg.LastUpdated = time.Now().Format("2006-01-02")
			if err := saveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", args[0], field, value)
			return nil
		},
	}
	update.Flags().StringVar(&field, "field", "", "field to update (status, version, timeout, retries, displayName, description)")
	update.Flags().StringVar(&value, "value", "", "new value")
	_ = update.MarkFlagRequired("field")
	_ = update.MarkFlagRequired("value")
	cmd.AddCommand(update)

	return cmd
}

func setField(a *registry.Activity, field, value string) error {
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
