package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeUserCmd = &cobra.Command{
	Use:   "purge-user <user-id>",
	Short: "Delete a user and everything they own",
	Long: `Delete a user account together with its todos, categories, settings
and refresh token. This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurgeUser,
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Print a user's todo statistics as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(purgeUserCmd)
	rootCmd.AddCommand(statsCmd)
}

func runPurgeUser(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.services.Users.DeleteAccount(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("purge user %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", args[0])
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.services.Todos.Stats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("stats for %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
