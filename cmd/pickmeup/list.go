package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs with pending checkpoint state",
	Long: `List all run names that currently have a checkpoint record.

A record exists for any run that started but has not yet completed. Runs
that finished cleanly clear their record and do not appear here.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No pending runs.")
		return nil
	}

	for _, name := range names {
		record, err := store.Load(name)
		if err != nil {
			// Show corrupt records rather than hiding them
			fmt.Printf("%-30s  (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("%-30s  %4d remaining  updated %s\n",
			name, len(record.Remaining), record.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
