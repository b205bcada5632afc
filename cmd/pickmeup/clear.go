package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearAll bool

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear [name]",
	Short: "Discard a pending run's checkpoint state",
	Long: `Discard the checkpoint record for a run. The next start of that run
begins fresh from its full source.

Use --all to discard every pending record in the state directory.`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "discard all pending records")
}

func runClear(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if clearAll {
		if len(args) != 0 {
			return fmt.Errorf("cannot combine --all with a run name")
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := store.Clear(name); err != nil {
				return err
			}
			fmt.Printf("Cleared %q.\n", name)
		}
		if len(names) == 0 {
			fmt.Println("No pending runs.")
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("expected a run name or --all")
	}

	name := args[0]
	if !store.Exists(name) {
		fmt.Printf("No pending state for run %q.\n", name)
		return nil
	}
	if err := store.Clear(name); err != nil {
		return err
	}
	fmt.Printf("Cleared %q.\n", name)
	return nil
}
