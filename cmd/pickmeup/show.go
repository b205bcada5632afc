package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showPreview int

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details of a pending run",
	Long: `Show the checkpoint record for one run: how many elements remain,
when it was last updated, and a preview of the next elements to be
processed.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showPreview, "preview", 5, "number of remaining elements to preview")
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	record, err := store.Load(name)
	if err != nil {
		return err
	}
	if record == nil {
		fmt.Printf("No pending state for run %q.\n", name)
		return nil
	}

	fmt.Printf("Run:       %s\n", record.Name)
	fmt.Printf("Remaining: %d elements\n", len(record.Remaining))
	fmt.Printf("Updated:   %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("File:      %s\n", store.Path(name))

	if showPreview > 0 && len(record.Remaining) > 0 {
		fmt.Println("\nNext elements:")
		for i, raw := range record.Remaining {
			if i >= showPreview {
				fmt.Printf("  ... and %d more\n", len(record.Remaining)-i)
				break
			}
			fmt.Printf("  %d. %s\n", i+1, string(raw))
		}
	}
	return nil
}
