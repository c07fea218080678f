package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var batchesCmd = &cobra.Command{
	Use:     "batches [batch-id]",
	Aliases: []string{"history"},
	Short:   "Browse lookup batch history",
	Long: `List persisted lookup batches, or show one batch with its records
and errors by passing its ID.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatches,
}

func init() {
	rootCmd.AddCommand(batchesCmd)
}

func runBatches(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		batches, err := client.GetBatches()
		if err != nil {
			formatter.PrintError(err)
			return err
		}
		return formatter.PrintBatches(batches)
	}

	id, err := parseBatchID(args[0])
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	batch, err := client.GetBatch(id)
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintBatch(batch)
}

// parseBatchID validates that the argument is a positive integer ID
func parseBatchID(arg string) (int, error) {
	if strings.TrimSpace(arg) == "" {
		return 0, fmt.Errorf("batch ID cannot be empty")
	}

	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid batch ID '%s': must be a positive integer", arg)
	}

	return id, nil
}
