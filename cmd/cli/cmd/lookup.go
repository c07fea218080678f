package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cliapi "carrier-lookup/internal/cli"
)

var (
	lookupFile string
	lookupURL  string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [identifier...]",
	Short: "Run a lookup batch",
	Long: `Run a carrier record lookup for one or more identifiers. Identifiers
are passed as arguments, or read from a file with --file (one per line;
malformed lines are skipped). Batches run sequentially on the server and
can take a while for long identifier lists.`,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupFile, "file", "F", "", "Read identifiers from a file instead of arguments")
	lookupCmd.Flags().StringVarP(&lookupURL, "url", "u", "", "Override the lookup page URL")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	config, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	if lookupFile == "" && len(args) == 0 {
		return fmt.Errorf("provide identifiers as arguments or use --file")
	}
	if lookupFile != "" && len(args) > 0 {
		return fmt.Errorf("use either identifier arguments or --file, not both")
	}

	if !config.Quiet {
		formatter.PrintInfo("Running lookup batch...")
	}

	var result *cliapi.LookupResult
	if lookupFile != "" {
		result, err = client.CreateLookupFromFile(lookupURL, lookupFile)
	} else {
		result, err = client.CreateLookup(lookupURL, args)
	}
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintLookupResult(result)
}
