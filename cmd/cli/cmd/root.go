package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	cliapi "carrier-lookup/internal/cli"
)

var (
	serverURL string
	format    string
	quiet     bool
	noColor   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "carrier-lookup",
	Short: "CLI client for the carrier lookup API",
	Long: `Carrier Lookup CLI runs carrier record lookups against the lookup
server and browses persisted batch history. Lookups can take identifiers
directly as arguments or from a file, one identifier per line.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	fang.Execute(context.Background(), rootCmd)
}

func init() {
	// Global flags. server and format default to empty so that, unset,
	// the config file and CARRIER_LOOKUP_* environment variables still
	// apply; only an explicitly passed flag overrides them.
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "API server address (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Output format: table or json (default table)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (minimal output)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
}

// initializeClient sets up configuration, formatter, and API client
func initializeClient() (*cliapi.Config, *cliapi.OutputFormatter, *cliapi.Client, error) {
	config, err := cliapi.LoadConfig(serverURL, format, quiet)
	if err != nil {
		return nil, nil, nil, err
	}

	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}

	formatter := cliapi.NewOutputFormatterWithColor(config.Format, config.Quiet, noColor)
	client := cliapi.NewClientWithTimeout(config.ServerURL, config.RequestTimeout)

	return config, formatter, client, nil
}
