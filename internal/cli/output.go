package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format string
	quiet  bool

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	infoStyle    lipgloss.Style
	warnStyle    lipgloss.Style
}

// NewOutputFormatter creates a new output formatter with color detection
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return NewOutputFormatterWithColor(format, quiet, false)
}

// NewOutputFormatterWithColor creates a formatter with explicit color control.
// Colors are dropped when noColor is set or stdout is not a terminal.
func NewOutputFormatterWithColor(format string, quiet bool, noColor bool) *OutputFormatter {
	f := &OutputFormatter{
		format: format,
		quiet:  quiet,
	}

	useColor := !noColor && isatty.IsTerminal(os.Stdout.Fd())
	if useColor {
		f.successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		f.errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		f.infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
		f.warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	} else {
		plain := lipgloss.NewStyle()
		f.successStyle = plain
		f.errorStyle = plain
		f.infoStyle = plain
		f.warnStyle = plain
	}

	return f
}

// PrintLookupResult prints the outcome of a lookup batch
func (f *OutputFormatter) PrintLookupResult(result *LookupResult) error {
	if f.quiet {
		for _, record := range result.Results {
			fmt.Printf("%s\t%s\t%s\t%s\n", record.Identifier, record.Name, record.Phone, record.Email)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(result)
	case "table":
		return f.printLookupTable(result)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintBatches prints a list of batch summaries
func (f *OutputFormatter) PrintBatches(batches []Batch) error {
	if f.quiet {
		for _, batch := range batches {
			fmt.Printf("%d\n", batch.ID)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(batches)
	case "table":
		return f.printBatchesTable(batches)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintBatch prints a single batch with its records
func (f *OutputFormatter) PrintBatch(batch *Batch) error {
	if f.quiet {
		fmt.Printf("%d\n", batch.ID)
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(batch)
	case "table":
		return f.printBatchTable(batch)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Println(f.successStyle.Render("✓ " + message))
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintln(os.Stderr, f.errorStyle.Render(fmt.Sprintf("✗ Error: %v", err)))
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Println(f.infoStyle.Render("ℹ " + message))
	}
}

// PrintWarning prints a warning message
func (f *OutputFormatter) PrintWarning(message string) {
	if !f.quiet {
		fmt.Println(f.warnStyle.Render("! " + message))
	}
}

func (f *OutputFormatter) printLookupTable(result *LookupResult) error {
	if err := f.printRecordsTable(result.Results); err != nil {
		return err
	}

	fmt.Printf("\nStatus: %s (%d processed)\n", result.Status, result.TotalProcessed)
	if result.BatchID != 0 {
		fmt.Printf("Batch ID: %d\n", result.BatchID)
	}

	for _, line := range result.SkippedLines {
		f.PrintWarning(fmt.Sprintf("skipped malformed line: %s", line))
	}
	for _, msg := range result.Errors {
		f.PrintError(fmt.Errorf("%s", msg))
	}

	return nil
}

func (f *OutputFormatter) printRecordsTable(records []Record) error {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "IDENTIFIER\tNAME\tPHONE\tEMAIL")
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			record.Identifier,
			truncate(record.Name, 40),
			record.Phone,
			truncate(record.Email, 30))
	}

	return nil
}

func (f *OutputFormatter) printBatchesTable(batches []Batch) error {
	if len(batches) == 0 {
		fmt.Println("No batches found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tSTATUS\tPROCESSED\tCREATED")
	for _, batch := range batches {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			batch.ID,
			batch.Status,
			batch.TotalProcessed,
			batch.CreatedAt)
	}

	return nil
}

func (f *OutputFormatter) printBatchTable(batch *Batch) error {
	fmt.Printf("Batch ID: %d\n", batch.ID)
	fmt.Printf("Page URL: %s\n", batch.PageURL)
	fmt.Printf("Status: %s\n", batch.Status)
	fmt.Printf("Message: %s\n", batch.Message)
	fmt.Printf("Processed: %d\n", batch.TotalProcessed)
	fmt.Printf("Created: %s\n", batch.CreatedAt)
	fmt.Println()

	if err := f.printRecordsTable(batch.Records); err != nil {
		return err
	}
	for _, msg := range batch.Errors {
		f.PrintError(fmt.Errorf("%s", msg))
	}

	return nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
