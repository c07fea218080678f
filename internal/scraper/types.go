package scraper

import (
	"fmt"
	"time"
)

// NotAvailable is the sentinel assigned to any field that could not be
// extracted. A field left at this value is not an error.
const NotAvailable = "N/A"

// Batch status values reported to API clients.
const (
	StatusSuccess             = "success"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Record holds the fields extracted for a single identifier.
type Record struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// DefaultRecord returns a record with every field at the sentinel default.
func DefaultRecord(identifier string) Record {
	return Record{
		Identifier: identifier,
		Name:       NotAvailable,
		Phone:      NotAvailable,
		Email:      NotAvailable,
	}
}

// Outcome is the result of one batch run. Records are ordered to match the
// input identifier list; Errors holds one message per failed identifier.
type Outcome struct {
	Records        []Record `json:"results"`
	Errors         []string `json:"errors"`
	TotalProcessed int      `json:"total_processed"`
}

// NewOutcome returns an empty outcome with non-nil slices so that JSON
// encoding produces [] instead of null.
func NewOutcome() *Outcome {
	return &Outcome{
		Records: []Record{},
		Errors:  []string{},
	}
}

func (o *Outcome) add(record Record) {
	o.Records = append(o.Records, record)
	o.TotalProcessed++
}

func (o *Outcome) addFailed(identifier, message string) {
	o.Errors = append(o.Errors, message)
	o.add(DefaultRecord(identifier))
}

// Status reports whether every identifier was processed cleanly.
func (o *Outcome) Status() string {
	if len(o.Errors) == 0 {
		return StatusSuccess
	}
	return StatusCompletedWithErrors
}

// Message returns a human-readable summary matching Status.
func (o *Outcome) Message() string {
	if len(o.Errors) == 0 {
		return "Lookup completed."
	}
	return "Lookup completed with some errors. Check 'errors' list."
}

// Options contains configuration for browser sessions and extraction.
type Options struct {
	// Headless controls whether Chrome runs without a visible window.
	Headless bool
	// Timeout bounds every explicit wait for a page element.
	Timeout time.Duration
	// SettleDelay is the pause after scrolling the details panel into
	// view, tolerating render latency of its lazy content. Zero disables
	// the pause.
	SettleDelay time.Duration
	// DismissTimeout bounds the best-effort click on the panel's close
	// control.
	DismissTimeout time.Duration
	// PaceInterval is the minimum gap between consecutive lookups against
	// the target site. Zero disables pacing.
	PaceInterval time.Duration
	// UserAgent to present to the target site.
	UserAgent string
	// Viewport dimensions for the browser window.
	ViewportWidth  int64
	ViewportHeight int64
}

// DefaultOptions returns the defaults used when no configuration is given.
func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        20 * time.Second,
		SettleDelay:    500 * time.Millisecond,
		DismissTimeout: 5 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// ScrapeError describes a fault while processing one identifier.
type ScrapeError struct {
	Identifier string
	Step       string
	// SessionDead indicates the browser session itself is no longer
	// usable and the batch cannot continue.
	SessionDead bool
	Err         error
}

func (e *ScrapeError) Error() string {
	if e.SessionDead {
		return fmt.Sprintf("%s for %s: %v (browser session lost)", e.Step, e.Identifier, e.Err)
	}
	return fmt.Sprintf("%s for %s: %v", e.Step, e.Identifier, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}
