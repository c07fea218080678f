package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeSession scripts per-identifier results without a real browser.
type fakeSession struct {
	lookups   []string
	failOn    map[string]error
	records   map[string]Record
	dieAfter  string // session reports dead after this identifier
	dead      bool
	closed    int
	lookupErr error
}

func (f *fakeSession) Lookup(pageURL, identifier string) (Record, error) {
	f.lookups = append(f.lookups, identifier)
	if err, ok := f.failOn[identifier]; ok {
		return DefaultRecord(identifier), err
	}
	if rec, ok := f.records[identifier]; ok {
		if f.dieAfter == identifier {
			f.dead = true
		}
		return rec, nil
	}
	if f.dieAfter == identifier {
		f.dead = true
	}
	return DefaultRecord(identifier), f.lookupErr
}

func (f *fakeSession) Alive() bool { return !f.dead }
func (f *fakeSession) Close()      { f.closed++ }

func newFakeRunner(sess *fakeSession, openErr error) *Runner {
	return &Runner{
		open: func(ctx context.Context) (batchSession, error) {
			if openErr != nil {
				return nil, openErr
			}
			return sess, nil
		},
	}
}

func TestRunPreservesOrderAndCount(t *testing.T) {
	sess := &fakeSession{
		records: map[string]Record{
			"100": {Identifier: "100", Name: "ACME HAULING", Phone: "(555) 111-2222", Email: "ops@acme.test"},
		},
	}
	runner := newFakeRunner(sess, nil)

	identifiers := []string{"100", "200", "100", "300"}
	outcome, err := runner.Run(context.Background(), "http://example.test", identifiers)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Records) != len(identifiers) {
		t.Fatalf("Expected %d records, got %d", len(identifiers), len(outcome.Records))
	}
	if outcome.TotalProcessed != len(identifiers) {
		t.Errorf("Expected %d processed, got %d", len(identifiers), outcome.TotalProcessed)
	}
	for i, identifier := range identifiers {
		if outcome.Records[i].Identifier != identifier {
			t.Errorf("Record %d: expected identifier %s, got %s", i, identifier, outcome.Records[i].Identifier)
		}
	}
	if outcome.Records[0].Name != "ACME HAULING" {
		t.Errorf("Expected extracted name, got %s", outcome.Records[0].Name)
	}
	if outcome.Status() != StatusSuccess {
		t.Errorf("Expected success status, got %s", outcome.Status())
	}
}

func TestRunFatalOpenFailure(t *testing.T) {
	runner := newFakeRunner(nil, errors.New("chrome binary not found"))

	outcome, err := runner.Run(context.Background(), "http://example.test", []string{"100", "200"})
	if err == nil {
		t.Fatal("Expected fatal error when session cannot be opened")
	}
	if outcome != nil {
		t.Errorf("Expected nil outcome on fatal failure, got %d records", len(outcome.Records))
	}
	if !strings.Contains(err.Error(), "chrome binary not found") {
		t.Errorf("Expected descriptive error, got: %v", err)
	}
}

func TestRunPerIdentifierFaultContinuesBatch(t *testing.T) {
	sess := &fakeSession{
		failOn: map[string]error{
			"200": &ScrapeError{Identifier: "200", Step: "results wait failed", Err: errors.New("net::ERR_CONNECTION_RESET")},
		},
		records: map[string]Record{
			"300": {Identifier: "300", Name: "LATE FREIGHT", Phone: NotAvailable, Email: NotAvailable},
		},
	}
	runner := newFakeRunner(sess, nil)

	outcome, err := runner.Run(context.Background(), "http://example.test", []string{"100", "200", "300"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Errors) != 1 {
		t.Fatalf("Expected exactly 1 error entry, got %d: %v", len(outcome.Errors), outcome.Errors)
	}
	if !strings.Contains(outcome.Errors[0], "200") {
		t.Errorf("Error entry should name the identifier: %s", outcome.Errors[0])
	}

	// The failed identifier still yields an all-default record.
	failed := outcome.Records[1]
	if failed.Name != NotAvailable || failed.Phone != NotAvailable || failed.Email != NotAvailable {
		t.Errorf("Expected all-default record for failed identifier, got %+v", failed)
	}

	// Subsequent identifiers were still processed.
	if outcome.Records[2].Name != "LATE FREIGHT" {
		t.Errorf("Expected identifier after failure to be processed, got %+v", outcome.Records[2])
	}
	if outcome.Status() != StatusCompletedWithErrors {
		t.Errorf("Expected completed_with_errors, got %s", outcome.Status())
	}
}

func TestRunDetailsUnavailableIsNotAnError(t *testing.T) {
	// A match whose details flow times out yields an all-default record
	// with no error, same as a search with no results.
	sess := &fakeSession{
		records: map[string]Record{
			"100": {Identifier: "100", Name: "ACME HAULING", Phone: NotAvailable, Email: NotAvailable},
			"200": DefaultRecord("200"),
		},
	}
	runner := newFakeRunner(sess, nil)

	outcome, err := runner.Run(context.Background(), "http://example.test", []string{"100", "200", "300"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Errors) != 0 {
		t.Fatalf("Expected no error entries, got %v", outcome.Errors)
	}
	if outcome.Status() != StatusSuccess {
		t.Errorf("Expected success status, got %s", outcome.Status())
	}
	for _, record := range outcome.Records[1:] {
		if record.Name != NotAvailable || record.Phone != NotAvailable || record.Email != NotAvailable {
			t.Errorf("Expected all-default record, got %+v", record)
		}
	}
}

func TestRunSessionDeathFillsRemaining(t *testing.T) {
	sess := &fakeSession{
		failOn: map[string]error{
			"200": &ScrapeError{Identifier: "200", Step: "search submit failed", SessionDead: true, Err: errors.New("context canceled")},
		},
	}
	runner := newFakeRunner(sess, nil)

	identifiers := []string{"100", "200", "300", "400"}
	outcome, err := runner.Run(context.Background(), "http://example.test", identifiers)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Records) != len(identifiers) {
		t.Fatalf("Every input must yield a record even after session death: got %d of %d",
			len(outcome.Records), len(identifiers))
	}
	// 200 failed, 300 and 400 were unreachable: three error entries.
	if len(outcome.Errors) != 3 {
		t.Fatalf("Expected 3 error entries, got %d: %v", len(outcome.Errors), outcome.Errors)
	}
	// The dead session must not be asked for further lookups.
	if len(sess.lookups) != 2 {
		t.Errorf("Expected 2 lookups before abort, got %d: %v", len(sess.lookups), sess.lookups)
	}
}

func TestRunClosesSessionExactlyOnce(t *testing.T) {
	for name, sess := range map[string]*fakeSession{
		"clean":   {},
		"failing": {lookupErr: fmt.Errorf("boom")},
	} {
		runner := newFakeRunner(sess, nil)
		if _, err := runner.Run(context.Background(), "http://example.test", []string{"100"}); err != nil {
			t.Fatalf("%s: Run failed: %v", name, err)
		}
		if sess.closed != 1 {
			t.Errorf("%s: expected session closed exactly once, got %d", name, sess.closed)
		}
	}
}

func TestOutcomeStatusAndMessage(t *testing.T) {
	clean := NewOutcome()
	clean.add(DefaultRecord("100"))
	if clean.Status() != StatusSuccess {
		t.Errorf("Expected success, got %s", clean.Status())
	}
	if clean.Message() != "Lookup completed." {
		t.Errorf("Unexpected message: %s", clean.Message())
	}

	dirty := NewOutcome()
	dirty.addFailed("200", "failed to process 200: boom")
	if dirty.Status() != StatusCompletedWithErrors {
		t.Errorf("Expected completed_with_errors, got %s", dirty.Status())
	}
	if dirty.TotalProcessed != 1 {
		t.Errorf("Failures still count as processed, got %d", dirty.TotalProcessed)
	}
}
