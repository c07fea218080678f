package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/time/rate"
)

// batchSession is the slice of a live session the runner needs. The
// chromedp-backed implementation is liveSession; tests substitute fakes.
type batchSession interface {
	Lookup(pageURL, identifier string) (Record, error)
	Alive() bool
	Close()
}

// liveSession binds an open browser session to an extractor.
type liveSession struct {
	sess      *Session
	extractor *Extractor
}

func (s *liveSession) Lookup(pageURL, identifier string) (Record, error) {
	return s.extractor.Lookup(s.sess, pageURL, identifier)
}

func (s *liveSession) Alive() bool { return s.sess.Alive() }
func (s *liveSession) Close()      { s.sess.Close() }

// Runner processes identifier batches: one session per batch, one
// identifier in flight at a time.
type Runner struct {
	open    func(ctx context.Context) (batchSession, error)
	limiter *rate.Limiter
}

// NewRunner creates a batch runner over the given session manager and
// extractor. When options enable pacing, consecutive lookups are spaced by
// at least PaceInterval.
func NewRunner(manager *Manager, extractor *Extractor, options *Options) *Runner {
	if options == nil {
		options = DefaultOptions()
	}

	r := &Runner{
		open: func(ctx context.Context) (batchSession, error) {
			sess, err := manager.Open(ctx)
			if err != nil {
				return nil, err
			}
			return &liveSession{sess: sess, extractor: extractor}, nil
		},
	}
	if options.PaceInterval > 0 {
		r.limiter = rate.NewLimiter(rate.Every(options.PaceInterval), 1)
	}
	return r
}

// Run processes identifiers in order against pageURL. The session is
// opened once and closed exactly once, whatever happens in between. A
// fatal session-open failure returns a nil outcome; after that point every
// input identifier yields exactly one record, defaulted on failure, and
// per-identifier faults never abort the batch. Only a dead session stops
// extraction, and even then the remaining identifiers get default records
// plus error entries so output order and count always match the input.
func (r *Runner) Run(ctx context.Context, pageURL string, identifiers []string) (*Outcome, error) {
	sess, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer sess.Close()

	outcome := NewOutcome()
	for i, identifier := range identifiers {
		if !sess.Alive() {
			r.failRemaining(outcome, identifiers[i:], "browser session no longer usable")
			break
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.failRemaining(outcome, identifiers[i:], fmt.Sprintf("batch canceled: %v", err))
				break
			}
		}

		record, err := sess.Lookup(pageURL, identifier)
		if err != nil {
			log.Printf("WARN: lookup failed for %s: %v", identifier, err)
			outcome.addFailed(identifier, fmt.Sprintf("failed to process %s: %v", identifier, err))

			var scrapeErr *ScrapeError
			if errors.As(err, &scrapeErr) && scrapeErr.SessionDead {
				r.failRemaining(outcome, identifiers[i+1:], "browser session no longer usable")
				break
			}
			continue
		}

		outcome.add(record)
	}

	return outcome, nil
}

// failRemaining records a default result plus an error entry for every
// identifier the batch could not reach.
func (r *Runner) failRemaining(outcome *Outcome, identifiers []string, reason string) {
	for _, identifier := range identifiers {
		outcome.addFailed(identifier, fmt.Sprintf("failed to process %s: %s", identifier, reason))
	}
}
