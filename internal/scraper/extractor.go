package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Extractor performs the fixed interaction sequence for one identifier
// against an open session.
type Extractor struct {
	page    Page
	options *Options
}

// NewExtractor creates an extractor bound to a page adapter.
func NewExtractor(page Page, options *Options) *Extractor {
	if options == nil {
		options = DefaultOptions()
	}
	return &Extractor{page: page, options: options}
}

// Lookup navigates to pageURL, submits the identifier through the search
// form and reads the carrier fields from the details panel. Every field
// defaults to NotAvailable independently; a search with no match and a
// match with missing fields are both valid non-error outcomes. Only
// transport or session faults produce an error.
func (e *Extractor) Lookup(sess *Session, pageURL, identifier string) (Record, error) {
	record := DefaultRecord(identifier)

	if err := e.submitSearch(sess, pageURL, identifier); err != nil {
		return record, e.fault(sess, identifier, "search submit failed", err)
	}

	found, err := e.awaitResults(sess)
	if err != nil {
		return record, e.fault(sess, identifier, "results wait failed", err)
	}
	if !found {
		// No match within the timeout: all-default record, no error.
		return record, nil
	}

	panelHTML, opened, err := e.openDetails(sess)
	if err != nil {
		return record, e.fault(sess, identifier, "details panel failed", err)
	}
	if !opened {
		// Details never rendered for this match: all-default record,
		// no error, same as a search with no results.
		return record, nil
	}

	e.readFields(panelHTML, &record)
	e.dismissDetails(sess)

	return record, nil
}

// submitSearch loads the page, selects the fixed radio option, fills the
// search input and submits the form.
func (e *Extractor) submitSearch(sess *Session, pageURL, identifier string) error {
	ctx, cancel := context.WithTimeout(sess.Context(), e.options.Timeout)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(e.page.RadioOption, chromedp.ByQuery),
		chromedp.Click(e.page.RadioOption, chromedp.ByQuery),
		chromedp.WaitVisible(e.page.SearchInput, chromedp.ByQuery),
		chromedp.Clear(e.page.SearchInput, chromedp.ByQuery),
		chromedp.SendKeys(e.page.SearchInput, identifier, chromedp.ByQuery),
		chromedp.Click(e.page.SubmitButton, chromedp.ByQuery),
	)
}

// awaitResults waits for the results link. A timeout with a live session
// means the identifier has no match; any other failure escalates.
func (e *Extractor) awaitResults(sess *Session) (bool, error) {
	ctx, cancel := context.WithTimeout(sess.Context(), e.options.Timeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitVisible(e.page.ResultLink, chromedp.ByQuery))
	if err != nil {
		if elementAbsent(err, sess) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// openDetails follows the results link, opens the details panel, scrolls
// its lazy content into view and returns the panel HTML. A timeout with a
// live session means the details flow never rendered; like a no-match
// search, that is a valid non-error outcome, not a fault.
func (e *Extractor) openDetails(sess *Session) (string, bool, error) {
	ctx, cancel := context.WithTimeout(sess.Context(), e.options.Timeout)
	defer cancel()

	tasks := chromedp.Tasks{
		chromedp.Click(e.page.ResultLink, chromedp.ByQuery),
		chromedp.WaitVisible(e.page.DetailsLink, chromedp.ByQuery),
		chromedp.Click(e.page.DetailsLink, chromedp.ByQuery),
		chromedp.WaitVisible(e.page.DetailsPanel, chromedp.ByQuery),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil),
	}
	if e.options.SettleDelay > 0 {
		// The panel renders some content only after it scrolls into
		// view and exposes no ready signal to wait on.
		tasks = append(tasks, chromedp.Sleep(e.options.SettleDelay))
	}

	var panelHTML string
	tasks = append(tasks, chromedp.OuterHTML(e.page.DetailsPanel, &panelHTML, chromedp.ByQuery))

	if err := chromedp.Run(ctx, tasks); err != nil {
		if elementAbsent(err, sess) {
			return "", false, nil
		}
		return "", false, err
	}
	return panelHTML, true, nil
}

// elementAbsent classifies a wait failure: an expired element wait on a
// session that is still alive means the element never appeared on the
// page. Anything else is a transport or session fault.
func elementAbsent(err error, sess *Session) bool {
	return errors.Is(err, context.DeadlineExceeded) && sess.Alive()
}

// readFields reads the three carrier fields from the panel HTML by their
// positional selectors. A missing or empty field stays at its default.
func (e *Extractor) readFields(panelHTML string, record *Record) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(panelHTML))
	if err != nil {
		return
	}

	if name := fieldText(doc, e.page.NameField); name != "" {
		record.Name = name
	}
	if phone := fieldText(doc, e.page.PhoneField); phone != "" {
		record.Phone = phone
	}
	if email := fieldText(doc, e.page.EmailField); email != "" {
		record.Email = email
	}
}

// dismissDetails tries to close the details panel. Some page revisions
// have no close control; its absence is tolerated.
func (e *Extractor) dismissDetails(sess *Session) {
	ctx, cancel := context.WithTimeout(sess.Context(), e.options.DismissTimeout)
	defer cancel()

	_ = chromedp.Run(ctx, chromedp.Click(e.page.CloseControl, chromedp.ByQuery))
}

// fault wraps an extraction error, flagging whether the browser session
// itself died.
func (e *Extractor) fault(sess *Session, identifier, step string, err error) error {
	return &ScrapeError{
		Identifier:  identifier,
		Step:        step,
		SessionDead: !sess.Alive(),
		Err:         err,
	}
}

func fieldText(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}
