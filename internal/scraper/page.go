package scraper

// Page bundles every selector the extractor touches on the lookup site.
// The markup of the target page is outside our control; when it changes,
// this is the only place that needs updating.
type Page struct {
	// Search form controls.
	RadioOption  string
	SearchInput  string
	SubmitButton string

	// Results navigation.
	ResultLink   string
	DetailsLink  string
	DetailsPanel string

	// Field selectors, relative to the details panel.
	NameField  string
	PhoneField string
	EmailField string

	// Close control for the details panel; optional on some page
	// revisions.
	CloseControl string
}

// SnapshotPage returns the selectors for the FMCSA company snapshot page.
// The positional nth-child lookups mirror the page's table-based layout
// and are inherently brittle.
func SnapshotPage() Page {
	return Page{
		RadioOption:  `#\32`,
		SearchInput:  `#\34`,
		SubmitButton: `body > form > p > table > tbody > tr:nth-child(4) > td > input[type=SUBMIT]`,

		ResultLink:   `body > p > table > tbody > tr:nth-child(2) > td > table > tbody > tr:nth-child(2) > td > table:nth-child(1) > tbody > tr:nth-child(3) > td > table > tbody > tr:nth-child(2) > td > table > tbody > tr:nth-child(3) > td:nth-child(2) > font > a`,
		DetailsLink:  `#CarrierRegistration > a:nth-child(2)`,
		DetailsPanel: `#regBox`,

		NameField:  `ul.col1 > li:nth-child(1) > span`,
		PhoneField: `ul.col1 > li:nth-child(5) > span`,
		EmailField: `ul.col1 > li:nth-child(7) > span`,

		CloseControl: `#CarrierRegistration img[alt="Close"]`,
	}
}
