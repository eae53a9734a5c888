package model

import "time"

// Source is one careers page (or group of pages) to scan.
type Source struct {
	Name          string
	Active        bool
	PageURL       string
	ReaderName    string
	Reader        Reader
	LoadDelay     time.Duration // zero means use the run default
	SettleDelay   time.Duration // zero means use the run default
	NoJobsPhrase  string
	RelevantTerms []string

	// Pages is set for aggregator-style sources that list postings across
	// several pages; PageReaders is keyed by ScrapePage.Kind.
	Pages       []ScrapePage
	PageReaders map[string]Reader

	Metadata SourceMetadata
}

// ScrapePage is one page of a multi-page source.
type ScrapePage struct {
	Kind string
	URL  string
}

// IsMultiPage reports whether the source is scanned page by page.
func (s Source) IsMultiPage() bool {
	return len(s.Pages) > 0
}

// DisplayURL is the URL shown in reports and recorded on errors.
func (s Source) DisplayURL() string {
	if s.PageURL != "" || len(s.Pages) == 0 {
		return s.PageURL
	}
	return s.Pages[0].URL
}

// SourceMetadata is informational and never read by the scan pipeline.
type SourceMetadata struct {
	Location           string
	Tags               []string
	Notes              string
	CareersLandingPage string
	What               string
	Referral           string
	ApplicationHistory string
}
