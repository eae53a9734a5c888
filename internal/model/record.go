package model

// ScrapeError is the persisted form of a per-source scan failure.
type ScrapeError struct {
	SourceName    string `json:"company_name"`
	SourcePageURL string `json:"jobs_page"`
	Message       string `json:"message"`
	IsNewThisRun  bool   `json:"is_new_this_run"`
}

// RunRecord is the state carried between runs. SeenIDs only ever grows;
// Errors is replaced wholesale by each run.
type RunRecord struct {
	SeenIDs map[string][]string `json:"existing_jobs"`
	Errors  []ScrapeError       `json:"errors"`
}

// NewRunRecord returns an empty record.
func NewRunRecord() *RunRecord {
	return &RunRecord{
		SeenIDs: make(map[string][]string),
		Errors:  []ScrapeError{},
	}
}

// HasNewError reports whether any error was not present in the previous run.
func (r *RunRecord) HasNewError() bool {
	for _, e := range r.Errors {
		if e.IsNewThisRun {
			return true
		}
	}
	return false
}

// ErrorSourceNames returns the set of source names that have an error recorded.
func (r *RunRecord) ErrorSourceNames() map[string]bool {
	names := make(map[string]bool, len(r.Errors))
	for _, e := range r.Errors {
		names[e.SourceName] = true
	}
	return names
}

// SeenCount returns the total number of seen ids across all sources.
func (r *RunRecord) SeenCount() int {
	n := 0
	for _, ids := range r.SeenIDs {
		n += len(ids)
	}
	return n
}
