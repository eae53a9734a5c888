package config

import (
	"fmt"

	"github.com/jo-room/job-scrape/internal/model"
	"github.com/jo-room/job-scrape/internal/reader"
)

// BuildSources resolves each configured source's reader through reg. An
// unknown reader name or invalid reader options fail the whole build. A
// source with no reader is kept; scanning reports it as not implemented.
func BuildSources(cfg *Config, reg *reader.Registry) ([]model.Source, error) {
	sources := make([]model.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src := model.Source{
			Name:          sc.Name,
			Active:        sc.Active,
			PageURL:       sc.PageURL,
			ReaderName:    sc.Reader,
			LoadDelay:     sc.LoadDelay,
			SettleDelay:   sc.SettleDelay,
			NoJobsPhrase:  sc.NoJobsPhrase,
			RelevantTerms: sc.RelevantTerms,
			Metadata: model.SourceMetadata{
				Location:           sc.Location,
				Tags:               sc.Tags,
				Notes:              sc.Notes,
				CareersLandingPage: sc.CareersLandingPage,
				What:               sc.What,
				Referral:           sc.Referral,
				ApplicationHistory: sc.ApplicationHistory,
			},
		}

		if sc.Reader != "" {
			rd, err := reg.Build(sc.Reader, sc.ReaderOptions)
			if err != nil {
				return nil, fmt.Errorf("source %q: %w", sc.Name, err)
			}
			src.Reader = rd
		}

		if len(sc.Pages) > 0 {
			src.Pages = make([]model.ScrapePage, len(sc.Pages))
			for i, p := range sc.Pages {
				src.Pages[i] = model.ScrapePage{Kind: p.Kind, URL: p.URL}
			}
			src.PageReaders = make(map[string]model.Reader, len(sc.PageReaders))
			for kind, pr := range sc.PageReaders {
				rd, err := reg.Build(pr.Reader, pr.Options)
				if err != nil {
					return nil, fmt.Errorf("source %q page kind %q: %w", sc.Name, kind, err)
				}
				src.PageReaders[kind] = rd
			}
		}

		sources = append(sources, src)
	}
	return sources, nil
}
