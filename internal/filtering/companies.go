package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/ai"
)

type excludedCompaniesFilter struct {
	disabled  bool
	reason    string
	companies map[string]struct{}
	names     []string
}

// NewExcludedCompanies creates a filter that removes verdicts for companies configured in the config.
func NewExcludedCompanies() Filter {
	return &excludedCompaniesFilter{}
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludedCompaniesFilter) IsEnabled() bool { return !f.disabled }

func (f *excludedCompaniesFilter) Validate(cfg *Config) error {
	f.companies = make(map[string]struct{})
	f.names = nil
	if cfg == nil {
		return nil
	}
	for _, name := range cfg.ExcludedCompanies {
		key := companyKey(name)
		if key == "" {
			continue
		}
		f.companies[key] = struct{}{}
		f.names = append(f.names, strings.TrimSpace(name))
	}
	return nil
}

func (f *excludedCompaniesFilter) Apply(_ context.Context, deps Deps, v *ai.Verdicts) (*ai.Verdicts, Step, error) {
	initial := v.Len()
	if len(f.companies) == 0 {
		return v, Step{Initial: initial, Left: initial}, nil
	}

	kept := &ai.Verdicts{Items: append([]*ai.Verdict(nil), v.Items...)}
	dropped := kept.Retain(func(item *ai.Verdict) bool {
		_, excluded := f.companies[companyKey(item.Posting.Company)]
		return !excluded
	})

	if deps.Logger != nil && len(dropped) > 0 {
		links := make([]string, 0, len(dropped))
		for _, item := range dropped {
			links = append(links, item.Posting.Link)
		}
		deps.Logger.Info("excluding postings by company",
			zap.Strings("excluded_companies", f.names),
			zap.Strings("excluded_postings", links),
			zap.Int("postings_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: kept.Len()}, nil
}

func (f *excludedCompaniesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func companyKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
