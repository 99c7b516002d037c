package headhunter

import "strings"

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Salary *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	Snippet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Summary joins both snippet parts. Search results carry no full description.
func (va *Vacancy) Summary() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{va.Snippet.Responsibility, va.Snippet.Requirement} {
		s = strings.TrimSpace(stripHighlight(s))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// stripHighlight removes the <highlighttext> markup the search puts around matched words.
func stripHighlight(s string) string {
	return strings.NewReplacer("<highlighttext>", "", "</highlighttext>", "").Replace(s)
}
