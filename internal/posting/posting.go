package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	// UnknownLocation replaces a missing location.
	UnknownLocation = "unknown"
	// NoDescription replaces a missing description.
	NoDescription = "N/A"
)

// Posting is the canonical job listing shared by every stage after aggregation.
type Posting struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Sources     []string `json:"sources"`
}

// HasDescription reports whether the description carries real content.
func (p *Posting) HasDescription() bool {
	return !isTrivialDescription(p.Description)
}

// HasLocation reports whether the location is known.
func (p *Posting) HasLocation() bool {
	return !strings.EqualFold(strings.TrimSpace(p.Location), UnknownLocation)
}

func (p *Posting) clone() *Posting {
	c := *p
	c.Sources = append([]string(nil), p.Sources...)
	return &c
}

// Postings is an ordered list of postings.
type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// Links returns the links of all postings in order.
func (p *Postings) Links() []string {
	links := make([]string, 0, p.Len())
	for _, item := range p.Items {
		links = append(links, item.Link)
	}
	return links
}

// ReportBySource groups posting titles by every source that contributed them.
func (p *Postings) ReportBySource() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range p.Items {
		for _, source := range item.Sources {
			report[source] = append(report[source], map[string]string{
				"title":    item.Title,
				"company":  item.Company,
				"location": item.Location,
				"link":     item.Link,
			})
		}
	}
	return report
}

// DumpToTmpFile writes v as indented JSON into a new temporary file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", file.Name(), err)
	}
	return file.Name(), nil
}

func isTrivialDescription(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, NoDescription)
}

func mergeSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok || s == "" {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
