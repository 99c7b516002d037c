package ai

import (
	"context"
	"strings"

	"github.com/spigell/job-radar/internal/posting"
)

// Generator sends one instruction and prompt pair to a language model and
// returns its free-text answer.
type Generator interface {
	GenerateContent(ctx context.Context, instruction, prompt string) (string, error)
	Provider() string
	Model() string
}

// Verdict is the oracle's assessment of one posting.
type Verdict struct {
	Posting        *posting.Posting `json:"posting"`
	Score          int              `json:"score"`
	Recommendation string           `json:"recommendation,omitempty"`
	// Raw is the response block the verdict was parsed from.
	Raw string `json:"raw"`
}

// Verdicts is an ordered list of verdicts.
type Verdicts struct {
	Items []*Verdict
}

func (v *Verdicts) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Retain keeps the verdicts keep returns true for and returns the dropped ones.
func (v *Verdicts) Retain(keep func(*Verdict) bool) []*Verdict {
	var dropped []*Verdict
	kept := v.Items[:0:0]
	for _, item := range v.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item)
	}
	v.Items = kept
	return dropped
}

// Postings returns the postings the verdicts refer to.
func (v *Verdicts) Postings() []*posting.Posting {
	out := make([]*posting.Posting, 0, v.Len())
	for _, item := range v.Items {
		out = append(out, item.Posting)
	}
	return out
}

// Summary joins the raw blocks of every verdict with blank lines.
func (v *Verdicts) Summary() string {
	blocks := make([]string, 0, v.Len())
	for _, item := range v.Items {
		blocks = append(blocks, strings.TrimSpace(item.Raw))
	}
	return strings.Join(blocks, "\n\n")
}
