package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/ai"
)

const DefaultThreshold = 80

// Select returns the verdicts scoring at least threshold, keeping their order.
func Select(verdicts []*ai.Verdict, threshold int) []*ai.Verdict {
	selected := make([]*ai.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Score >= threshold {
			selected = append(selected, v)
		}
	}
	return selected
}

type minimumScoreFilter struct {
	disabled  bool
	reason    string
	threshold int
}

// NewMinimumScore creates the step that drops verdicts below the threshold.
func NewMinimumScore() Filter {
	return &minimumScoreFilter{threshold: DefaultThreshold}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minimumScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minimumScoreFilter) Validate(cfg *Config) error {
	f.threshold = DefaultThreshold
	if cfg != nil {
		f.threshold = cfg.Threshold
	}
	if f.threshold < 0 || f.threshold > 100 {
		return fmt.Errorf("threshold %d is outside 0..100", f.threshold)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, deps Deps, v *ai.Verdicts) (*ai.Verdicts, Step, error) {
	initial := v.Len()
	selected := &ai.Verdicts{Items: Select(v.Items, f.threshold)}

	if deps.Logger != nil {
		for _, item := range v.Items {
			if item.Score >= f.threshold {
				continue
			}
			deps.Logger.Debug("verdict below threshold",
				zap.String("link", item.Posting.Link),
				zap.Int("score", item.Score),
				zap.Int("threshold", f.threshold),
			)
		}
	}

	return selected, Step{Initial: initial, Dropped: initial - selected.Len(), Left: selected.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.Itoa(f.threshold)},
	}
}
