package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/ai"
)

// Filter represents a single filtering step applied to verdicts.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, v *ai.Verdicts) (*ai.Verdicts, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	Threshold         int
	ExcludedCompanies []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the standard filter chain.
func Default() []Filter {
	return []Filter{NewMinimumScore(), NewExcludedCompanies()}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
// It reports whether such a filter exists.
func DisableByName(steps []Filter, name, reason string) bool {
	found := false
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
			found = true
		}
	}
	return found
}

// Prepare validates every enabled filter against cfg.
func Prepare(cfg *Config, steps []Filter) error {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// Run executes the supplied filters sequentially and returns the verdicts left.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, v *ai.Verdicts) (*ai.Verdicts, error) {
	if err := Prepare(cfg, steps); err != nil {
		return nil, err
	}

	if v == nil {
		v = &ai.Verdicts{}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		v = next
	}

	return v, nil
}

// LogStatus writes one entry per filter with its state and settings.
func LogStatus(logger *zap.Logger, steps []Filter) {
	for _, st := range Describe(steps) {
		fields := []zap.Field{zap.String("name", st.Name), zap.Bool("enabled", st.Enabled)}
		if st.Reason != "" {
			fields = append(fields, zap.String("reason", st.Reason))
		}
		for k, v := range st.Details {
			fields = append(fields, zap.String(k, v))
		}
		logger.Info("filter", fields...)
	}
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
