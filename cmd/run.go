package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/aggregator"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/scoring"
	"github.com/spigell/job-radar/internal/config"
	"github.com/spigell/job-radar/internal/dispatch"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/pipeline"
	"github.com/spigell/job-radar/internal/posting"
)

const (
	PromptYes             = "Yes"
	PromptNo              = "No"
	PromptReportBySources = "Report by sources"
	PromptVerdictsToFile  = "Dump verdicts to file"
)

var errRunFailed = errors.New("run failed")

var prompt = promptui.Select{
	Label: "Send to the sink?",
	Items: []string{PromptYes, PromptNo, PromptReportBySources, PromptVerdictsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, score and dispatch job postings once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before sending matches")
	runCmd.Flags().Int("threshold", config.DefaultThreshold, "minimum score to send a posting, 0 keeps every verdict")

	viper.BindPFlag("auto-approve", runCmd.Flags().Lookup("auto-approve"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := getConfig(cmd, (*config.Config).Validate)
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-radar", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(cfg, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	generator, err := newGenerator(ctx, cfg.Oracle, logger)
	if err != nil {
		logger.Fatal("building scoring oracle", zap.Error(err))
	}

	adapters := buildAdapters(cfg, logger)
	logger.Info("sources enabled", zap.Strings("sources", cfg.EnabledSources()))

	timeouts := make(map[string]time.Duration)
	for _, name := range cfg.EnabledSources() {
		timeouts[name] = cfg.Sources[name].Timeout
	}

	agg := aggregator.New(adapters, aggregator.Options{MaxParallel: cfg.MaxParallel, Timeouts: timeouts}, logger)
	scorer := scoring.New(generator, logger, cfg.Oracle.MaxLogLength)
	dispatcher := dispatch.New(cfg.Sink.URL, cfg.Sink.Timeout, logger)

	filters, err := buildFilters(cfg)
	if err != nil {
		logger.Fatal("building filters", zap.Error(err))
	}

	opts := pipeline.Options{
		Criteria: cfg.Criteria,
		Deadline: cfg.RunDeadline,
		Filters:  filters,
		Filter:   filterConfig(cfg),
	}
	if !cfg.AutoApprove {
		opts.Confirm = confirm(logger)
	}

	report, err := pipeline.New(agg, scorer, dispatcher, opts, logger).Run(ctx)
	if err == nil {
		return nil
	}

	var (
		oracleErr   *pipeline.OracleCallError
		dispatchErr *pipeline.DispatchError
	)
	switch {
	case errors.As(err, &oracleErr):
		logger.Error("scoring oracle failed", zap.String("run_id", report.RunID), zap.Error(err))
	case errors.As(err, &dispatchErr):
		logger.Error("dispatch failed",
			zap.String("run_id", report.RunID),
			zap.Int("status", dispatchErr.Status),
			zap.String("body", dispatchErr.Body),
			zap.String("dump_file", dispatchErr.DumpFile),
			zap.Error(dispatchErr.Err),
		)
	default:
		logger.Error("run failed", zap.String("run_id", report.RunID), zap.Error(err))
	}

	return errRunFailed
}

// confirm asks on the terminal before dispatching, like a dry-run gate.
func confirm(logger *zap.Logger) pipeline.ConfirmFunc {
	return func(_ context.Context, verdicts *ai.Verdicts) (bool, error) {
		for {
			logger.Info("current list of matches", zap.Int("count", verdicts.Len()))

			_, action, err := prompt.Run()
			if err != nil {
				return false, err
			}

			switch action {
			case PromptYes:
				return true, nil
			case PromptNo:
				return false, nil
			case PromptReportBySources:
				report := &posting.Postings{Items: verdicts.Postings()}
				pretty, _ := json.MarshalIndent(report.ReportBySource(), "", "  ")
				logger.Info(string(pretty), zap.Int("postings count", report.Len()))
			case PromptVerdictsToFile:
				filename, err := posting.DumpToTmpFile("job-radar-verdicts-*.json", verdicts)
				if err != nil {
					return false, fmt.Errorf("dump verdicts to file: %w", err)
				}
				logger.Info("dumping verdicts to file", zap.String("filename", filename))
			default:
				return false, fmt.Errorf("invalid action: %s", action)
			}
		}
	}
}
