package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/gemini"
	"github.com/spigell/job-radar/internal/ai/openai"
	"github.com/spigell/job-radar/internal/config"
	"github.com/spigell/job-radar/internal/filtering"
	"github.com/spigell/job-radar/internal/secrets"
	"github.com/spigell/job-radar/internal/source"
	"github.com/spigell/job-radar/internal/source/hh"
	"github.com/spigell/job-radar/internal/source/idealist"
	"github.com/spigell/job-radar/internal/source/remoteok"
	"github.com/spigell/job-radar/internal/source/techjobs"
)

// buildAdapters returns enabled adapters in their declared order.
func buildAdapters(cfg *config.Config, logger *zap.Logger) []source.Adapter {
	var adapters []source.Adapter

	for _, name := range cfg.EnabledSources() {
		src := cfg.Sources[name]
		httpOpts := source.HTTPOptions{
			UserAgent:         cfg.UserAgent,
			Timeout:           src.RequestTimeout,
			RequestsPerSecond: src.RequestsPerSecond,
		}

		switch name {
		case config.SourceRemoteOK:
			adapters = append(adapters, remoteok.New(remoteok.Config{
				BaseURL:   src.BaseURL,
				Keywords:  src.Keywords,
				Locations: src.Locations,
				HTTP:      httpOpts,
			}, logger))
		case config.SourceTechJobs:
			adapters = append(adapters, techjobs.New(techjobs.Config{
				BaseURL:   src.BaseURL,
				Keywords:  src.Keywords,
				Locations: src.Locations,
				HTTP:      httpOpts,
			}, logger))
		case config.SourceIdealist:
			adapters = append(adapters, idealist.New(idealist.Config{
				BaseURL:   src.BaseURL,
				Keywords:  src.Keywords,
				Locations: src.Locations,
				Pages:     src.Pages,
				Render:    src.Render,
				HTTP:      httpOpts,
			}, logger))
		case config.SourceHH:
			adapters = append(adapters, hh.New(hh.Config{
				APIURL:            src.BaseURL,
				Token:             resolveHHToken(src, logger),
				Keywords:          src.Keywords,
				Areas:             src.Areas,
				Schedules:         src.Schedules,
				Pages:             src.Pages,
				UserAgent:         cfg.UserAgent,
				Timeout:           src.RequestTimeout,
				RequestsPerSecond: src.RequestsPerSecond,
			}, logger))
		}
	}

	return adapters
}

// buildFilters returns the default filter chain with configured steps disabled.
func buildFilters(cfg *config.Config) ([]filtering.Filter, error) {
	steps := filtering.Default()
	for _, name := range cfg.DisableFilters {
		if !filtering.DisableByName(steps, strings.TrimSpace(name), "disabled in config") {
			return nil, fmt.Errorf("unknown filter %q in disable-filters", name)
		}
	}
	return steps, nil
}

func filterConfig(cfg *config.Config) *filtering.Config {
	return &filtering.Config{
		Threshold:         cfg.MinimumScore(),
		ExcludedCompanies: cfg.Exclude.Companies,
	}
}

// resolveHHToken returns an optional token; the public search works without one.
func resolveHHToken(src *config.SourceConfig, logger *zap.Logger) string {
	token, err := secrets.Load(secrets.Source{
		Name: "headhunter token",
		File: src.TokenFile,
		Env:  "HH_TOKEN",
	})
	if err != nil {
		if strings.TrimSpace(src.TokenFile) != "" {
			logger.Warn("headhunter token is not usable, searching anonymously", zap.Error(err))
		}
		return ""
	}
	return token
}

func newGenerator(ctx context.Context, cfg *config.OracleConfig, logger *zap.Logger) (ai.Generator, error) {
	env := "OPENAI_API_KEY"
	if cfg.Provider == config.ProviderGemini {
		env = "GEMINI_API_KEY"
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:    cfg.Provider + " api key",
		Value:   cfg.APIKey,
		File:    cfg.APIKeyFile,
		Env:     env,
		Keyring: cfg.APIKeyKeyring,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set oracle.api-key-file, oracle.api-key-keyring or %s)", err, env)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, logger)
	case config.ProviderOpenAI:
		return openai.NewGenerator(apiKey, cfg.Model, cfg.Endpoint, logger)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}
