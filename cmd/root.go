package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-radar/internal/config"
)

const (
	app       = "job-radar"
	envPrefix = "JOB_RADAR"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "job-radar collects job postings from several boards, scores them and sends the best ones to a webhook",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-radar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Nested keys are only seen by Unmarshal when viper knows about them.
	for _, key := range envKeys() {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding environment variable for %s: %v", key, err)
		}
	}
}

// envKeys lists every config key that can be set as JOB_RADAR_<KEY>,
// for example JOB_RADAR_SOURCES_HH_ENABLED.
func envKeys() []string {
	keys := []string{
		"criteria", "threshold", "run-deadline", "max-parallel", "user-agent", "auto-approve", "disable-filters",
		"sink.url", "sink.timeout", "exclude.companies",
		"oracle.provider", "oracle.model", "oracle.endpoint", "oracle.api-key",
		"oracle.api-key-file", "oracle.api-key-keyring", "oracle.max-retries", "oracle.max-log-length",
	}

	sourceKeys := []string{
		"enabled", "base-url", "keywords", "locations", "areas", "schedules", "timeout",
		"request-timeout", "pages", "render", "requests-per-second", "token-file",
	}
	for _, name := range config.KnownSources() {
		for _, key := range sourceKeys {
			keys = append(keys, "sources."+name+"."+key)
		}
	}

	return keys
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
	case cfgFile == "" && errors.As(err, &notFound):
		// Environment variables alone are enough.
	default:
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

// getConfig decodes the config, applies command flags and defaults, then runs validate.
func getConfig(cmd *cobra.Command, validate func(*config.Config) error) (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Bound to viper, an unchanged flag would hide an unset threshold behind its zero default.
	if flag := cmd.Flags().Lookup("threshold"); flag != nil && flag.Changed {
		threshold, err := cmd.Flags().GetInt("threshold")
		if err != nil {
			return nil, err
		}
		cfg.Threshold = &threshold
	}

	cfg.SetDefaults()
	if err := validate(&cfg); err != nil {
		return &cfg, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
