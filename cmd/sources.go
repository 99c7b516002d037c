package cmd

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-radar/internal/config"
	"github.com/spigell/job-radar/internal/filtering"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/source"
)

type querier interface {
	Queries() []source.Query
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print enabled sources with their queries and the filter chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer logger.Sync()

		// Listing needs no sink or oracle settings.
		cfg, err := getConfig(cmd, (*config.Config).ValidateSources)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, adapter := range buildAdapters(cfg, logger) {
			var queries []string
			if q, ok := adapter.(querier); ok {
				for _, query := range q.Queries() {
					queries = append(queries, query.String())
				}
			}
			fmt.Fprintf(out, "%-16s %s\n", adapter.Name(), strings.Join(queries, ", "))
		}

		filters, err := buildFilters(cfg)
		if err != nil {
			return err
		}
		if err := filtering.Prepare(filterConfig(cfg), filters); err != nil {
			return err
		}

		fmt.Fprintln(out)
		for _, st := range filtering.Describe(filters) {
			state := "enabled"
			if !st.Enabled {
				state = "disabled"
				if st.Reason != "" {
					state += " (" + st.Reason + ")"
				}
			}
			fmt.Fprintf(out, "%-16s %s %s\n", st.Name, state, formatDetails(st.Details))
		}
		return nil
	},
}

func formatDetails(details map[string]string) string {
	parts := make([]string, 0, len(details))
	for k, v := range details {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
