package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wondura/internal/app"
	"wondura/internal/config"
	"wondura/internal/logger"
	"wondura/internal/types"
)

var (
	logLevel string

	queryDestination string
	queryDates       string
	queryActivities  []string
	queryDealmaker   string
)

var rootCmd = &cobra.Command{
	Use:           "wondura",
	Short:         "Wondura travel query engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{classifyCmd, cardsCmd, optionsCmd, experienceCmd} {
		addQueryFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(smokeCmd)
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&queryDestination, "destination", "d", "", "Where the traveller wants to go")
	cmd.Flags().StringVar(&queryDates, "dates", "", "When they want to travel")
	cmd.Flags().StringArrayVarP(&queryActivities, "activity", "a", nil, "Activity of interest (repeat up to 3 times)")
	cmd.Flags().StringVar(&queryDealmaker, "dealmaker", "", "The one thing that would make the trip")
}

func queryFromFlags() (types.UserQuery, error) {
	if len(queryActivities) > 3 {
		return types.UserQuery{}, fmt.Errorf("at most 3 activities, got %d", len(queryActivities))
	}
	q := types.UserQuery{
		Destination: types.StringPtr(queryDestination),
		Dates:       types.StringPtr(queryDates),
		Dealmaker:   types.StringPtr(queryDealmaker),
	}
	slots := []**string{&q.Activity1, &q.Activity2, &q.Activity3}
	for i, a := range queryActivities {
		*slots[i] = types.StringPtr(a)
	}
	return q.Normalize(), nil
}

// buildEngine loads config the same way the API server does, logging to stderr as console output.
func buildEngine(cmd *cobra.Command) (*app.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewStructured(logLevel, "console")
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
