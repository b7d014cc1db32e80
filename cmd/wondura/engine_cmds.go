package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wondura/internal/stream"
	"wondura/internal/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a query and print the routing decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		return printJSON(cmd.OutOrStdout(), engine.Classifier.Classify(cmd.Context(), q))
	},
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Generate experience cards for the query as given, skipping classification",
	Long: `Treats the flags as an already classified Details request and streams the
card events to stdout in event-stream framing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		d := types.RoutingDecision{Routing: types.RoutingDetails, Extracted: extractedFromQuery(q)}
		em := stream.NewSSE(cmd.OutOrStdout())
		engine.Planner.StreamCards(cmd.Context(), d, em)
		return nil
	},
}

var optionsKind string

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Generate a ranked options list (destinations, activities or both)",
	RunE: func(cmd *cobra.Command, args []string) error {
		routing, ok := map[string]types.Routing{
			"destinations": types.RoutingOptionsDestinations,
			"activities":   types.RoutingOptionsActivities,
			"both":         types.RoutingOptionsBoth,
		}[optionsKind]
		if !ok {
			return fmt.Errorf("unknown --kind %q (want destinations, activities or both)", optionsKind)
		}
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		payload, err := engine.Planner.Options(cmd.Context(), types.RoutingDecision{Routing: routing, Extracted: extractedFromQuery(q)})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), payload)
	},
}

var experienceJSON bool

var experienceCmd = &cobra.Command{
	Use:   "experience",
	Short: "Run the full pipeline: classify, then cards or options",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		if !experienceJSON {
			engine.Planner.Run(cmd.Context(), q, stream.NewSSE(cmd.OutOrStdout()))
			return nil
		}

		rec := stream.NewRecorder()
		engine.Planner.Run(cmd.Context(), q, rec)
		out := make([]map[string]any, 0, len(rec.Events()))
		for _, ev := range rec.Events() {
			out = append(out, map[string]any{"event": ev.Kind, "data": ev.Data})
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	optionsCmd.Flags().StringVar(&optionsKind, "kind", "both", "destinations, activities or both")
	experienceCmd.Flags().BoolVar(&experienceJSON, "json", false, "Collect the events and print them as one JSON array")
}

// extractedFromQuery mirrors what the classifier falls back to: activities joined in form order.
func extractedFromQuery(q types.UserQuery) types.ExtractedFields {
	e := types.ExtractedFields{Destination: q.Destination, Date: q.Dates, DealMaker: q.Dealmaker}
	if acts := q.Activities(); len(acts) > 0 {
		e.Activity = types.StringPtr(strings.Join(acts, ", "))
	}
	return e
}
