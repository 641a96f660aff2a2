package main

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/internal/presentation/graph"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/statemachine"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the container state machine as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetString("current")

		var overlay *graph.Overlay
		if current != "" {
			s := domain.State(current)
			if !s.Valid() {
				return fmt.Errorf("%w: %s", domain.ErrUnknownState, current)
			}
			overlay = &graph.Overlay{Current: s}
		}

		// Only the shape of the table matters here, not what the actions do.
		table := statemachine.DefaultTable(statemachine.Actions{Initialise: noop, Invoke: noop})
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(table, graph.DefaultLabels(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "Highlight this state")
}

func noop(context.Context) error { return nil }
