package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LesCam/barstock-sub005/internal/executor"
	"github.com/LesCam/barstock-sub005/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <mutation> [payload-json]",
		Short: "Queue a write for the next sync pass",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mutation := strings.TrimSpace(args[0])
			routes := executor.DefaultRoutes()
			if _, ok := routes[mutation]; !ok {
				return fmt.Errorf("unknown mutation %q (known: %s)", mutation, strings.Join(knownMutations(routes), ", "))
			}

			var payload json.RawMessage
			if len(args) == 2 {
				raw := []byte(args[1])
				if !json.Valid(raw) {
					return fmt.Errorf("payload is not valid JSON")
				}
				payload = json.RawMessage(raw)
			}

			return ctx.withQueue(cmd.Context(), func(q *queue.Queue) error {
				entry := q.Enqueue(cmd.Context(), mutation, payload)
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s\n", entry.Mutation, shortID(entry.ID))
				return nil
			})
		},
	}
}

func knownMutations(routes map[string]executor.Route) []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
