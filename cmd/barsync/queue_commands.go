package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LesCam/barstock-sub005/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the offline write queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueDiscardCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queued write counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.loadEntries(cmd.Context())
			if err != nil {
				return err
			}
			stats := queue.CountStats(entries)
			if stats.Total() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusTable(stats))
			return nil
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.loadEntries(cmd.Context())
			if err != nil {
				return err
			}
			if statusFilter != "" {
				if !queue.ValidStatus(queue.Status(statusFilter)) {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				filtered := entries[:0]
				for _, entry := range entries {
					if entry.Status == queue.Status(statusFilter) {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEntriesTable(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show entries with this status (pending, syncing, failed)")
	return cmd
}

func newQueueDiscardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <entry-id>",
		Short: "Permanently remove a queued write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := args[0]
			return ctx.withQueue(cmd.Context(), func(q *queue.Queue) error {
				entry, err := resolveEntry(q.List(), prefix)
				if err != nil {
					return err
				}
				q.Discard(cmd.Context(), entry.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Discarded %s (%s)\n", shortID(entry.ID), entry.Mutation)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Return failed writes to pending for the next sync pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(cmd.Context(), func(q *queue.Queue) error {
				reset := q.ResetFailed(cmd.Context())
				if reset == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed entries to retry")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d entr%s for retry\n", reset, pluralY(reset))
				return nil
			})
		},
	}
}

// resolveEntry matches a full id or unambiguous id prefix.
func resolveEntry(entries []queue.Entry, prefix string) (queue.Entry, error) {
	var matches []queue.Entry
	for _, entry := range entries {
		if entry.ID == prefix {
			return entry, nil
		}
		if len(prefix) >= 4 && len(entry.ID) >= len(prefix) && entry.ID[:len(prefix)] == prefix {
			matches = append(matches, entry)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return queue.Entry{}, fmt.Errorf("no entry matches %q", prefix)
	default:
		return queue.Entry{}, errors.New("id prefix is ambiguous; use more characters")
	}
}
