package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/LesCam/barstock-sub005/internal/queue"
)

func newQueueTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	return tw
}

func renderStatusTable(stats queue.Stats) string {
	tw := newQueueTable(table.Row{"Status", "Count"})
	for _, status := range []struct {
		value queue.Status
		count int
	}{
		{queue.StatusPending, stats.Pending},
		{queue.StatusSyncing, stats.Syncing},
		{queue.StatusFailed, stats.Failed},
	} {
		if status.count == 0 {
			continue
		}
		tw.AppendRow(table.Row{colorizeStatus(status.value), status.count})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderEntriesTable(entries []queue.Entry) string {
	tw := newQueueTable(table.Row{"ID", "Mutation", "Status", "Attempts", "Queued", "Error"})
	for _, entry := range entries {
		tw.AppendRow(table.Row{
			shortID(entry.ID),
			entry.Mutation,
			colorizeStatus(entry.Status),
			entry.Attempts,
			humanAge(entry.CreatedAt),
			truncate(entry.Error, 48),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
