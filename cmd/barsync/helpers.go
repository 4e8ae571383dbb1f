package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/LesCam/barstock-sub005/internal/queue"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func colorizeStatus(status queue.Status) string {
	if !colorEnabled {
		return string(status)
	}
	switch status {
	case queue.StatusPending:
		return text.FgYellow.Sprint(status)
	case queue.StatusSyncing:
		return text.FgCyan.Sprint(status)
	case queue.StatusFailed:
		return text.FgRed.Sprint(status)
	default:
		return string(status)
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func humanAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
