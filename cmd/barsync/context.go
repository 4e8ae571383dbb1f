package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/queue"
	"github.com/LesCam/barstock-sub005/internal/store"
)

// commandContext carries lazily resolved configuration shared by all
// subcommands.
type commandContext struct {
	configFlag *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolved
	return cfg, nil
}

// loadEntries reads the persisted snapshot without taking ownership of
// the queue, safe alongside a running instance.
func (c *commandContext) loadEntries(ctx context.Context) ([]queue.Entry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	data, found, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	entries, err := queue.ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot unreadable: %w", err)
	}
	return entries, nil
}

// withQueue opens the queue for mutation under the instance lock. It
// refuses to run while a barsync process owns the queue.
func (c *commandContext) withQueue(ctx context.Context, fn func(q *queue.Queue) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "barsync.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("queue is owned by a running barsync instance; stop it first")
	}
	defer func() { _ = lock.Unlock() }()

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	q := queue.New(st, logging.NewNop())
	q.Rehydrate(ctx)
	if err := fn(q); err != nil {
		return err
	}
	return q.Flush(ctx)
}
