package netmon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/logging"
)

// Probe polls an HTTP health endpoint and derives online/offline from
// whether the request succeeds. The process starts offline until the
// first probe answers.
type Probe struct {
	*broadcaster

	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewProbe constructs a probe from application config.
func NewProbe(cfg *config.Config, logger *slog.Logger) *Probe {
	return &Probe{
		broadcaster: newBroadcaster(false),
		url:         cfg.Network.ProbeURL,
		interval:    time.Duration(cfg.Network.ProbeInterval) * time.Second,
		client: &http.Client{
			Timeout: time.Duration(cfg.Network.ProbeTimeout) * time.Second,
		},
		logger: logging.WithComponent(logger, "netmon"),
	}
}

// Start launches the background probe loop. The first probe runs
// immediately so startup does not wait a full interval to go online.
func (p *Probe) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("network probe already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(runCtx)
	return nil
}

// Stop terminates the probe loop and waits for it to exit.
func (p *Probe) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

func (p *Probe) run(ctx context.Context) {
	defer p.wg.Done()

	p.logger.Debug("probe loop started",
		logging.String("url", p.url),
		logging.Duration("interval", p.interval),
	)
	p.probe(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Probe) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Warn("build probe request", logging.Error(err))
		p.set(false)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.set(false)
		return
	}
	resp.Body.Close()

	online := resp.StatusCode < 500
	if was := p.Online(); was != online {
		p.logger.Info("connectivity changed", logging.Bool("online", online))
	}
	p.set(online)
}
