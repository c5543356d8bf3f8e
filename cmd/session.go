package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cube2222/octoframe/config"
	"github.com/cube2222/octoframe/dataframe"
	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/metrics"
	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/serialization"
	"github.com/cube2222/octoframe/transport"
)

// session is one configured dataframe together with the resources it owns.
type session struct {
	cfg       *config.Config
	df        *dataframe.Dataframe
	transport *transport.TCP
	registry  *prometheus.Registry
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't read config: %w", err)
	}
	return cfg, nil
}

func newSession(cfg *config.Config, allocator *plan.Allocator) (*session, error) {
	framing, err := serialization.ParseFraming(cfg.Framing)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse framing: %w", err)
	}
	mode, err := dataframe.ParseContextMode(cfg.ContextMode)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse context mode: %w", err)
	}

	tcp := transport.NewTCP(transport.Options{
		ExecutorAddress:    cfg.ExecutorAddress,
		ListenAddress:      cfg.ListenAddress,
		DialTimeout:        cfg.DialTimeout,
		ResponseTimeout:    cfg.ResponseTimeout,
		Framing:            framing,
		MaxResponseSize:    cfg.MaxResponseSize,
		PersistentListener: cfg.PersistentListener,
	})

	registry := prometheus.NewRegistry()
	opts := []dataframe.Option{
		dataframe.WithContextMode(mode),
		dataframe.WithMetrics(metrics.New(registry)),
	}
	if allocator != nil {
		opts = append(opts, dataframe.WithAllocator(allocator))
	}
	if cfg.JournalDir != "" {
		j, err := journal.Open(cfg.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("couldn't open journal: %w", err)
		}
		opts = append(opts, dataframe.WithJournal(j))
	}

	return &session{
		cfg:       cfg,
		df:        dataframe.New(tcp, opts...),
		transport: tcp,
		registry:  registry,
	}, nil
}

func (s *session) Close() error {
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("couldn't close transport: %w", err)
	}
	return nil
}
