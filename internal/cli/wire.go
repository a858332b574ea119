package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/RevCBH/medalert/internal/action"
	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/config"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/history"
	"github.com/RevCBH/medalert/internal/rules"
	"github.com/RevCBH/medalert/internal/session"
)

// Runtime holds all wired components
type Runtime struct {
	Config     *config.Config
	Events     *events.Bus
	Rules      *rules.Provider
	Classifier *classify.Classifier
	Archive    *history.Archive
	Executor   *action.Executor
	Layer      escalate.ActionLayer
	Sessions   *session.Manager

	// Poller is set when a remote history is configured
	Poller *history.Poller

	// RulesRefresh is the catalog refresh period; zero disables polling
	RulesRefresh time.Duration
}

// WireRuntime assembles all components from cfg. The rule catalog is
// loaded once here; an unusable configured source is a startup error.
func WireRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	callingTimeout, err := cfg.CallingTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid calling timeout: %w", err)
	}
	callTimeout, err := cfg.CallTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid call timeout: %w", err)
	}
	pollInterval, err := cfg.PollIntervalDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}
	refreshInterval, err := cfg.RefreshIntervalDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid rules refresh interval: %w", err)
	}

	// Create event bus first (other components depend on it)
	bus := events.NewBus(1000)

	provider := rules.NewProvider(ruleSource(cfg), rules.Default())
	if err := provider.Refresh(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}
	provider.OnReload(func(c *rules.Catalog, err error) {
		if err != nil {
			bus.Emit(events.NewEvent(events.CatalogFailed, "").WithError(err))
			return
		}
		bus.Emit(events.NewEvent(events.CatalogLoaded, "").WithPayload(c.Len()))
	})
	classifier := classify.New(provider.Catalog)

	executor := action.NewExecutor(action.Config{
		MinConfidence: cfg.Action.MinConfidence,
		FromNumber:    cfg.Action.FromNumber,
		DoctorNumber:  cfg.Action.DoctorNumber,
	}, nil)

	layer, err := escalate.FromConfig(escalate.Config{
		Backends:     cfg.Escalation.Backends,
		SlackWebhook: cfg.Escalation.SlackWebhook,
		WebhookURL:   cfg.Escalation.WebhookURL,
		MQTT: escalate.MQTTConfig{
			Broker:   cfg.Escalation.MQTT.Broker,
			Topic:    cfg.Escalation.MQTT.Topic,
			ClientID: cfg.Escalation.MQTT.ClientID,
			Username: cfg.Escalation.MQTT.Username,
			Password: cfg.Escalation.MQTT.Password,
		},
		Local: executor,
	})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to create action layer: %w", err)
	}

	rt := &Runtime{
		Config:     cfg,
		Events:     bus,
		Rules:      provider,
		Classifier: classifier,
		Executor:   executor,
		Layer:      layer,

		RulesRefresh: refreshInterval,
	}

	opts := session.Options{
		Classifier: classifier,
		Escalation: escalate.ControllerConfig{
			Layer:          layer,
			CallingTimeout: callingTimeout,
			CallTimeout:    callTimeout,
			Rearm:          escalate.RearmPolicy(cfg.Escalation.Rearm),
			Confidence:     cfg.Escalation.Confidence,
		},
		Bus: bus,
	}

	if cfg.History.DBPath != "" {
		archive, err := history.OpenArchive(cfg.History.DBPath)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open history archive: %w", err)
		}
		rt.Archive = archive
		opts.Archive = archive
	}

	rt.Sessions = session.NewManager(opts)

	if cfg.History.RemoteURL != "" {
		store := rt.Sessions.Get(session.DefaultID).History()
		rt.Poller = history.NewPoller(store, history.NewHTTPFetcher(cfg.History.RemoteURL), pollInterval)
		rt.Poller.OnSync(func(n int, err error) {
			if err == nil {
				bus.Emit(events.NewEvent(events.HistorySynced, session.DefaultID).WithPayload(n))
			}
		})
	}

	log.Debug().
		Strs("backends", cfg.Escalation.Backends).
		Str("rules", provider.Source().Name()).
		Int("rule_count", provider.Catalog().Len()).
		Bool("archive", rt.Archive != nil).
		Msg("Runtime wired")

	return rt, nil
}

// StartBackground runs the catalog refresh loop, the rules file watcher
// and the history poller on g, as configured. They stop when ctx is done.
func (r *Runtime) StartBackground(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		return r.Rules.Run(ctx, r.RulesRefresh)
	})

	if r.Config.Rules.Watch && r.Config.Rules.File != "" {
		path := r.Config.Rules.File
		g.Go(func() error {
			return r.Rules.Watch(ctx, path)
		})
	}

	if r.Poller != nil {
		g.Go(func() error {
			return r.Poller.Run(ctx)
		})
	}
}

// ruleSource picks the configured catalog source, falling back to the
// built-in rules
func ruleSource(cfg *config.Config) rules.Source {
	switch {
	case cfg.Rules.File != "":
		return rules.NewFileSource(cfg.Rules.File)
	case cfg.Rules.URL != "":
		return rules.NewHTTPSource(cfg.Rules.URL)
	default:
		return rules.StaticSource(rules.DefaultRecords())
	}
}

// Close shuts down all runtime components. Sessions go first so
// in-flight calls finish before the layer and bus they report to.
func (r *Runtime) Close() error {
	var errs []error

	if r.Sessions != nil {
		r.Sessions.Close()
	}

	if closer, ok := r.Layer.(interface{ Close() }); ok {
		closer.Close()
	}

	if r.Archive != nil {
		if err := r.Archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history archive: %w", err))
		}
	}

	if r.Events != nil {
		if err := r.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	return errors.Join(errs...)
}
