package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/licensing/component"
	"github.com/kbukum/licensing/logger"
)

// App represents a service with uniform lifecycle management.
// The type parameter C is the config type.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(db)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // components are started; wire business services here
//	    return nil
//	})
//	app.Run(context.Background())
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		app.Logger = logger.Init(base.Logging, base.Name)
	}
	app.Components = component.NewRegistry(app.Logger)

	return app, nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback to run during the configure phase.
// Use this to set up business-layer dependencies after infrastructure is started.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var unhealthy []error
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			unhealthy = append(unhealthy, fmt.Errorf("%s=%s %s", h.Name, h.Status, h.Message))
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %w", errors.Join(unhealthy...))
	}
	return nil
}

// Run executes the full lifecycle of a long-running service:
// start components, OnStart hooks, configure, ready check, OnReady hooks,
// block until a signal or ctx is done, then shut down gracefully.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Error("cleanup after failed startup", logger.Fields(logger.FieldError, stopErr.Error()))
		}
		return err
	}

	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// startup performs the initialization sequence.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.logSummary(time.Since(start))
	return nil
}

// logSummary logs one line per described component and per route.
func (a *App[C]) logSummary(took time.Duration) {
	for _, c := range a.Components.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			a.Logger.Info("component", logger.Fields(
				"name", desc.Name, "type", desc.Type, "details", desc.Details,
			))
		}
		if rp, ok := c.(component.RouteProvider); ok {
			for _, r := range rp.Routes() {
				a.Logger.Debug("route", logger.Fields("method", r.Method, "path", r.Path, "handler", r.Handler))
			}
		}
	}
	a.Logger.Info("startup complete", logger.Fields("duration", took.String()))
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// stop gracefully shuts down all components within the graceful timeout.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		errs = append(errs, err)
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		errs = append(errs, err)
	}

	a.Logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
