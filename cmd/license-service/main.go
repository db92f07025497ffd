// Command license-service serves licenses enriched with organization data
// fetched through resilience-protected clients.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/licensing/bootstrap"
	"github.com/kbukum/licensing/component"
	"github.com/kbukum/licensing/config"
	"github.com/kbukum/licensing/database"
	"github.com/kbukum/licensing/discovery"
	_ "github.com/kbukum/licensing/discovery/consul"
	_ "github.com/kbukum/licensing/discovery/static"
	"github.com/kbukum/licensing/license"
	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/messages"
	"github.com/kbukum/licensing/observability"
	"github.com/kbukum/licensing/organization"
	"github.com/kbukum/licensing/provider"
	"github.com/kbukum/licensing/resilience"
	"github.com/kbukum/licensing/server"
	"github.com/kbukum/licensing/server/middleware"
)

const serviceName = "license-service"

func main() {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), app); err != nil {
		app.Logger.WithError(err).Fatal("license-service stopped")
	}
}

func run(ctx context.Context, app *bootstrap.App[*Config]) error {
	cfg := app.Cfg
	log := app.Logger

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	meter := observability.Meter(serviceName)
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		return err
	}
	resilienceMetrics, err := observability.NewResilienceMetrics(meter)
	if err != nil {
		return err
	}

	catalog, err := messages.New()
	if err != nil {
		return err
	}

	db := database.NewComponent(cfg.Database, log).
		WithMigrations(license.Migrations, license.MigrationsPath).
		WithAutoMigrate(&license.License{})
	disc := discovery.NewComponent(cfg.Discovery, log)
	for _, c := range []component.Component{db, disc} {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	policies := resilience.NewRegistry(cfg.Resilience, resilience.MetricsHooks(resilienceMetrics), log.WithComponent("resilience"))

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(
		middleware.Observe(serviceName, metrics),
		middleware.Language(catalog),
	)
	srv.RegisterDefaultEndpoints(cfg.Name, cfg.Version, func(ctx context.Context) []component.Health {
		return append(app.Components.HealthAll(ctx), policyHealth(policies)...)
	})
	httpComp := server.NewComponent(srv)

	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*Config]) error {
		if db.DB() == nil {
			return fmt.Errorf("license store requires database.enabled")
		}
		clients, err := organization.NewClients(cfg.Organization, disc.Client(), disc.Strategy(), nil, log,
			provider.WithTracing[string, organization.Organization](serviceName),
			provider.WithLogging[string, organization.Organization](log),
			provider.WithMetrics[string, organization.Organization](metrics),
		)
		if err != nil {
			return err
		}
		selector, err := organization.NewSelector(cfg.Organization.DefaultMode, clients, log)
		if err != nil {
			return err
		}

		// Create both policies up front so /health reports them from the start.
		policies.Get(license.OrganizationPolicy)
		policies.Get(license.ListPolicy)

		svc := license.NewService(license.NewStore(db.DB()), selector, policies, catalog, cfg.License, log)
		license.NewHandler(svc, log).Register(srv.GinEngine())

		for _, r := range httpComp.Routes() {
			a.Logger.Debug("route", logger.Fields("method", r.Method, "path", r.Path, "handler", r.Handler))
		}
		return nil
	})

	// The server starts once routes are mounted and stops before the
	// database closes.
	app.OnReady(httpComp.Start)
	app.OnStop(httpComp.Stop, shutdownTelemetry)

	return app.Run(ctx)
}

// policyHealth maps resilience policy health onto component health.
func policyHealth(policies *resilience.Registry) []component.Health {
	var out []component.Health
	for _, h := range policies.Health() {
		status := component.StatusHealthy
		switch h.Status {
		case observability.HealthStatusDegraded:
			status = component.StatusDegraded
		case observability.HealthStatusDown:
			status = component.StatusUnhealthy
		}
		out = append(out, component.Health{Name: h.Name, Status: status, Message: h.Message})
	}
	return out
}
