package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/netcheck/netcheck/alert"
	"github.com/netcheck/netcheck/config"
	"github.com/netcheck/netcheck/health"
	"github.com/netcheck/netcheck/probe"
	"github.com/netcheck/netcheck/publicip"
	"github.com/netcheck/netcheck/runner"
	"github.com/netcheck/netcheck/store"
	"github.com/netcheck/netcheck/target"
)

// runOnce performs one full sweep: validate targets, test each one,
// persist results, report health and dispatch alerts. It returns
// ErrUnreachable when any target failed every enabled test.
func runOnce(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var fetcher publicip.Fetcher
	if cfg.CollectPublicIP {
		fetcher = publicip.NewConsensusFetcher()
	}
	reporter := health.NewReporter(cfg.HealthFile, Version, fetcher, logger)
	reporter.Write(health.StatusStarting, len(cfg.Targets), "")

	targets, err := target.ParseList(cfg.Targets, logger)
	if err != nil {
		reporter.Write(health.StatusFailed, len(cfg.Targets), "")
		return err
	}

	st, err := store.New(store.Config{Dir: cfg.ResultsDir, Prefix: cfg.ResultPrefix}, logger)
	if err != nil {
		reporter.Write(health.StatusFailed, len(cfg.Targets), "")
		return err
	}

	prober := probe.NewNative(logger, cfg.UserAgent, cfg.PrivilegedICMP)
	run := runner.New(prober, cfg, st, logger)

	logger.Info("starting reachability sweep",
		zap.Int("targets", len(targets)), zap.Int("parallelism", cfg.Parallelism))
	summary := run.RunAll(ctx, targets)

	if err := st.Finalize(); err != nil {
		logger.Warn("could not finalize result document", zap.Error(err))
	}
	st.Sweep(cfg.RetentionDays)

	dispatcher := alert.NewDispatcher(alert.Config{
		Enabled:    cfg.Alerts.Enabled,
		EmailTo:    cfg.Alerts.Email.To,
		WebhookURL: cfg.Alerts.WebhookURL,
	}, alert.NewSMTPSender(alert.SMTPConfig{
		Addr:     cfg.Alerts.Email.SMTPAddr,
		From:     cfg.Alerts.Email.From,
		Username: cfg.Alerts.Email.Username,
		Password: cfg.Alerts.Email.Password,
	}), logger)
	dispatcher.Dispatch(ctx, summary)

	reporter.Write(health.StatusCompleted, len(cfg.Targets), summary.RunID)

	failed := summary.FailedTargets()
	logger.Info("sweep finished",
		zap.String("run_id", summary.RunID),
		zap.Int("targets", summary.Total()),
		zap.Int("unreachable", len(failed)),
		zap.Int("skipped_results", summary.Skipped()))

	if len(failed) > 0 {
		return ErrUnreachable
	}
	return nil
}
