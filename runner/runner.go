// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package runner orchestrates the enabled test kinds against each target
// and aggregates per-target results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/netcheck/netcheck/config"
	"github.com/netcheck/netcheck/mtu"
	"github.com/netcheck/netcheck/probe"
	"github.com/netcheck/netcheck/result"
	"github.com/netcheck/netcheck/store"
	"github.com/netcheck/netcheck/target"
)

// ResultSink receives finished results and traceroute output. *store.Store
// implements it; tests inject fakes.
type ResultSink interface {
	Append(res *result.TargetResult) error
	WriteTraceroute(hostname, raw string) (string, error)
}

// Runner runs the enabled subset of tests against targets.
type Runner struct {
	prober probe.Prober
	cfg    *config.Config
	sink   ResultSink
	logger *zap.Logger

	// discoverMTU is a field for testing purposes (replaced by fakes).
	discoverMTU func(ctx context.Context, params mtu.Params) (*mtu.Result, error)

	now func() time.Time
}

// New returns a Runner wired to the given prober and sink.
func New(prober probe.Prober, cfg *config.Config, sink ResultSink, logger *zap.Logger) *Runner {
	return &Runner{
		prober:      prober,
		cfg:         cfg,
		sink:        sink,
		logger:      logger,
		discoverMTU: mtu.NewDiscoverer(prober, logger).Discover,
		now:         time.Now,
	}
}

// Run executes every test kind against one target in fixed order. Kinds
// are independent: a DNS failure does not stop the ping or HTTP tests.
func (r *Runner) Run(ctx context.Context, t target.Target) *result.TargetResult {
	res := result.New(t.Raw, r.now())

	for _, kind := range result.Kinds() {
		var outcome result.TestOutcome
		switch kind {
		case result.KindDNS:
			outcome = r.testDNS(ctx, t)
		case result.KindPing:
			outcome = r.testPing(ctx, t)
		case result.KindBandwidth:
			outcome = r.testBandwidth(ctx)
		case result.KindPorts:
			outcome = r.testPorts(ctx, t)
		case result.KindMTU:
			outcome = r.testMTU(ctx, t)
		case result.KindHTTP:
			outcome = r.testHTTP(ctx, t)
		case result.KindTraceroute:
			outcome = r.testTraceroute(ctx, t)
		}
		res.Set(kind, outcome)

		if outcome.Status == result.StatusFailed {
			r.logger.Debug("test failed",
				zap.String("target", t.Raw), zap.String("kind", string(kind)), zap.String("reason", outcome.Error))
		}
	}

	return res
}

func (r *Runner) testDNS(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.DNS.Enabled {
		return result.Disabled("dns test disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.DNS.Timeout.Std())
	defer cancel()

	resolved, err := r.prober.Resolve(tctx, t.Hostname)
	if err != nil {
		return result.Failed(err.Error())
	}

	o := result.Success()
	o.TimeMs = result.Float(float64(resolved.Elapsed.Microseconds()) / 1000)
	records := make([]string, 0, len(resolved.Addresses))
	for _, ip := range resolved.Addresses {
		records = append(records, ip.String())
	}
	o.Records = records
	return o
}

func (r *Runner) testPing(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.Ping.Enabled {
		return result.Disabled("ping test disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Ping.Timeout.Std())
	defer cancel()

	pinged, err := r.prober.Ping(tctx, t.Hostname, r.cfg.Ping.Count)
	if err != nil {
		return result.Failed(err.Error())
	}

	o := result.Success()
	o.TimeMs = result.Float(float64(pinged.AvgRTT.Microseconds()) / 1000)
	return o
}

func (r *Runner) testBandwidth(ctx context.Context) result.TestOutcome {
	if !r.cfg.Bandwidth.Enabled {
		return result.Disabled("bandwidth test disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Bandwidth.Timeout.Std())
	defer cancel()

	measured, err := r.prober.MeasureBandwidth(tctx, r.cfg.Bandwidth.URL, r.cfg.Bandwidth.TestUpload)
	if err != nil {
		return result.Failed(err.Error())
	}

	o := result.Success()
	o.DownloadMbps = result.Float(measured.DownloadMbps)
	if measured.TestedUpload {
		o.UploadMbps = result.Float(measured.UploadMbps)
	}
	return o
}

func (r *Runner) testPorts(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.Ports.Enabled {
		return result.Disabled("port test disabled in configuration")
	}

	raw := strings.TrimSpace(r.cfg.Ports.List)
	var ports []int
	if raw == "" {
		ports = DefaultPorts
	} else {
		ports = ParsePortList(raw, r.logger)
		if len(ports) == 0 {
			// A configured list that filtered down to nothing means there
			// is nothing to scan, which is not a failure.
			return result.Disabled("no valid ports to scan after filtering")
		}
	}

	open := make([]int, 0, len(ports))
	for _, port := range ports {
		pctx, cancel := context.WithTimeout(ctx, r.cfg.Ports.Timeout.Std())
		ok, err := r.prober.ConnectTCP(pctx, t.Hostname, port)
		cancel()
		if err != nil {
			// Capability-level failure: the backend cannot scan at all.
			return result.Failed(fmt.Sprintf("no tool available to scan ports: %s", err))
		}
		if ok {
			open = append(open, port)
		}
	}

	o := result.Success()
	o.OpenPorts = open
	return o
}

func (r *Runner) testMTU(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.MTU.Enabled {
		return result.Disabled("mtu discovery disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.MTU.Timeout.Std())
	defer cancel()

	discovered, err := r.discoverMTU(tctx, mtu.Params{
		Hostname:     t.Hostname,
		MinMTU:       r.cfg.MTU.Min,
		MaxMTU:       r.cfg.MTU.Max,
		Step:         r.cfg.MTU.Step,
		ProbeTimeout: r.cfg.MTU.ProbeTimeout.Std(),
	})
	if err != nil {
		return result.Failed(err.Error())
	}

	o := result.Success()
	o.DiscoveredMTU = result.Int(discovered.DiscoveredMTU)
	return o
}

func (r *Runner) testHTTP(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.HTTP.Enabled {
		return result.Disabled("http test disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.HTTP.Timeout.Std())
	defer cancel()

	fetched, err := r.prober.FetchHTTP(tctx, t.URL)
	if err != nil {
		return result.Failed(err.Error())
	}

	if fetched.StatusCode >= 400 {
		o := result.Failed(fmt.Sprintf("http status %d", fetched.StatusCode))
		o.Code = result.Int(fetched.StatusCode)
		return o
	}

	o := result.Success()
	o.Code = result.Int(fetched.StatusCode)
	o.TimeMs = result.Float(float64(fetched.Elapsed.Microseconds()) / 1000)
	return o
}

func (r *Runner) testTraceroute(ctx context.Context, t target.Target) result.TestOutcome {
	if !r.cfg.Traceroute.Enabled {
		return result.Disabled("traceroute disabled in configuration")
	}
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Traceroute.Timeout.Std())
	defer cancel()

	traced, err := r.prober.Traceroute(tctx, t.Hostname, r.cfg.Traceroute.MaxHops)
	if err != nil {
		return result.Failed(err.Error())
	}

	if r.sink != nil {
		if path, err := r.sink.WriteTraceroute(t.Hostname, traced.RawOutput); err != nil {
			r.logger.Warn("could not write traceroute output",
				zap.String("target", t.Raw), zap.Error(err))
		} else {
			r.logger.Debug("traceroute output written", zap.String("path", path))
		}
	}

	o := result.Success()
	o.Hops = result.Int(traced.HopCount)
	o.LastHop = traced.LastHop
	return o
}

// RunAll tests every target with bounded parallelism, appending each
// result to the sink and accumulating the run summary. Lock-contention
// drops are counted but never abort the run.
func (r *Runner) RunAll(ctx context.Context, targets []target.Target) *result.RunSummary {
	summary := result.NewRunSummary()

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallelism)

	for _, t := range targets {
		t := t
		g.Go(func() error {
			res := r.Run(ctx, t)
			summary.Record(t.Raw, res.Reachable())

			if r.sink != nil {
				if err := r.sink.Append(res); err != nil {
					var cerr *store.ConcurrencyError
					if errors.As(err, &cerr) {
						summary.RecordSkipped()
					} else {
						r.logger.Warn("could not persist result",
							zap.String("target", t.Raw), zap.Error(err))
					}
				}
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return summary
}
