// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package mtu discovers the largest non-fragmenting packet size toward a
// host by binary-searching don't-fragment echo probes over a size range.
package mtu

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netcheck/netcheck/probe"
)

const (
	// MinAllowedMTU is the IPv4 minimum reassembly buffer size.
	MinAllowedMTU = 68
	// MaxAllowedMTU covers jumbo frames.
	MaxAllowedMTU = 9000
	// headerBytes is subtracted from a candidate MTU to get the ICMP
	// payload size: 20 bytes IPv4 header + 8 bytes ICMP header.
	headerBytes = 28
	// maxPayload is the largest payload an ICMP echo can carry.
	maxPayload = 65507
	// maxProbes caps the total probes per discovery to bound worst-case
	// latency, regardless of how the search converges.
	maxProbes = 50
)

// Params configures one discovery run.
type Params struct {
	Hostname     string
	MinMTU       int
	MaxMTU       int
	Step         int
	ProbeTimeout time.Duration
}

// Validate enforces the discovery range invariants.
func (p Params) Validate() error {
	if p.MinMTU < MinAllowedMTU || p.MaxMTU > MaxAllowedMTU || p.MinMTU >= p.MaxMTU {
		return fmt.Errorf("mtu range [%d,%d] outside [%d,%d]", p.MinMTU, p.MaxMTU, MinAllowedMTU, MaxAllowedMTU)
	}
	if p.Step < 1 || p.Step > 100 {
		return fmt.Errorf("mtu step %d outside [1,100]", p.Step)
	}
	if p.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	return nil
}

// Result is the outcome of a discovery run.
type Result struct {
	DiscoveredMTU int
	ProbeCount    int
}

// Discoverer binary-searches the path MTU using don't-fragment probes.
type Discoverer struct {
	prober probe.Prober
	logger *zap.Logger
}

// NewDiscoverer returns a Discoverer backed by the given prober.
func NewDiscoverer(prober probe.Prober, logger *zap.Logger) *Discoverer {
	return &Discoverer{prober: prober, logger: logger}
}

// Discover runs the binary search over [MinMTU, MaxMTU]. Each candidate
// size is probed at most once with the don't-fragment flag set; a success
// raises the lower bound by Step past the candidate, a failure lowers the
// upper bound likewise. A best size equal to MinMTU only counts when a
// probe actually succeeded, so "nothing ever fit" is reported as an error
// rather than a value the caller cannot distinguish from a real result.
func (d *Discoverer) Discover(ctx context.Context, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, probe.NewError(probe.ErrCodeInvalidTarget, err)
	}

	low, high := params.MinMTU, params.MaxMTU
	best := params.MinMTU
	succeeded := false
	probes := 0

	for low <= high && probes < maxProbes {
		mid := (low + high) / 2
		payload := mid - headerBytes

		// Skip candidates whose payload cannot be expressed in an echo,
		// shrinking the interval toward the valid side without spending
		// a probe.
		if payload < 0 {
			low = mid + 1
			continue
		}
		if payload > maxPayload {
			high = mid - 1
			continue
		}

		probes++
		pctx, cancel := context.WithTimeout(ctx, params.ProbeTimeout)
		ok, err := d.prober.PingSize(pctx, params.Hostname, payload, true)
		cancel()
		if err != nil {
			d.logger.Debug("mtu probe error",
				zap.String("host", params.Hostname), zap.Int("size", mid), zap.Error(err))
			ok = false
		}

		if ok {
			best = mid
			succeeded = true
			low = mid + params.Step
		} else {
			high = mid - params.Step
		}

		if ctx.Err() != nil {
			break
		}
	}

	if !succeeded {
		return nil, probe.Errorf(probe.ErrCodeMTUNotFound,
			"no valid MTU found for %s in [%d,%d] after %d probes",
			params.Hostname, params.MinMTU, params.MaxMTU, probes)
	}

	d.logger.Debug("mtu discovered",
		zap.String("host", params.Hostname), zap.Int("mtu", best), zap.Int("probes", probes))
	return &Result{DiscoveredMTU: best, ProbeCount: probes}, nil
}
