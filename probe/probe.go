// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package probe defines the network capability interface the test runner
// depends on, its error taxonomy, and a native socket-based implementation.
//
// Every operation blocks until done or the context deadline expires; the
// caller derives a per-call timeout from configuration. No operation may
// block unboundedly.
package probe

import (
	"context"
	"net"
	"time"
)

//go:generate mockgen -source=probe.go -destination=mock_prober.go -package=probe

type (
	// ResolveResult holds the addresses from a DNS lookup.
	ResolveResult struct {
		Addresses []net.IP
		Elapsed   time.Duration
	}

	// PingResult holds round-trip statistics from an echo run.
	PingResult struct {
		AvgRTT          time.Duration
		PacketLoss      float64
		PacketsSent     int
		PacketsReceived int
	}

	// HTTPResult holds the status and latency of a fetch.
	HTTPResult struct {
		StatusCode int
		Elapsed    time.Duration
	}

	// BandwidthResult holds measured throughput in Mbps.
	BandwidthResult struct {
		DownloadMbps float64
		UploadMbps   float64
		TestedUpload bool
	}

	// TracerouteResult holds the hop trace to a destination.
	TracerouteResult struct {
		HopCount  int
		LastHop   string
		RawOutput string
	}
)

// Prober is the capability interface wrapping primitive network
// operations. Implementations must be safe for concurrent use and must
// reject malformed hostnames before touching the network.
type Prober interface {
	// Resolve looks up the A/AAAA records for hostname.
	Resolve(ctx context.Context, hostname string) (*ResolveResult, error)

	// Ping sends count ICMP echo requests and reports RTT statistics.
	Ping(ctx context.Context, hostname string, count int) (*PingResult, error)

	// PingSize sends a single echo request carrying payloadBytes of data,
	// optionally with the IP don't-fragment flag set. It reports whether
	// the probe succeeded without fragmentation; a lost or oversized
	// probe is (false, nil), not an error.
	PingSize(ctx context.Context, hostname string, payloadBytes int, dontFragment bool) (bool, error)

	// ConnectTCP attempts a TCP connection to hostname:port. A closed or
	// filtered port is (false, nil); a non-nil error means the backend
	// could not attempt the connection at all.
	ConnectTCP(ctx context.Context, hostname string, port int) (bool, error)

	// FetchHTTP performs a GET against url and reports status and latency.
	FetchHTTP(ctx context.Context, url string) (*HTTPResult, error)

	// MeasureBandwidth transfers data against url and reports throughput.
	MeasureBandwidth(ctx context.Context, url string, testUpload bool) (*BandwidthResult, error)

	// Traceroute traces the hops toward hostname, up to maxHops.
	Traceroute(ctx context.Context, hostname string, maxHops int) (*TracerouteResult, error)
}
