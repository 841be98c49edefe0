// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package result defines the data model for per-target test outcomes.
package result

import (
	"time"
)

// Status is the terminal state of a single test kind for a target.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusDisabled Status = "disabled"
)

// Kind identifies one of the reachability test kinds.
type Kind string

const (
	KindDNS        Kind = "dns"
	KindPing       Kind = "ping"
	KindBandwidth  Kind = "bandwidth"
	KindPorts      Kind = "ports"
	KindMTU        Kind = "mtu"
	KindHTTP       Kind = "http"
	KindTraceroute Kind = "traceroute"
)

// Kinds returns all test kinds in execution order. The order is fixed:
// kinds are independent of each other, so a DNS failure never prevents
// the ping or HTTP tests from running.
func Kinds() []Kind {
	return []Kind{KindDNS, KindPing, KindBandwidth, KindPorts, KindMTU, KindHTTP, KindTraceroute}
}

type (
	// TestOutcome is the result of one (target, kind) pair. Only the
	// metric fields relevant to the kind are populated; the rest stay
	// nil and are omitted from the serialized document.
	TestOutcome struct {
		Status        Status   `json:"status"`
		TimeMs        *float64 `json:"time_ms,omitempty"`
		Code          *int     `json:"code,omitempty"`
		Records       []string `json:"records,omitempty"`
		OpenPorts     []int    `json:"open_ports,omitempty"`
		DiscoveredMTU *int     `json:"discovered_mtu,omitempty"`
		Hops          *int     `json:"hops,omitempty"`
		LastHop       string   `json:"last_hop,omitempty"`
		DownloadMbps  *float64 `json:"download_mbps,omitempty"`
		UploadMbps    *float64 `json:"upload_mbps,omitempty"`
		Error         string   `json:"error,omitempty"`
	}

	// TargetResult aggregates the outcomes of all test kinds for one
	// target. It is built by a single runner invocation and immutable
	// once handed to the store.
	TargetResult struct {
		Target     string       `json:"target"`
		Timestamp  time.Time    `json:"timestamp"`
		DNS        *TestOutcome `json:"dns,omitempty"`
		Ping       *TestOutcome `json:"ping,omitempty"`
		Bandwidth  *TestOutcome `json:"bandwidth,omitempty"`
		Ports      *TestOutcome `json:"ports,omitempty"`
		MTU        *TestOutcome `json:"mtu,omitempty"`
		HTTP       *TestOutcome `json:"http,omitempty"`
		Traceroute *TestOutcome `json:"traceroute,omitempty"`
	}
)

// New returns a TargetResult stamped with the given target and a UTC
// timestamp.
func New(target string, ts time.Time) *TargetResult {
	return &TargetResult{
		Target:    target,
		Timestamp: ts.UTC(),
	}
}

// Success returns a success outcome; metric fields are set by the caller.
func Success() TestOutcome {
	return TestOutcome{Status: StatusSuccess}
}

// Failed returns a failed outcome carrying the failure reason.
func Failed(reason string) TestOutcome {
	return TestOutcome{Status: StatusFailed, Error: reason}
}

// Disabled returns a disabled outcome carrying an explanatory message.
func Disabled(message string) TestOutcome {
	return TestOutcome{Status: StatusDisabled, Error: message}
}

// Set records the outcome for the given kind.
func (r *TargetResult) Set(kind Kind, o TestOutcome) {
	switch kind {
	case KindDNS:
		r.DNS = &o
	case KindPing:
		r.Ping = &o
	case KindBandwidth:
		r.Bandwidth = &o
	case KindPorts:
		r.Ports = &o
	case KindMTU:
		r.MTU = &o
	case KindHTTP:
		r.HTTP = &o
	case KindTraceroute:
		r.Traceroute = &o
	}
}

// Get returns the outcome recorded for the given kind, or nil.
func (r *TargetResult) Get(kind Kind) *TestOutcome {
	switch kind {
	case KindDNS:
		return r.DNS
	case KindPing:
		return r.Ping
	case KindBandwidth:
		return r.Bandwidth
	case KindPorts:
		return r.Ports
	case KindMTU:
		return r.MTU
	case KindHTTP:
		return r.HTTP
	case KindTraceroute:
		return r.Traceroute
	}
	return nil
}

// Reachable reports whether the target is considered reachable for
// alerting purposes: any non-disabled kind that succeeded counts.
// Unanimous failure across every enabled kind marks the target down.
func (r *TargetResult) Reachable() bool {
	enabled := 0
	for _, kind := range Kinds() {
		o := r.Get(kind)
		if o == nil || o.Status == StatusDisabled {
			continue
		}
		enabled++
		if o.Status == StatusSuccess {
			return true
		}
	}
	// A target with no enabled tests at all is not reported as down.
	return enabled == 0
}

// Float returns a pointer to v, for optional metric fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional metric fields.
func Int(v int) *int { return &v }
