// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"

	"github.com/netcheck/netcheck/cache"
	"github.com/netcheck/netcheck/target"
)

const (
	// dnsCacheExpiration bounds how long internal lookups (traceroute,
	// MTU probes) reuse a resolved address within a run.
	dnsCacheExpiration = 5 * time.Minute

	// uploadPayloadBytes is the body size used for upload measurements.
	uploadPayloadBytes = 4 << 20

	// httpBodyLimit caps how much of a response body a plain fetch drains.
	httpBodyLimit = 64 << 10

	pingInterval = 200 * time.Millisecond
)

// Native is the socket-based Prober implementation. It is safe for
// concurrent use.
type Native struct {
	logger     *zap.Logger
	userAgent  string
	privileged bool
	resolver   *net.Resolver
	dialer     *net.Dialer
}

var _ Prober = (*Native)(nil)

// NewNative returns a Prober backed by the Go network stack. privileged
// selects raw ICMP sockets over UDP datagram sockets for echo probes.
func NewNative(logger *zap.Logger, userAgent string, privileged bool) *Native {
	return &Native{
		logger:     logger,
		userAgent:  userAgent,
		privileged: privileged,
		resolver:   net.DefaultResolver,
		dialer:     &net.Dialer{},
	}
}

// Resolve implements Prober. It performs an uncached lookup so the
// reported elapsed time reflects the resolver, not this process.
func (n *Native) Resolve(ctx context.Context, hostname string) (*ResolveResult, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}

	start := time.Now()
	addrs, err := n.resolver.LookupIPAddr(ctx, hostname)
	elapsed := time.Since(start)
	if err != nil {
		return nil, ClassifyDNSError(err)
	}
	if len(addrs) == 0 {
		return nil, Errorf(ErrCodeDNSNoRecords, "no records for %q", hostname)
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return &ResolveResult{Addresses: ips, Elapsed: elapsed}, nil
}

// Ping implements Prober using ICMP echo requests.
func (n *Native) Ping(ctx context.Context, hostname string, count int) (*PingResult, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}
	if count <= 0 {
		count = 3
	}

	pinger, err := probing.NewPinger(hostname)
	if err != nil {
		return nil, ClassifyDNSError(err)
	}
	pinger.SetPrivileged(n.privileged)
	pinger.Count = count
	pinger.Interval = pingInterval
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, Errorf(ErrCodePingUnreachable, "ping %s: %v", hostname, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		if ctx.Err() != nil {
			return nil, Errorf(ErrCodePingTimeout, "ping %s: timed out after %d packets", hostname, stats.PacketsSent)
		}
		return nil, Errorf(ErrCodePingUnreachable, "ping %s: no replies to %d packets", hostname, stats.PacketsSent)
	}

	return &PingResult{
		AvgRTT:          stats.AvgRtt,
		PacketLoss:      stats.PacketLoss,
		PacketsSent:     stats.PacketsSent,
		PacketsReceived: stats.PacketsRecv,
	}, nil
}

// ConnectTCP implements Prober. Closed and filtered ports are reported
// as false without an error.
func (n *Native) ConnectTCP(ctx context.Context, hostname string, port int) (bool, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return false, NewError(ErrCodeInvalidTarget, err)
	}
	if port < 1 || port > 65535 {
		return false, Errorf(ErrCodeInvalidTarget, "port %d out of range", port)
	}

	conn, err := n.dialer.DialContext(ctx, "tcp", net.JoinHostPort(hostname, fmt.Sprintf("%d", port)))
	if err != nil {
		n.logger.Debug("tcp connect failed", zap.String("host", hostname), zap.Int("port", port), zap.Error(err))
		return false, nil
	}
	conn.Close()
	return true, nil
}

// FetchHTTP implements Prober. Redirects are not followed so 3xx status
// codes surface to the caller.
func (n *Native) FetchHTTP(ctx context.Context, rawURL string) (*HTTPResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, ClassifyHTTPError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, httpBodyLimit)) //nolint:errcheck

	return &HTTPResult{StatusCode: resp.StatusCode, Elapsed: time.Since(start)}, nil
}

// MeasureBandwidth implements Prober. Download throughput is measured by
// draining a GET; upload by posting a fixed zero-filled body.
func (n *Native) MeasureBandwidth(ctx context.Context, rawURL string, testUpload bool) (*BandwidthResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}

	out := &BandwidthResult{TestedUpload: testUpload}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	client := &http.Client{}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, Errorf(ErrCodeBandwidthTransfer, "bandwidth download: %v", err)
	}
	bytesRead, err := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	elapsed := time.Since(start)
	if err != nil {
		return nil, Errorf(ErrCodeBandwidthTransfer, "bandwidth download: %v", err)
	}
	if bytesRead == 0 || elapsed <= 0 {
		return nil, Errorf(ErrCodeBandwidthTransfer, "bandwidth download: empty transfer")
	}
	out.DownloadMbps = mbps(bytesRead, elapsed)

	if testUpload {
		body := bytes.NewReader(make([]byte, uploadPayloadBytes))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
		if err != nil {
			return nil, NewError(ErrCodeInvalidTarget, err)
		}
		req.Header.Set("User-Agent", n.userAgent)
		req.Header.Set("Content-Type", "application/octet-stream")

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return nil, Errorf(ErrCodeBandwidthTransfer, "bandwidth upload: %v", err)
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, httpBodyLimit)) //nolint:errcheck
		resp.Body.Close()
		out.UploadMbps = mbps(uploadPayloadBytes, time.Since(start))
	}

	return out, nil
}

func mbps(transferred int64, elapsed time.Duration) float64 {
	return float64(transferred) * 8 / 1e6 / elapsed.Seconds()
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return target.ValidateHostname(u.Hostname())
}

// resolveIPv4 returns an IPv4 address for hostname, caching the answer
// so traceroute and MTU probes do not repeat lookups within a run.
func (n *Native) resolveIPv4(ctx context.Context, hostname string) (net.IP, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.To4() == nil {
			return nil, fmt.Errorf("IPv6 target %q not supported for raw ICMP probes", hostname)
		}
		return ip.To4(), nil
	}

	return cache.GetWithExpiration("dns4:"+hostname, func() (net.IP, error) {
		addrs, err := n.resolver.LookupIPAddr(ctx, hostname)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if v4 := a.IP.To4(); v4 != nil {
				return v4, nil
			}
		}
		return nil, fmt.Errorf("no IPv4 address for %q", hostname)
	}, dnsCacheExpiration)
}
