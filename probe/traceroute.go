// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/netcheck/netcheck/reversedns"
	"github.com/netcheck/netcheck/target"
)

const (
	icmpProtocol   = 1 // iana.ProtocolICMP
	perHopDeadline = 2 * time.Second
)

// Traceroute implements Prober by sending TTL-stepped ICMP echo requests
// and collecting the Time Exceeded replies from intermediate routers.
func (n *Native) Traceroute(ctx context.Context, hostname string, maxHops int) (*TracerouteResult, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return nil, NewError(ErrCodeInvalidTarget, err)
	}
	if maxHops <= 0 {
		maxHops = 30
	}

	dst, err := n.resolveIPv4(ctx, hostname)
	if err != nil {
		return nil, Errorf(ErrCodeTracerouteFailed, "traceroute %s: %v", hostname, err)
	}

	network := "udp4"
	if n.privileged {
		network = "ip4:icmp"
	}
	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return nil, NewError(ErrCodeToolUnavailable, err)
	}
	defer conn.Close()

	var raw strings.Builder
	fmt.Fprintf(&raw, "traceroute to %s (%s), %d hops max\n", hostname, dst, maxHops)

	id := os.Getpid() & 0xffff
	var lastHop string
	hopCount := 0
	reachedDest := false

	for ttl := 1; ttl <= maxHops; ttl++ {
		if ctx.Err() != nil {
			return nil, Errorf(ErrCodeTracerouteTimeout, "traceroute %s: %v", hostname, ctx.Err())
		}

		if err := conn.IPv4PacketConn().SetTTL(ttl); err != nil {
			return nil, Errorf(ErrCodeTracerouteFailed, "traceroute %s: set ttl: %v", hostname, err)
		}

		hopIP, rtt, isDest, err := n.probeHop(ctx, conn, network, dst, id, ttl)
		if err != nil {
			return nil, err
		}

		if hopIP == "" {
			fmt.Fprintf(&raw, "%2d  *\n", ttl)
			continue
		}

		hopCount = ttl
		lastHop = hopIP
		fmt.Fprintf(&raw, "%2d  %s  %.3f ms\n", ttl, hopIP, float64(rtt.Microseconds())/1000)
		if isDest {
			reachedDest = true
			break
		}
	}

	if lastHop == "" {
		return nil, Errorf(ErrCodeTracerouteFailed, "traceroute %s: no hop replied within %d hops", hostname, maxHops)
	}
	if !reachedDest {
		n.logger.Debug("traceroute did not reach destination",
			zap.String("host", hostname), zap.String("last_hop", lastHop))
	}

	if names, err := reversedns.Lookup(ctx, lastHop); err == nil && len(names) > 0 {
		fmt.Fprintf(&raw, "last hop: %s (%s)\n", lastHop, names[0])
	}

	return &TracerouteResult{HopCount: hopCount, LastHop: lastHop, RawOutput: raw.String()}, nil
}

// probeHop sends one echo with the connection's current TTL and waits for
// a Time Exceeded or Echo Reply. A silent hop returns ("", 0, false, nil).
func (n *Native) probeHop(ctx context.Context, conn *icmp.PacketConn, network string, dst net.IP, id, seq int) (string, time.Duration, bool, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("netcheck-traceroute")},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return "", 0, false, Errorf(ErrCodeTracerouteFailed, "marshal echo: %v", err)
	}

	var dstAddr net.Addr = &net.IPAddr{IP: dst}
	if network == "udp4" {
		dstAddr = &net.UDPAddr{IP: dst}
	}

	sent := time.Now()
	if _, err := conn.WriteTo(wb, dstAddr); err != nil {
		return "", 0, false, Errorf(ErrCodeTracerouteFailed, "send echo: %v", err)
	}

	deadline := sent.Add(perHopDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	rb := make([]byte, 1500)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return "", 0, false, Errorf(ErrCodeTracerouteFailed, "set deadline: %v", err)
		}
		nr, peer, err := conn.ReadFrom(rb)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return "", 0, false, nil // silent hop
			}
			return "", 0, false, Errorf(ErrCodeTracerouteFailed, "read reply: %v", err)
		}

		rm, err := icmp.ParseMessage(icmpProtocol, rb[:nr])
		if err != nil {
			continue
		}

		peerIP := peerAddr(peer)
		switch rm.Type {
		case ipv4.ICMPTypeTimeExceeded:
			return peerIP, time.Since(sent), false, nil
		case ipv4.ICMPTypeEchoReply:
			if echo, ok := rm.Body.(*icmp.Echo); ok && echo.Seq != seq {
				continue
			}
			return peerIP, time.Since(sent), true, nil
		case ipv4.ICMPTypeDestinationUnreachable:
			return peerIP, time.Since(sent), true, nil
		default:
			continue
		}
	}
}

func peerAddr(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP.String()
	case *net.UDPAddr:
		return a.IP.String()
	default:
		return addr.String()
	}
}
