// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

//go:build linux

package probe

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/netcheck/netcheck/target"
)

const maxICMPPayload = 65507

// PingSize implements Prober on Linux using an ICMP socket with path MTU
// discovery forced on, so oversized probes fail locally with EMSGSIZE and
// in-path fragmentation needs surface as ICMP Fragmentation Needed.
func (n *Native) PingSize(ctx context.Context, hostname string, payloadBytes int, dontFragment bool) (bool, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return false, NewError(ErrCodeInvalidTarget, err)
	}
	if payloadBytes < 0 || payloadBytes > maxICMPPayload {
		return false, Errorf(ErrCodeInvalidTarget, "payload size %d out of range", payloadBytes)
	}

	dst, err := n.resolveIPv4(ctx, hostname)
	if err != nil {
		return false, ClassifyDNSError(err)
	}

	sockType := unix.SOCK_DGRAM
	if n.privileged {
		sockType = unix.SOCK_RAW
	}
	fd, err := unix.Socket(unix.AF_INET, sockType, unix.IPPROTO_ICMP)
	if err != nil {
		return false, NewError(ErrCodeToolUnavailable, err)
	}
	defer unix.Close(fd)

	pmtuMode := unix.IP_PMTUDISC_DONT
	if dontFragment {
		pmtuMode = unix.IP_PMTUDISC_DO
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, pmtuMode); err != nil {
		return false, NewError(ErrCodeToolUnavailable, err)
	}

	timeout := 3 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return false, nil
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return false, NewError(ErrCodeToolUnavailable, err)
	}

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: payloadBytes & 0xffff, Data: make([]byte, payloadBytes)},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, Errorf(ErrCodeUnknown, "marshal echo: %v", err)
	}

	var sa unix.SockaddrInet4
	copy(sa.Addr[:], dst.To4())
	if err := unix.Sendto(fd, wb, 0, &sa); err != nil {
		if errors.Is(err, unix.EMSGSIZE) {
			// Payload exceeds the local interface MTU with DF set.
			return false, nil
		}
		return false, NewError(ErrCodeToolUnavailable, err)
	}

	rb := make([]byte, 1500+payloadBytes)
	for {
		if err := ctx.Err(); err != nil {
			return false, nil
		}
		nr, _, err := unix.Recvfrom(fd, rb, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				return false, nil // no reply within the probe timeout
			}
			return false, NewError(ErrCodeUnknown, err)
		}

		body := rb[:nr]
		if n.privileged && nr >= 20 {
			// Raw sockets deliver the IP header; skip it.
			ihl := int(body[0]&0x0f) * 4
			if ihl < nr {
				body = body[ihl:nr]
			}
		}

		rm, err := icmp.ParseMessage(icmpProtocol, body)
		if err != nil {
			continue
		}
		switch rm.Type {
		case ipv4.ICMPTypeEchoReply:
			return true, nil
		case ipv4.ICMPTypeDestinationUnreachable:
			// Code 4 is Fragmentation Needed; any unreachable fails the probe.
			return false, nil
		default:
			continue
		}
	}
}
