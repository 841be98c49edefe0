// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

//go:build !linux

package probe

import (
	"context"
	"runtime"

	"github.com/netcheck/netcheck/target"
)

const maxICMPPayload = 65507

// PingSize implements Prober. Don't-fragment echo probes need the
// IP_MTU_DISCOVER socket option, which is only wired up on Linux.
func (n *Native) PingSize(ctx context.Context, hostname string, payloadBytes int, dontFragment bool) (bool, error) {
	if err := target.ValidateHostname(hostname); err != nil {
		return false, NewError(ErrCodeInvalidTarget, err)
	}
	return false, Errorf(ErrCodeToolUnavailable, "don't-fragment probes are not supported on %s", runtime.GOOS)
}
