// Package reversedns resolves IP addresses back to hostnames, used to
// annotate traceroute output with the name of the last responding hop.
package reversedns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// lookupAddrFn is a variable to ease testing.
var lookupAddrFn = defaultLookupAddr

// Lookup returns the PTR names for ipAddr, trailing dots stripped. The
// parent context bounds the lookup, capped at a short internal timeout so
// enrichment never dominates the time spent on a probe.
func Lookup(ctx context.Context, ipAddr string) ([]string, error) {
	if ipAddr == "" {
		return nil, errors.New("empty IP address")
	}
	lctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rawNames, err := lookupAddrFn(lctx, ipAddr)
	if err != nil {
		return nil, fmt.Errorf("reverse dns lookup for %s: %w", ipAddr, err)
	}

	names := make([]string, 0, len(rawNames))
	for _, name := range rawNames {
		names = append(names, strings.TrimSuffix(name, "."))
	}
	return names, nil
}
