// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package publicip discovers the public source IP of the probing host,
// used to annotate health reports so monitoring can tell which egress a
// run used.
package publicip

import (
	"net"
	"time"

	externalip "github.com/glendc/go-external-ip"

	"github.com/netcheck/netcheck/cache"
)

const cacheExpiration = 2 * time.Hour

// Fetcher returns the host's public IP.
type Fetcher interface {
	IP() (net.IP, error)
}

// ConsensusFetcher asks several well-known services and takes the
// majority answer. Results are cached: the public IP rarely changes
// between scheduled runs.
type ConsensusFetcher struct{}

var _ Fetcher = (*ConsensusFetcher)(nil)

// NewConsensusFetcher returns a cached consensus-based Fetcher.
func NewConsensusFetcher() *ConsensusFetcher {
	return &ConsensusFetcher{}
}

// IP implements Fetcher.
func (f *ConsensusFetcher) IP() (net.IP, error) {
	return cache.GetWithExpiration("source_public_ip", func() (net.IP, error) {
		consensus := externalip.DefaultConsensus(nil, nil)
		if err := consensus.UseIPProtocol(4); err != nil {
			return nil, err
		}
		return consensus.ExternalIP()
	}, cacheExpiration)
}
