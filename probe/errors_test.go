// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package probe

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "dns timeout",
			err:  &net.DNSError{Err: "i/o timeout", Name: "example.com", IsTimeout: true},
			want: ErrCodeDNSTimeout,
		},
		{
			name: "dns not found",
			err:  &net.DNSError{Err: "no such host", Name: "example.com", IsNotFound: true},
			want: ErrCodeDNSNoRecords,
		},
		{
			name: "wrapped dns error",
			err:  fmt.Errorf("resolving: %w", &net.DNSError{Err: "no such host"}),
			want: ErrCodeDNSNoRecords,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: ErrCodeDNSTimeout,
		},
		{
			name: "anything else is no records",
			err:  errors.New("boom"),
			want: ErrCodeDNSNoRecords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyDNSError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.want, classified.Code)
		})
	}

	assert.Nil(t, ClassifyDNSError(nil))
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "resolve failure",
			err:  &net.DNSError{Err: "no such host", Name: "example.com"},
			want: ErrCodeHTTPResolve,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("fetching: %w", context.DeadlineExceeded),
			want: ErrCodeHTTPTimeout,
		},
		{
			name: "unknown authority",
			err:  x509.UnknownAuthorityError{},
			want: ErrCodeHTTPTLS,
		},
		{
			name: "hostname mismatch",
			err:  x509.HostnameError{Certificate: &x509.Certificate{}, Host: "example.com"},
			want: ErrCodeHTTPTLS,
		},
		{
			name: "empty reply",
			err:  io.EOF,
			want: ErrCodeHTTPEmptyReply,
		},
		{
			name: "connection reset",
			err:  &net.OpError{Op: "read", Err: syscall.ECONNRESET},
			want: ErrCodeHTTPEmptyReply,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: ErrCodeHTTPConnect,
		},
		{
			name: "host unreachable",
			err:  syscall.EHOSTUNREACH,
			want: ErrCodeHTTPConnect,
		},
		{
			name: "socket timeout",
			err:  syscall.ETIMEDOUT,
			want: ErrCodeHTTPTimeout,
		},
		{
			name: "unclassified",
			err:  errors.New("boom"),
			want: ErrCodeHTTPOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyHTTPError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.want, classified.Code)
		})
	}

	assert.Nil(t, ClassifyHTTPError(nil))
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodePingTimeout, Code(Errorf(ErrCodePingTimeout, "timed out")))
	wrapped := fmt.Errorf("pinging: %w", Errorf(ErrCodePingUnreachable, "no replies"))
	assert.Equal(t, ErrCodePingUnreachable, Code(wrapped))
	assert.Equal(t, ErrCodeUnknown, Code(errors.New("boom")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := syscall.ECONNREFUSED
	err := NewError(ErrCodeHTTPConnect, cause)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
}
