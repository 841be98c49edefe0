// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorCode classifies probe failures per protocol.
type ErrorCode string

const (
	// ErrCodeDNSNoRecords indicates resolution returned no addresses.
	ErrCodeDNSNoRecords ErrorCode = "DNS_NO_RECORDS"
	// ErrCodeDNSTimeout indicates resolution timed out.
	ErrCodeDNSTimeout ErrorCode = "DNS_TIMEOUT"
	// ErrCodeToolUnavailable indicates the backend lacks the capability
	// to run this probe at all (e.g. no raw socket privilege).
	ErrCodeToolUnavailable ErrorCode = "NO_TOOL_AVAILABLE"
	// ErrCodePingUnreachable indicates no echo reply was received.
	ErrCodePingUnreachable ErrorCode = "PING_UNREACHABLE"
	// ErrCodePingTimeout indicates the ping run timed out.
	ErrCodePingTimeout ErrorCode = "PING_TIMEOUT"
	// ErrCodeHTTPResolve indicates the HTTP fetch failed at DNS resolution.
	ErrCodeHTTPResolve ErrorCode = "HTTP_RESOLVE"
	// ErrCodeHTTPConnect indicates the TCP connection was refused or unroutable.
	ErrCodeHTTPConnect ErrorCode = "HTTP_CONNECT"
	// ErrCodeHTTPTLS indicates a TLS handshake or certificate failure.
	ErrCodeHTTPTLS ErrorCode = "HTTP_TLS"
	// ErrCodeHTTPTimeout indicates the fetch exceeded its deadline.
	ErrCodeHTTPTimeout ErrorCode = "HTTP_TIMEOUT"
	// ErrCodeHTTPEmptyReply indicates the server closed without a response.
	ErrCodeHTTPEmptyReply ErrorCode = "HTTP_EMPTY_REPLY"
	// ErrCodeHTTPOther is the catch-all for other HTTP transport failures.
	ErrCodeHTTPOther ErrorCode = "HTTP_OTHER"
	// ErrCodeBandwidthTransfer indicates the measurement transfer failed.
	ErrCodeBandwidthTransfer ErrorCode = "BANDWIDTH_TRANSFER_FAILED"
	// ErrCodeTracerouteTimeout indicates hop tracing exceeded its deadline.
	ErrCodeTracerouteTimeout ErrorCode = "TRACEROUTE_TIMEOUT"
	// ErrCodeTracerouteFailed indicates hop tracing failed outright.
	ErrCodeTracerouteFailed ErrorCode = "TRACEROUTE_FAILED"
	// ErrCodeMTUNotFound indicates no probed size ever fit the path.
	ErrCodeMTUNotFound ErrorCode = "NO_VALID_MTU_FOUND"
	// ErrCodeInvalidTarget indicates the input was rejected before probing.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"
	// ErrCodeUnknown is the catch-all for unclassified errors.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Error is a classified probe failure.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err under the given code.
func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Code extracts the ErrorCode from an error chain, or ErrCodeUnknown.
func Code(err error) ErrorCode {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ErrCodeUnknown
}

// ClassifyDNSError maps a resolution failure to a DNS error code.
func ClassifyDNSError(err error) *Error {
	if err == nil {
		return nil
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return NewError(ErrCodeDNSTimeout, err)
		}
		return NewError(ErrCodeDNSNoRecords, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(ErrCodeDNSTimeout, err)
	}
	return NewError(ErrCodeDNSNoRecords, err)
}

// ClassifyHTTPError maps a fetch failure to an HTTP error code by
// inspecting the error chain, mirroring curl-style failure buckets.
func ClassifyHTTPError(err error) *Error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewError(ErrCodeHTTPResolve, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(ErrCodeHTTPTimeout, err)
	}

	var recordErr tls.RecordHeaderError
	var certErr x509.CertificateInvalidError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &hostnameErr) {
		return NewError(ErrCodeHTTPTLS, err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return NewError(ErrCodeHTTPEmptyReply, err)
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return NewError(ErrCodeHTTPConnect, err)
		case syscall.ETIMEDOUT:
			return NewError(ErrCodeHTTPTimeout, err)
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return NewError(ErrCodeHTTPTimeout, err)
		}
		return NewError(ErrCodeHTTPConnect, err)
	}

	return NewError(ErrCodeHTTPOther, err)
}
