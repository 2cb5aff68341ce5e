package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
)

type Kind int

const (
	KindClient Kind = iota
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "client"
	}
}

const maxErrorBody = 4096

// StatusError reports a response that arrived with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api error: %s, body: %s", e.Service, e.Status, e.Body)
}

// CheckResponse returns a *StatusError for non-2xx responses. The body is read
// but not closed.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// TransportError marks a request that was handed to the transport but got no
// response back.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Do sends req and tags any transport failure as a *TransportError. Requests
// that cannot be sent at all come back as a plain *url.Error.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	if err := checkSendable(req); err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && errors.Is(urlErr.Err, context.Canceled) {
			return nil, err
		}
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

func checkSendable(req *http.Request) error {
	var reason error
	switch {
	case req.URL == nil:
		reason = errors.New("missing request URL")
	case req.URL.Scheme != "http" && req.URL.Scheme != "https":
		reason = fmt.Errorf("unsupported protocol scheme %q", req.URL.Scheme)
	case req.URL.Host == "":
		reason = errors.New("no host in request URL")
	default:
		return nil
	}

	target := ""
	if req.URL != nil {
		target = req.URL.String()
	}
	return &url.Error{Op: req.Method, URL: target, Err: reason}
}

// Classify sorts a request failure into server (a response came back with a
// bad status), network (the request went out but nothing usable came back)
// or client (the request never left or was cancelled by the caller).
func Classify(err error) Kind {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return KindServer
	}

	if errors.Is(err, context.Canceled) {
		return KindClient
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if isTransportFailure(urlErr.Err) {
			return KindNetwork
		}
		return KindClient
	}

	if isTransportFailure(err) {
		return KindNetwork
	}
	return KindClient
}

func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
