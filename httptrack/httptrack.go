// Package httptrack reports HTTP traffic to an indicator.Counter.
//
// Transport wraps an http.RoundTripper so that every outgoing request holds an
// activity claim from the moment it is sent until its response body is fully
// read or closed. Middleware does the same for incoming requests, holding a
// claim for as long as the handler runs.
//
// Example usage:
//
//	client := httptrack.NewClient(counter, 10*time.Second)
//	resp, err := client.Get("https://example.com")
//
//	mux.Handle("/", httptrack.Middleware(counter, handler))
package httptrack

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nomis52/netactivity/indicator"
)

// Transport is an http.RoundTripper that counts in-flight requests.
type Transport struct {
	// Base performs the request. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// Counter receives the activity. Defaults to indicator.Default().
	Counter *indicator.Counter
}

// NewClient returns an http.Client whose requests are counted by counter.
func NewClient(counter *indicator.Counter, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &Transport{Counter: counter},
		Timeout:   timeout,
	}
}

// RoundTrip implements http.RoundTripper.
// The claim ends on transport error or panic, when the body reaches EOF, or
// when the body is closed, whichever happens first.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	claim := counterOrDefault(t.Counter).Begin()
	defer func() {
		if r := recover(); r != nil {
			claim.End()
			panic(r)
		}
	}()

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		claim.End()
		return nil, err
	}
	if resp.Body == nil {
		claim.End()
		return resp, nil
	}

	resp.Body = &trackedBody{ReadCloser: resp.Body, claim: claim}
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// trackedBody ends its claim when the body is exhausted or closed.
type trackedBody struct {
	io.ReadCloser
	claim *indicator.Claim
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if errors.Is(err, io.EOF) {
		b.claim.End()
	}
	return n, err
}

func (b *trackedBody) Close() error {
	defer b.claim.End()
	return b.ReadCloser.Close()
}

// Middleware counts each request to next as activity for the lifetime of the
// handler call, including when the handler panics.
func Middleware(counter *indicator.Counter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim := counterOrDefault(counter).Begin()
		defer claim.End()
		next.ServeHTTP(w, r)
	})
}

func counterOrDefault(c *indicator.Counter) *indicator.Counter {
	if c != nil {
		return c
	}
	return indicator.Default()
}
