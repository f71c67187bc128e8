/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetries       = 2
	defaultRetryInterval = 500 * time.Millisecond
)

// outboundCommHTTPOpts holds options for the HTTP transport implementation of CommTransport
// it has an http.Client instance.
type outboundCommHTTPOpts struct {
	client        *http.Client
	contentType   string
	retries       uint64
	retryInterval time.Duration
}

// OutboundHTTPOpt is an outbound HTTP transport option.
type OutboundHTTPOpt func(opts *outboundCommHTTPOpts)

// WithOutboundHTTPClient option is for creating an Outbound HTTP transport using an http.Client instance.
func WithOutboundHTTPClient(client *http.Client) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = client
	}
}

// WithOutboundTimeout option is for creating an Outbound HTTP transport using a client timeout value.
func WithOutboundTimeout(timeout time.Duration) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client.Timeout = timeout
	}
}

// WithOutboundTLSConfig option is for creating an Outbound HTTP transport using a tls.Config instance.
func WithOutboundTLSConfig(tlsConfig *tls.Config) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		}
	}
}

// WithRetries sets how often a failed delivery is retried. Only connection errors and 5xx answers are retried.
func WithRetries(retries uint64, interval time.Duration) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.retries = retries
		opts.retryInterval = interval
	}
}

// WithContentType overrides the Content-Type header of outbound envelopes.
func WithContentType(contentType string) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.contentType = contentType
	}
}

// OutboundHTTPClient represents the Outbound HTTP transport instance.
type OutboundHTTPClient struct {
	client        *http.Client
	contentType   string
	retries       uint64
	retryInterval time.Duration
}

// NewOutbound creates a new instance of Outbound HTTP transport to Post requests to other Agents.
func NewOutbound(opts ...OutboundHTTPOpt) (*OutboundHTTPClient, error) {
	clOpts := &outboundCommHTTPOpts{
		client:        &http.Client{Timeout: defaultTimeout},
		contentType:   transport.MediaTypeAgentWire,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(clOpts)
	}

	if clOpts.client == nil {
		return nil, errors.New("creation of outbound transport requires an HTTP client")
	}

	return &OutboundHTTPClient{
		client:        clOpts.client,
		contentType:   clOpts.contentType,
		retries:       clOpts.retries,
		retryInterval: clOpts.retryInterval,
	}, nil
}

// Send sends a2a exchange data via HTTP (client side).
func (cs *OutboundHTTPClient) Send(ctx context.Context, data []byte, url string) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cs.retryInterval), cs.retries), ctx)

	return backoff.RetryNotify(
		func() error {
			return cs.post(ctx, data, url)
		},
		policy,
		func(retryErr error, t time.Duration) {
			logger.Warnf("posting DID envelope to agent at [%s] failed, will retry in %s: %v", url, t, retryErr)
		},
	)
}

func (cs *OutboundHTTPClient) post(ctx context.Context, data []byte, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return backoff.Permanent(errors.Wrapf(err, "invalid endpoint %s", url))
	}

	req.Header.Set("Content-Type", cs.contentType)

	resp, err := cs.client.Do(req)
	if err != nil {
		logger.Errorf("posting DID envelope to agent failed [%s, %v]", url, err)

		if ctx.Err() != nil {
			return backoff.Permanent(errors.WithStack(ctx.Err()))
		}

		return errors.Wrapf(err, "posting DID envelope to agent at [%s] failed", url)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("closing response body failed: %v", e)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return errors.Wrap(err, "reading response body failed")
	}

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("received non success POST HTTP status from agent at [%s]: status: %v, body: %s",
			url, resp.Status, body)
	default:
		return backoff.Permanent(fmt.Errorf(
			"received non success POST HTTP status from agent at [%s]: status: %v, body: %s",
			url, resp.Status, body))
	}
}

// AcceptRecipient accepts http and https endpoints.
func (cs *OutboundHTTPClient) AcceptRecipient(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
