/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package agent is the suite's own DIDComm agent. It holds the suite keys, serves the inbound
// endpoint and feeds inbound messages to the correlator the handshake engine waits on.
package agent

import (
	"context"
	"net"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/outofforest/parallel"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/correlator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/packer/legacy"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
	httptransport "github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport/http"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport/ws"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/wallet"
)

var logger = log.New("aries-protocol-test/agent")

const defaultInboundAddr = "0.0.0.0:3000"

// Option configures an Agent.
type Option func(opts *Agent)

// WithWallet sets the wallet holding the suite keys.
func WithWallet(w *wallet.Wallet) Option {
	return func(opts *Agent) {
		opts.wallet = w
	}
}

// WithEndpoint sets the endpoint announced to the subject.
func WithEndpoint(endpoint string) Option {
	return func(opts *Agent) {
		opts.endpoint = endpoint
	}
}

// WithInboundAddr sets the address Run listens on.
func WithInboundAddr(addr string) Option {
	return func(opts *Agent) {
		opts.inboundAddr = addr
	}
}

// WithOutboundTransports replaces the default HTTP and WebSocket outbound transports.
func WithOutboundTransports(outbound ...transport.OutboundTransport) Option {
	return func(opts *Agent) {
		opts.outbound = outbound
	}
}

// WithPacker replaces the legacy envelope packer.
func WithPacker(p packer.Packer) Option {
	return func(opts *Agent) {
		opts.packer = p
	}
}

// WithInbox sets the inbox inbound messages are delivered to.
func WithInbox(inbox *correlator.Inbox) Option {
	return func(opts *Agent) {
		opts.inbox = inbox
	}
}

// Agent sends and receives DIDComm messages on behalf of the suite.
type Agent struct {
	wallet      *wallet.Wallet
	endpoint    string
	inboundAddr string
	outbound    []transport.OutboundTransport
	packer      packer.Packer
	inbox       *correlator.Inbox
	fields      *signedfield.Codec
}

// New creates an agent. Without options it has a fresh wallet, an HTTP and a WebSocket outbound
// transport and listens on 0.0.0.0:3000.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{inboundAddr: defaultInboundAddr}

	for _, opt := range opts {
		opt(a)
	}

	if a.wallet == nil {
		w, err := wallet.New()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create wallet")
		}

		a.wallet = w
	}

	if a.inbox == nil {
		a.inbox = correlator.NewInbox()
	}

	if a.packer == nil {
		a.packer = legacy.New(a.wallet)
	}

	if a.outbound == nil {
		httpOutbound, err := httptransport.NewOutbound()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create http outbound transport")
		}

		a.outbound = []transport.OutboundTransport{httpOutbound, ws.NewOutbound()}
	}

	a.fields = signedfield.New(a.wallet)

	return a, nil
}

// Endpoint returns the endpoint announced to the subject.
func (a *Agent) Endpoint() string {
	return a.endpoint
}

// Wallet returns the wallet holding the suite keys.
func (a *Agent) Wallet() *wallet.Wallet {
	return a.wallet
}

// Inbox returns the inbox inbound messages are delivered to.
func (a *Agent) Inbox() *correlator.Inbox {
	return a.inbox
}

// Run listens on the inbound address and serves until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	ls, err := net.Listen("tcp", a.inboundAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", a.inboundAddr)
	}

	return a.Serve(ctx, ls)
}

// Serve serves inbound messages on ls until ctx is done. The inbox is closed on return so that no
// wait outlives the agent.
func (a *Agent) Serve(ctx context.Context, ls net.Listener) error {
	defer a.inbox.Close()

	handler, err := httptransport.NewInboundHandler(a.HandleInbound)
	if err != nil {
		return err
	}

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("inbound", parallel.Fail, func(ctx context.Context) error {
			return httptransport.RunInbound(ctx, ls, handler)
		})

		return nil
	})
}

// HandleInbound unpacks payload and delivers the message it carries.
func (a *Agent) HandleInbound(payload []byte) error {
	env, err := a.packer.Unpack(payload)
	if err != nil {
		return errors.Wrap(err, "failed to unpack inbound message")
	}

	msg, err := message.Parse(env.Message)
	if err != nil {
		return errors.Wrap(err, "failed to parse inbound message")
	}

	msg = msg.WithContext(&message.Context{
		SenderKey:    env.FromKey,
		RecipientKey: env.ToKey,
		Packed:       env.ToKey != "",
	})

	logger.Debugf("received %s from %q", msg.Type(), env.FromKey)

	return a.inbox.Deliver(msg)
}

// ExpectMessage waits for the next inbound message of msgType.
func (a *Agent) ExpectMessage(ctx context.Context, msgType string, timeout time.Duration) (message.Message, error) {
	return a.inbox.Expect(ctx, msgType, timeout)
}

// SignField signs value with verKey as a `~sig` field decorator.
func (a *Agent) SignField(ctx context.Context, verKey string, value interface{}) (*decorator.SignedField, error) {
	return a.fields.Sign(ctx, verKey, value)
}

// VerifySignedField verifies a `~sig` field decorator.
func (a *Agent) VerifySignedField(_ context.Context, field *decorator.SignedField) (*signedfield.Verified, error) {
	return signedfield.Verify(field)
}

// CreateAndStoreDID creates a DID and its verkey in the wallet.
func (a *Agent) CreateAndStoreDID(_ context.Context, seed string) (string, string, error) {
	return a.wallet.CreateDID(seed)
}

// CreateKey creates a signing key in the wallet.
func (a *Agent) CreateKey(_ context.Context, seed string) (string, error) {
	return a.wallet.CreateKey(seed)
}
