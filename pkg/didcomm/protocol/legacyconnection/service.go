/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"context"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

var logger = log.New("aries-protocol-test/legacyconnection")

const (
	// MessageTypePrefix is the indy style prefix of every message type of this protocol family.
	MessageTypePrefix = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/"
	// ConnectionSpec is the connection protocol spec prefix.
	ConnectionSpec = MessageTypePrefix + "connections/1.0/"
	// InvitationMsgType defines the Connection invite message type.
	InvitationMsgType = ConnectionSpec + "invitation"
	// RequestMsgType defines the Connection request message type.
	RequestMsgType = ConnectionSpec + "request"
	// ResponseMsgType defines the Connection response message type.
	ResponseMsgType = ConnectionSpec + "response"
	// CreateInvitationMsgType asks the subject to create an invitation for the suite.
	CreateInvitationMsgType = ConnectionSpec + "create_invitation"
	// ConnectionAckMsgType is the connection specific ack type some agents send.
	ConnectionAckMsgType = ConnectionSpec + "ack"
	// AckMsgType defines the notification ack message type.
	AckMsgType = MessageTypePrefix + "notification/1.0/ack"

	// DefaultTimeout bounds every wait for a message from the subject.
	DefaultTimeout = 30 * time.Second

	// InviterLabel labels the invitations the suite creates.
	InviterLabel = "test-suite-connection-started-by-suite"
	// InviteeLabel labels the requests the suite sends.
	InviteeLabel = "test-connection-started-by-tested-agent"

	fieldConnection = "connection"
	ackStatusOK     = "OK"
)

//go:generate mockgen -destination ../../../internal/gomocks/didcomm/protocol/legacyconnection/mocks.gen.go -package mock_legacyconnection . Agent

// Agent is the collaborator that moves messages and holds keys for the handshake engine.
type Agent interface {
	// Send packs msg for theirVerKey, authenticated by fromVerKey when it is not empty, and delivers it.
	Send(ctx context.Context, msg message.Message, theirVerKey, fromVerKey string, dest *transport.Destination) error
	// ExpectMessage waits for the next inbound message of msgType.
	ExpectMessage(ctx context.Context, msgType string, timeout time.Duration) (message.Message, error)
	// SignField signs value with verKey as a `~sig` field decorator.
	SignField(ctx context.Context, verKey string, value interface{}) (*decorator.SignedField, error)
	// VerifySignedField verifies a `~sig` field decorator.
	VerifySignedField(ctx context.Context, field *decorator.SignedField) (*signedfield.Verified, error)
	// CreateAndStoreDID creates a DID and its verkey. An empty seed creates a random one.
	CreateAndStoreDID(ctx context.Context, seed string) (string, string, error)
	// CreateKey creates a signing key. An empty seed creates a random one.
	CreateKey(ctx context.Context, seed string) (string, error)
}

// Mode tells how the handshake is started.
type Mode int

const (
	// Auto drives the subject with control messages.
	Auto Mode = iota
	// Manual exchanges the invitation out of band through a person operating the subject.
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "manual"
	}

	return "auto"
}

// Subject is how the suite reaches the agent under test outside of a handshake.
type Subject struct {
	// VerKey is the subject's well known key.
	VerKey string
	// FromVerKey is the suite key that authenticates control messages.
	FromVerKey string
	// Destination is the subject's service.
	Destination *transport.Destination
}

// Options configures one handshake run.
type Options struct {
	// Mode selects between auto and manual start.
	Mode Mode
	// Label overrides the default label of the invitation or request.
	Label string
	// Endpoint is the suite's own inbound endpoint announced to the subject.
	Endpoint string
	// Timeout bounds every wait, DefaultTimeout when zero.
	Timeout time.Duration
	// Subject is used in Auto mode.
	Subject *Subject
	// Present shows an invitation URL to the operator in Manual mode.
	Present func(invitationURL string) error
	// InvitationURL obtains an invitation URL from the operator in Manual mode.
	InvitationURL func(ctx context.Context) (string, error)
	// AckType is the ack message type the inviter awaits from the subject and the invitee sends to it,
	// AckMsgType when empty.
	AckType string
	// SkipAck ends an inviter run once the response is sent, as the manual flows do.
	SkipAck bool
	// Warn receives developer notes, such as unexpected keys in validated messages.
	Warn func(string)
	// Observer is notified of every state change.
	Observer func(StateChange)
}

func (o *Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}

	return o.Timeout
}

func (o *Options) ackType() string {
	if o.AckType == "" {
		return AckMsgType
	}

	return o.AckType
}

func (o *Options) label(fallback string) string {
	if o.Label == "" {
		return fallback
	}

	return o.Label
}

func (o *Options) warn(note string) {
	logger.Warnf("%s", note)

	if o.Warn != nil {
		o.Warn(note)
	}
}

// Result describes a completed handshake.
type Result struct {
	// State is the final state, StateIDDone unless the run ended early on purpose.
	State string
	// Invitation is the invitation the handshake started from.
	Invitation *Invitation
	// InvitationURL is set when the invitation was exchanged out of band.
	InvitationURL string
	// MyDID and MyVerKey identify the suite side of the connection.
	MyDID    string
	MyVerKey string
	// Their describes the subject side of the connection.
	Their *Peer
	// Messages holds every protocol message sent or received, in order.
	Messages []message.Message
}
