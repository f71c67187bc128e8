/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import "context"

// Destination provides the recipientKeys, routingKeys, and serviceEndpoint of an outbound message.
type Destination struct {
	RecipientKeys   []string
	RoutingKeys     []string
	ServiceEndpoint string
}

// OutboundTransport interface definition for transport layer
// This is the client side of the agent.
type OutboundTransport interface {
	// Send sends a packed envelope to the endpoint.
	Send(ctx context.Context, data []byte, endpoint string) error

	// AcceptRecipient checks whether the transport can reach the endpoint.
	AcceptRecipient(endpoint string) bool
}

// Envelope holds message data and metadata for inbound and outbound messaging.
type Envelope struct {
	Message []byte
	// FromKey is the sender verkey, empty for anonymous envelopes and plaintext messages.
	FromKey string
	// ToKey is the recipient verkey the envelope was decrypted with.
	ToKey string
}

// InboundMessageHandler handles the inbound requests. The transport will hand over the raw envelope,
// unpacking is done by the handler.
type InboundMessageHandler func(payload []byte) error
