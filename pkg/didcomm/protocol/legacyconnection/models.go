/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
)

// Invitation model
//
// Invitation defines Connection protocol invitation message
// https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol#0-invitation-to-connect
type Invitation struct {
	// the Type of the connection invitation
	Type string `json:"@type"`

	// the ID of the connection invitation, absent on invitations built by the suite
	ID string `json:"@id,omitempty"`

	// the Label of the connection invitation
	Label string `json:"label"`

	// the RecipientKeys for the connection invitation
	RecipientKeys []string `json:"recipientKeys"`

	// the RoutingKeys of the connection invitation
	RoutingKeys []string `json:"routingKeys"`

	// the Service endpoint of the connection invitation
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Request defines a2a Connection request
// https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol#1-connection-request
type Request struct {
	Type       string      `json:"@type"`
	ID         string      `json:"@id,omitempty"`
	Label      string      `json:"label"`
	Connection *Connection `json:"connection"`
}

// Response defines a2a Connection response
// https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol#2-connection-response
type Response struct {
	Type       string            `json:"@type"`
	ID         string            `json:"@id,omitempty"`
	Thread     *decorator.Thread `json:"~thread"`
	Connection *Connection       `json:"connection"`
}

// Ack acknowledges the connection response.
type Ack struct {
	Type   string            `json:"@type"`
	ID     string            `json:"@id,omitempty"`
	Status string            `json:"status"`
	Thread *decorator.Thread `json:"~thread"`
}

// CreateInvitation asks an agent to create an invitation and send it back.
type CreateInvitation struct {
	Type string `json:"@type"`
	ID   string `json:"@id,omitempty"`
}

// Connection defines connection body of connection request.
type Connection struct {
	DID    string  `json:"DID"`
	DIDDoc *DIDDoc `json:"DIDDoc"`
}

// DIDDoc is the indy flavoured DID document exchanged in the connection payload.
type DIDDoc struct {
	Context   string      `json:"@context"`
	ID        string      `json:"id"`
	PublicKey []PublicKey `json:"publicKey"`
	Service   []Service   `json:"service"`
}

// PublicKey is a DID document verification key.
type PublicKey struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyBase58 string `json:"publicKeyBase58"`
}

// Service is a DID document agent endpoint.
type Service struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	RecipientKeys   []string `json:"recipientKeys"`
	RoutingKeys     []string `json:"routingKeys"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// Peer is what a handshake learns about the other party from its connection payload.
type Peer struct {
	DID         string
	VerKey      string
	Endpoint    string
	RoutingKeys []string
}
