/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"fmt"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
)

const (
	didContext = "https://w3id.org/did/v1"
	// legacyDIDCommServiceType for aca-py interop.
	legacyDIDCommServiceType   = "IndyAgent"
	ed25519VerificationKey2018 = "Ed25519VerificationKey2018"
)

// newConnection builds the connection payload announcing did, verKey and endpoint.
func newConnection(did, verKey, endpoint string) *Connection {
	return &Connection{
		DID: did,
		DIDDoc: &DIDDoc{
			Context: didContext,
			ID:      did,
			PublicKey: []PublicKey{{
				ID:              did + "#keys-1",
				Type:            ed25519VerificationKey2018,
				Controller:      did,
				PublicKeyBase58: verKey,
			}},
			Service: []Service{{
				ID:              did + ";indy",
				Type:            legacyDIDCommServiceType,
				RecipientKeys:   []string{verKey},
				RoutingKeys:     []string{},
				ServiceEndpoint: endpoint,
			}},
		},
	}
}

const (
	pathVerKey     = "$.connection.DIDDoc.publicKey[0].publicKeyBase58"
	pathController = "$.connection.DIDDoc.publicKey[0].controller"
	pathEndpoint   = "$.connection.DIDDoc.service[0].serviceEndpoint"
)

// peerFrom reads the subject's DID, first key and first service from the connection of a validated
// request or verified response.
func peerFrom(msg message.Message) (*Peer, error) {
	verKey, err := msg.PathString(pathVerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrSchemaViolation, err)
	}

	endpoint, err := msg.PathString(pathEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrSchemaViolation, err)
	}

	conn, err := connectionFrom(msg)
	if err != nil {
		return nil, err
	}

	if conn.DIDDoc == nil || len(conn.DIDDoc.Service) == 0 {
		return nil, fmt.Errorf("%w: DIDDoc of %s has no service", schema.ErrSchemaViolation, conn.DID)
	}

	return &Peer{
		DID:         conn.DID,
		VerKey:      verKey,
		Endpoint:    endpoint,
		RoutingKeys: conn.DIDDoc.Service[0].RoutingKeys,
	}, nil
}

// checkController requires the first DIDDoc key of msg to be controlled by the connection DID.
func checkController(msg message.Message, did string) error {
	controller, err := msg.PathString(pathController)
	if err != nil {
		return fmt.Errorf("%w: %s", schema.ErrSchemaViolation, err)
	}

	if controller != did {
		return &schema.ViolationError{Violations: []schema.Violation{{
			Path:     pathController,
			Expected: did,
			Actual:   controller,
		}}}
	}

	return nil
}

// connectionFrom decodes the connection field of a validated request or verified response.
func connectionFrom(msg message.Message) (*Connection, error) {
	var payload struct {
		Connection *Connection `json:"connection"`
	}

	if err := msg.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode connection: %w", err)
	}

	if payload.Connection == nil {
		return nil, fmt.Errorf("decode connection: %w: %s", message.ErrKeyNotFound, fieldConnection)
	}

	return payload.Connection, nil
}
