/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
)

// Decorators are accepted silently, any other key not named by a schema is reported as a developer note.
// nolint:gochecknoglobals
var (
	decorators = schema.CatchAll{Match: schema.KeyPrefix("~"), Value: schema.TypeOf(schema.Any)}
	extraKeys  = schema.CatchAll{Match: schema.AnyKey, Value: schema.TypeOf(schema.Any), Warn: true}
)

// ThreadSchema validates the ~thread decorator.
// nolint:gochecknoglobals
var ThreadSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"thid": schema.TypeOf(schema.String),
	},
	Optional: map[string]schema.Schema{
		"pthid":        schema.TypeOf(schema.String),
		"sender_order": schema.TypeOf(schema.Int),
		"received_orders": &schema.ObjectSchema{
			CatchAlls: []schema.CatchAll{{Match: schema.AnyKey, Value: schema.TypeOf(schema.Int)}},
		},
	},
	CatchAlls: []schema.CatchAll{extraKeys},
}

// DIDDocSchema validates the DID document of a connection payload.
// nolint:gochecknoglobals
var DIDDocSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@context": schema.Literal(didContext),
		"id":       schema.TypeOf(schema.String),
		"publicKey": schema.ListOf(&schema.ObjectSchema{
			Required: map[string]schema.Schema{
				"id":              schema.TypeOf(schema.String),
				"type":            schema.Literal(ed25519VerificationKey2018),
				"controller":      schema.TypeOf(schema.String),
				"publicKeyBase58": schema.TypeOf(schema.String),
			},
			CatchAlls: []schema.CatchAll{extraKeys},
		}),
		"service": schema.ListOf(&schema.ObjectSchema{
			Required: map[string]schema.Schema{
				"id":              schema.TypeOf(schema.String),
				"type":            schema.Literal(legacyDIDCommServiceType),
				"recipientKeys":   schema.ListOf(schema.TypeOf(schema.String)),
				"routingKeys":     schema.ListOf(schema.TypeOf(schema.String)),
				"serviceEndpoint": schema.TypeOf(schema.String),
			},
			CatchAlls: []schema.CatchAll{extraKeys},
		}),
	},
	CatchAlls: []schema.CatchAll{extraKeys},
}

// ConnectionSchema validates the plaintext connection payload.
// nolint:gochecknoglobals
var ConnectionSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"DID":    schema.TypeOf(schema.String),
		"DIDDoc": DIDDocSchema,
	},
	CatchAlls: []schema.CatchAll{extraKeys},
}

// CreateInvitationSchema validates the create_invitation control message.
// nolint:gochecknoglobals
var CreateInvitationSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@type": schema.Literal(CreateInvitationMsgType),
		"@id":   schema.TypeOf(schema.String),
	},
	CatchAlls: []schema.CatchAll{decorators, extraKeys},
}

// InvitationSchema validates an invitation. Invitations are the root of a handshake, so @id is optional.
// nolint:gochecknoglobals
var InvitationSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@type":           schema.Literal(InvitationMsgType),
		"label":           schema.TypeOf(schema.String),
		"recipientKeys":   schema.ListOf(schema.TypeOf(schema.String)),
		"routingKeys":     schema.ListOf(schema.TypeOf(schema.String)),
		"serviceEndpoint": schema.TypeOf(schema.String),
	},
	Optional: map[string]schema.Schema{
		"@id": schema.TypeOf(schema.String),
	},
	CatchAlls: []schema.CatchAll{decorators, extraKeys},
}

// RequestSchema validates a connection request.
// nolint:gochecknoglobals
var RequestSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@type":         schema.Literal(RequestMsgType),
		"@id":           schema.TypeOf(schema.String),
		"label":         schema.TypeOf(schema.String),
		fieldConnection: ConnectionSchema,
	},
	CatchAlls: []schema.CatchAll{decorators, extraKeys},
}

// ResponseSchemaPreSigVerify validates a connection response before its connection is verified.
// nolint:gochecknoglobals
var ResponseSchemaPreSigVerify = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@type":   schema.Literal(ResponseMsgType),
		"@id":     schema.TypeOf(schema.String),
		"~thread": ThreadSchema,
		"connection~sig": &schema.ObjectSchema{
			Required: map[string]schema.Schema{
				"@type":     schema.TypeOf(schema.String),
				"signature": schema.TypeOf(schema.Bytes),
				"sig_data":  schema.TypeOf(schema.Bytes),
				"signer":    schema.TypeOf(schema.String),
			},
			CatchAlls: []schema.CatchAll{extraKeys},
		},
	},
	CatchAlls: []schema.CatchAll{decorators, extraKeys},
}

// ResponseSchemaPostSigVerify validates a connection response once connection~sig was replaced by the
// verified connection.
// nolint:gochecknoglobals
var ResponseSchemaPostSigVerify = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"@type":         schema.Literal(ResponseMsgType),
		"@id":           schema.TypeOf(schema.String),
		"~thread":       ThreadSchema,
		fieldConnection: ConnectionSchema,
	},
	CatchAlls: []schema.CatchAll{decorators, extraKeys},
}

// AckSchema validates an ack. The status is lowercased in place.
// nolint:gochecknoglobals
var AckSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		"status":  schema.All(schema.TypeOf(schema.String), schema.Lower(), schema.Enum("ok", "pending", "fail")),
		"~thread": ThreadSchema,
	},
	CatchAlls: []schema.CatchAll{{Match: schema.AnyKey, Value: schema.TypeOf(schema.Any)}},
}
