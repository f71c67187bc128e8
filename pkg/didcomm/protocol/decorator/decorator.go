/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decorator

// SignatureType is the message type of a single ed25519 signed field.
const SignatureType = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/signature/1.0/ed25519Sha512_single"

// Thread thread data.
type Thread struct {
	ID             string         `json:"thid"`
	PID            string         `json:"pthid,omitempty"`
	SenderOrder    *int           `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

// NewThread returns a thread decorator replying to the message with the given id.
func NewThread(thid string, senderOrder int) *Thread {
	return &Thread{ID: thid, SenderOrder: &senderOrder}
}

// SignedField is a field value replaced by its signature envelope, as in `connection~sig`.
type SignedField struct {
	Type       string `json:"@type"`
	Signature  string `json:"signature"`
	SignedData string `json:"sig_data"`
	SignVerKey string `json:"signer"`
}

// SignedKey returns the key a signed field is stored under for the given field name.
func SignedKey(field string) string {
	return field + "~sig"
}
