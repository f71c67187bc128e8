/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package legacy packs and unpacks Aries RFC 0019 envelopes, the encryption envelope used by
// connections/1.0 agents. Authcrypt reveals the sender key to the recipient, Anoncrypt does not.
package legacy

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/packer"
)

const (
	// encodingType is the `typ` string identifier in a message that identifies the format as being legacy.
	encodingType = "JWM/1.0"
	encAlgorithm = "chacha20poly1305_ietf"
	authCrypt    = "Authcrypt"
	anonCrypt    = "Anoncrypt"
)

// Packer represents an Authcrypt/Anoncrypt Pack/Unpacker that outputs/reads legacy Aries envelopes.
type Packer struct {
	randSource io.Reader
	keys       packer.KeyStore
}

// New will create a Packer that encrypts messages using the legacy Aries format.
// Note: legacy Packer does not support XChacha20Poly1035 (XC20P), only Chacha20Poly1035 (C20P).
func New(keys packer.KeyStore) *Packer {
	return &Packer{
		randSource: rand.Reader,
		keys:       keys,
	}
}

// legacyEnvelope is the full payload envelope for the JSON message.
type legacyEnvelope struct {
	Protected  string `json:"protected,omitempty"`
	IV         string `json:"iv,omitempty"`
	CipherText string `json:"ciphertext,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

// protected is the protected header of the JSON envelope.
type protected struct {
	Enc        string      `json:"enc,omitempty"`
	Typ        string      `json:"typ,omitempty"`
	Alg        string      `json:"alg,omitempty"`
	Recipients []recipient `json:"recipients,omitempty"`
}

// recipient holds the data for a recipient in the envelope header.
type recipient struct {
	EncryptedKey string          `json:"encrypted_key,omitempty"`
	Header       recipientHeader `json:"header,omitempty"`
}

// recipientHeader holds the header data for a recipient.
type recipientHeader struct {
	KID    string `json:"kid,omitempty"`
	Sender string `json:"sender,omitempty"`
	IV     string `json:"iv,omitempty"`
}

// EncodingType returns the type of the encoding, as in the `Typ` field of the envelope header.
func (p *Packer) EncodingType() string {
	return encodingType
}

func encode(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

// decode accepts padded and unpadded base64url, agents disagree on padding.
func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
