/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package packer

import (
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

// KeyStore runs the box operations of a Packer with the private keys of the local agent,
// so the keys never leave the store. theirPub is always a curve25519 public key.
type KeyStore interface {
	HasKey(verKey string) bool
	Easy(payload, nonce, theirPub []byte, myVerKey string) ([]byte, error)
	EasyOpen(cipherText, nonce, theirPub []byte, myVerKey string) ([]byte, error)
	SealOpen(cipherText []byte, myVerKey string) ([]byte, error)
}

// Packer is an Aries envelope packer/unpacker to support
// secure DIDComm exchange of envelopes between Aries agents.
type Packer interface {
	// Pack a payload in an Aries compliant format using the sender verkey
	// and a list of recipients verkeys. An empty sender packs anonymously.
	// returns:
	// 		[]byte containing the encrypted envelope
	//		error if encryption failed
	Pack(payload []byte, senderKey string, recipients []string) ([]byte, error)
	// Unpack an envelope in an Aries compliant format.
	// 		The recipient's key will be the one found in the KeyStore that matches one of the list of
	// 		recipients in the envelope
	//
	// returns:
	// 		Envelope containing the message, decryption key, and sender key
	//		error if decryption failed
	Unpack(envelope []byte) (*transport.Envelope, error)

	// EncodingType returns the type of the encoding, as found in the header `Typ` field
	EncodingType() string
}
