/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signedfield packs and unpacks the `~sig` field decorator used by the connections protocol.
//
// A signed field replaces a message field with an envelope whose sig_data is an 8 byte big endian
// unix timestamp followed by the JSON of the original value, signed with ed25519 by the signer's
// verkey.
package signedfield

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/mitchellh/mapstructure"
	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
)

const (
	timestampLength = 8
	didKeyPrefix    = "did:key:"
)

// nolint:gochecknoglobals
var ed25519Multicodec = []byte{0xed, 0x01}

// ErrSignatureInvalid is matched by every verification failure.
var ErrSignatureInvalid = errors.New("signature invalid")

// Signer signs data with the private key of a verkey held by the caller's wallet.
type Signer interface {
	SignMessage(ctx context.Context, verKey string, data []byte) ([]byte, error)
}

// Verified is the outcome of a successful verification.
type Verified struct {
	Value     interface{}
	Signer    string
	Timestamp time.Time
}

// Codec signs field values.
type Codec struct {
	signer Signer
	now    func() time.Time
}

// New returns a codec signing through signer.
func New(signer Signer) *Codec {
	return &Codec{signer: signer, now: time.Now}
}

// Sign wraps value into a signed field. value itself is not modified.
func (c *Codec) Sign(ctx context.Context, verKey string, value interface{}) (*decorator.SignedField, error) {
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed value : %w", err)
	}

	timestampBuf := make([]byte, timestampLength)
	binary.BigEndian.PutUint64(timestampBuf, uint64(c.now().Unix()))

	sigData := append(timestampBuf, valueBytes...)

	signature, err := c.signer.SignMessage(ctx, verKey, sigData)
	if err != nil {
		return nil, fmt.Errorf("signing data: %w", err)
	}

	return &decorator.SignedField{
		Type:       decorator.SignatureType,
		SignedData: base64.URLEncoding.EncodeToString(sigData),
		SignVerKey: verKey,
		Signature:  base64.URLEncoding.EncodeToString(signature),
	}, nil
}

// Verify checks the signature of field and returns the original value.
func Verify(field *decorator.SignedField) (*Verified, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: no signed field", ErrSignatureInvalid)
	}

	sigData, err := decodeBase64(field.SignedData)
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature data: %s", ErrSignatureInvalid, err)
	}

	if len(sigData) <= timestampLength {
		return nil, fmt.Errorf("%w: missing signed value bytes", ErrSignatureInvalid)
	}

	signature, err := decodeBase64(field.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature: %s", ErrSignatureInvalid, err)
	}

	pubKey, err := PublicKey(field.SignVerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, err)
	}

	if !ed25519.Verify(pubKey, sigData, signature) {
		return nil, fmt.Errorf("%w: signature does not match signer %s", ErrSignatureInvalid, field.SignVerKey)
	}

	var value interface{}

	if err = json.Unmarshal(sigData[timestampLength:], &value); err != nil {
		return nil, fmt.Errorf("%w: JSON unmarshalling of signed value: %s", ErrSignatureInvalid, err)
	}

	return &Verified{
		Value:     value,
		Signer:    field.SignVerKey,
		Timestamp: time.Unix(int64(binary.BigEndian.Uint64(sigData[:timestampLength])), 0).UTC(),
	}, nil
}

// Extract reads the signed form of field from msg.
func Extract(msg message.Message, field string) (*decorator.SignedField, error) {
	raw, err := msg.Object(decorator.SignedKey(field))
	if err != nil {
		return nil, err
	}

	signed := &decorator.SignedField{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: signed})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize decoder : %w", err)
	}

	if err = decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, err)
	}

	return signed, nil
}

// Embed replaces field in msg with its signed form.
func Embed(msg message.Message, field string, signed *decorator.SignedField) {
	msg.Delete(field)
	msg.Set(decorator.SignedKey(field), map[string]interface{}{
		"@type":     signed.Type,
		"signature": signed.Signature,
		"sig_data":  signed.SignedData,
		"signer":    signed.SignVerKey,
	})
}

// Unembed replaces the signed form of field in msg with the verified value.
func Unembed(msg message.Message, field string, verified *Verified) {
	msg.Delete(decorator.SignedKey(field))
	msg.Set(field, verified.Value)
}

// PublicKey decodes a base58 verkey or an ed25519 did:key.
func PublicKey(verKey string) (ed25519.PublicKey, error) {
	var raw []byte

	if strings.HasPrefix(verKey, didKeyPrefix) {
		_, decoded, err := multibase.Decode(strings.TrimPrefix(verKey, didKeyPrefix))
		if err != nil {
			return nil, fmt.Errorf("decode did:key %s: %w", verKey, err)
		}

		if len(decoded) < len(ed25519Multicodec) || decoded[0] != ed25519Multicodec[0] ||
			decoded[1] != ed25519Multicodec[1] {
			return nil, fmt.Errorf("did:key %s is not an ed25519 key", verKey)
		}

		raw = decoded[len(ed25519Multicodec):]
	} else {
		raw = base58.Decode(verKey)
	}

	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verkey %q has invalid length %d", verKey, len(raw))
	}

	return raw, nil
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.URLEncoding.DecodeString(s)
	}

	return base64.RawURLEncoding.DecodeString(s)
}
