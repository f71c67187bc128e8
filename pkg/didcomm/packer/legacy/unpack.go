/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacy

import (
	"encoding/json"
	"errors"
	"fmt"

	chacha "golang.org/x/crypto/chacha20poly1305"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

// ErrNoRecipientKey is returned when none of the envelope recipients is held by the key store.
var ErrNoRecipientKey = errors.New("no recipient key accessible")

// Unpack will decode the envelope using the legacy format
// Using (X)Chacha20 encryption algorithm and Poly1035 authenticator. A plaintext DIDComm message, a JSON
// object carrying @type, is passed through without keys.
func (p *Packer) Unpack(envelope []byte) (*transport.Envelope, error) {
	if isPlaintext(envelope) {
		return &transport.Envelope{Message: envelope}, nil
	}

	var envelopeData legacyEnvelope

	if err := json.Unmarshal(envelope, &envelopeData); err != nil {
		return nil, fmt.Errorf("unpack: invalid envelope: %w", err)
	}

	protectedBytes, err := decode(envelopeData.Protected)
	if err != nil {
		return nil, fmt.Errorf("unpack: failed to decode protected header: %w", err)
	}

	var protectedData protected

	if err = json.Unmarshal(protectedBytes, &protectedData); err != nil {
		return nil, fmt.Errorf("unpack: invalid protected header: %w", err)
	}

	if protectedData.Typ != encodingType {
		return nil, fmt.Errorf("message type %s not supported", protectedData.Typ)
	}

	if protectedData.Alg != authCrypt && protectedData.Alg != anonCrypt {
		return nil, fmt.Errorf("message format %s not supported", protectedData.Alg)
	}

	keys, err := p.getCEK(protectedData.Recipients, protectedData.Alg == authCrypt)
	if err != nil {
		return nil, err
	}

	data, err := decodeCipherText(keys.cek, &envelopeData)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	return &transport.Envelope{
		Message: data,
		FromKey: keys.theirKey,
		ToKey:   keys.myKey,
	}, nil
}

func isPlaintext(envelope []byte) bool {
	var msg map[string]json.RawMessage

	if err := json.Unmarshal(envelope, &msg); err != nil {
		return false
	}

	_, ok := msg["@type"]

	return ok
}

type keys struct {
	cek      *[chacha.KeySize]byte
	theirKey string
	myKey    string
}

func (p *Packer) getCEK(recipients []recipient, auth bool) (*keys, error) {
	var (
		recip *recipient
		tried []string
	)

	for i := range recipients {
		if p.keys.HasKey(recipients[i].Header.KID) {
			recip = &recipients[i]

			break
		}

		tried = append(tried, recipients[i].Header.KID)
	}

	if recip == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecipientKey, tried)
	}

	encCEK, err := decode(recip.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted key: %w", err)
	}

	out := &keys{myKey: recip.Header.KID}

	var cekSlice []byte

	if auth {
		out.theirKey, cekSlice, err = p.openAuthCEK(recip, encCEK)
	} else {
		cekSlice, err = p.keys.SealOpen(encCEK, recip.Header.KID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decrypt CEK: %w", err)
	}

	if len(cekSlice) != chacha.KeySize {
		return nil, fmt.Errorf("failed to decrypt CEK: %d bytes", len(cekSlice))
	}

	var cek [chacha.KeySize]byte

	copy(cek[:], cekSlice)
	out.cek = &cek

	return out, nil
}

// openAuthCEK reveals the sender verkey and opens the CEK the sender boxed for us.
func (p *Packer) openAuthCEK(recip *recipient, encCEK []byte) (string, []byte, error) {
	encSender, err := decode(recip.Header.Sender)
	if err != nil {
		return "", nil, err
	}

	senderKey, err := p.keys.SealOpen(encSender, recip.Header.KID)
	if err != nil {
		return "", nil, fmt.Errorf("sender: %w", err)
	}

	senderCurvePub, err := verKeyToCurve25519(string(senderKey))
	if err != nil {
		return "", nil, fmt.Errorf("sender: %w", err)
	}

	nonce, err := decode(recip.Header.IV)
	if err != nil {
		return "", nil, err
	}

	if len(nonce) != boxNonceSize {
		return "", nil, fmt.Errorf("nonce has %d bytes", len(nonce))
	}

	cek, err := p.keys.EasyOpen(encCEK, nonce, senderCurvePub[:], recip.Header.KID)
	if err != nil {
		return "", nil, err
	}

	return string(senderKey), cek, nil
}

// decodeCipherText decodes (from base64) and decrypts the ciphertext using chacha20poly1305.
func decodeCipherText(cek *[chacha.KeySize]byte, envelope *legacyEnvelope) ([]byte, error) {
	aad := []byte(envelope.Protected)

	cipherText, err := decode(envelope.CipherText)
	if err != nil {
		return nil, err
	}

	nonce, err := decode(envelope.IV)
	if err != nil {
		return nil, err
	}

	tag, err := decode(envelope.Tag)
	if err != nil {
		return nil, err
	}

	if len(nonce) != chacha.NonceSize {
		return nil, fmt.Errorf("iv has %d bytes", len(nonce))
	}

	chachaCipher, err := chacha.New(cek[:])
	if err != nil {
		return nil, err
	}

	payload := append(cipherText, tag...) // nolint: gocritic

	return chachaCipher.Open(nil, nonce, payload, aad)
}
