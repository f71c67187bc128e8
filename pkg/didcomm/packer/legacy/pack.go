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
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/poly1305"
)

// Pack will encode the payload argument
// Using the protocol defined by Aries RFC 0019. The envelope is authcrypted when senderKey is set and
// anoncrypted otherwise.
func (p *Packer) Pack(payload []byte, senderKey string, recipients []string) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, errors.New("empty recipients keys, must have at least one recipient")
	}

	nonce := make([]byte, chacha.NonceSize)
	if _, err := p.randSource.Read(nonce); err != nil {
		return nil, fmt.Errorf("pack: failed to generate random nonce: %w", err)
	}

	// cek (content encryption key) is a symmetric key, for chacha20, a symmetric cipher
	_, cek, err := box.GenerateKey(p.randSource)
	if err != nil {
		return nil, fmt.Errorf("pack: failed to generate cek: %w", err)
	}

	alg := anonCrypt
	if senderKey != "" {
		alg = authCrypt
	}

	encodedRecipients, err := p.buildRecipients(cek, senderKey, recipients)
	if err != nil {
		return nil, fmt.Errorf("pack: failed to build recipients: %w", err)
	}

	protectedBytes, err := json.Marshal(protected{
		Enc:        encAlgorithm,
		Typ:        encodingType,
		Alg:        alg,
		Recipients: encodedRecipients,
	})
	if err != nil {
		return nil, err
	}

	protectedEncoded := encode(protectedBytes)

	chachaCipher, err := chacha.New(cek[:])
	if err != nil {
		return nil, err
	}

	// Additional data is b64encode(jsonencode(protected))
	symPld := chachaCipher.Seal(nil, nonce, payload, []byte(protectedEncoded))

	// symPld has a length of len(pld) + poly1035.TagSize
	// fetch the tag from the tail
	tag := symPld[len(symPld)-poly1305.TagSize:]
	// fetch the cipherText from the head (0:up to the trailing tag)
	cipherText := symPld[0 : len(symPld)-poly1305.TagSize]

	return json.Marshal(legacyEnvelope{
		Protected:  protectedEncoded,
		IV:         encode(nonce),
		CipherText: encode(cipherText),
		Tag:        encode(tag),
	})
}

func (p *Packer) buildRecipients(cek *[chacha.KeySize]byte, senderKey string, recipients []string) ([]recipient, error) {
	if senderKey != "" && !p.keys.HasKey(senderKey) {
		return nil, fmt.Errorf("sender key %s not found", senderKey)
	}

	encodedRecipients := make([]recipient, 0, len(recipients))

	for _, recKey := range recipients {
		rec, err := p.buildRecipient(cek, senderKey, recKey)
		if err != nil {
			return nil, fmt.Errorf("recipient %s: %w", recKey, err)
		}

		encodedRecipients = append(encodedRecipients, *rec)
	}

	return encodedRecipients, nil
}

// buildRecipient encodes the necessary data for the recipient to decrypt the message
// encrypting the CEK and, for authcrypt, the sender verkey.
func (p *Packer) buildRecipient(cek *[chacha.KeySize]byte, senderKey, recKey string) (*recipient, error) {
	recPubCurve, err := verKeyToCurve25519(recKey)
	if err != nil {
		return nil, err
	}

	if senderKey == "" {
		encCEK, err := sodiumBoxSeal(cek[:], recPubCurve, p.randSource)
		if err != nil {
			return nil, err
		}

		return &recipient{
			EncryptedKey: encode(encCEK),
			Header:       recipientHeader{KID: recKey},
		}, nil
	}

	nonce := make([]byte, boxNonceSize)

	if _, err = p.randSource.Read(nonce); err != nil {
		return nil, err
	}

	encCEK, err := p.keys.Easy(cek[:], nonce, recPubCurve[:], senderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to box CEK: %w", err)
	}

	encSender, err := sodiumBoxSeal([]byte(senderKey), recPubCurve, p.randSource)
	if err != nil {
		return nil, err
	}

	return &recipient{
		EncryptedKey: encode(encCEK),
		Header: recipientHeader{
			KID:    recKey,
			Sender: encode(encSender),
			IV:     encode(nonce),
		},
	}, nil
}
