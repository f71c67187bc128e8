/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/component/log"
)

var logger = log.New("aries-protocol-test/wallet")

// didLength is the number of verkey bytes an indy style DID is made of.
const didLength = 16

// Wallet holds the keys the suite signs and decrypts with. Private keys live in an in-memory local KMS
// for the lifetime of a session and never leave it.
type Wallet struct {
	keys   *keyManager
	crypto *tinkcrypto.Crypto
}

// New returns an empty wallet.
func New() (*Wallet, error) {
	keys, err := newKeyManager()
	if err != nil {
		return nil, err
	}

	cr, err := tinkcrypto.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto: %w", err)
	}

	return &Wallet{keys: keys, crypto: cr}, nil
}

// CreateKey creates an ed25519 key pair and returns its base58 verkey. The same seed always yields the
// same key; an empty seed yields a random key.
func (w *Wallet) CreateKey(seed string) (string, error) {
	verKey, err := w.keys.create(seed)
	if err != nil {
		return "", err
	}

	logger.Debugf("created key %s", verKey)

	return verKey, nil
}

// CreateDID creates a key pair and the indy style DID derived from it: the base58 encoding of the first
// 16 bytes of the verkey.
func (w *Wallet) CreateDID(seed string) (string, string, error) {
	verKey, err := w.CreateKey(seed)
	if err != nil {
		return "", "", err
	}

	did, err := DIDFromVerKey(verKey)
	if err != nil {
		return "", "", err
	}

	return did, verKey, nil
}

// Sign signs data with the private key of verKey.
func (w *Wallet) Sign(verKey string, data []byte) ([]byte, error) {
	kh, err := w.keys.handle(verKey)
	if err != nil {
		return nil, err
	}

	sig, err := w.crypto.Sign(data, kh)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with %s: %w", verKey, err)
	}

	return sig, nil
}

// SignMessage signs data with the private key of verKey.
func (w *Wallet) SignMessage(_ context.Context, verKey string, data []byte) ([]byte, error) {
	return w.Sign(verKey, data)
}

// HasKey reports whether the wallet holds the private key of verKey.
func (w *Wallet) HasKey(verKey string) bool {
	return w.keys.has(verKey)
}

// Easy boxes payload for the curve25519 key theirPub with the private key of myVerKey.
func (w *Wallet) Easy(payload, nonce, theirPub []byte, myVerKey string) ([]byte, error) {
	kid, err := w.keys.kid(myVerKey)
	if err != nil {
		return nil, err
	}

	return w.keys.box.Easy(payload, nonce, theirPub, kid)
}

// EasyOpen opens a payload boxed by the curve25519 key theirPub for myVerKey.
func (w *Wallet) EasyOpen(cipherText, nonce, theirPub []byte, myVerKey string) ([]byte, error) {
	myPub, err := w.heldKey(myVerKey)
	if err != nil {
		return nil, err
	}

	return w.keys.box.EasyOpen(cipherText, nonce, theirPub, myPub)
}

// SealOpen opens an anonymously sealed payload addressed to myVerKey.
func (w *Wallet) SealOpen(cipherText []byte, myVerKey string) ([]byte, error) {
	myPub, err := w.heldKey(myVerKey)
	if err != nil {
		return nil, err
	}

	return w.keys.box.SealOpen(cipherText, myPub)
}

func (w *Wallet) heldKey(verKey string) ([]byte, error) {
	if !w.keys.has(verKey) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, verKey)
	}

	return publicKey(verKey)
}

// DIDFromVerKey derives the indy style DID of a base58 verkey.
func DIDFromVerKey(verKey string) (string, error) {
	pub, err := publicKey(verKey)
	if err != nil {
		return "", err
	}

	return base58.Encode(pub[:didLength]), nil
}
