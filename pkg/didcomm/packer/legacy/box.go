/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacy

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/base58"
	"github.com/teserakt-io/golang-ed25519/extra25519"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"
)

const (
	curveKeySize = 32
	boxNonceSize = 24
)

// publicEd25519toCurve25519 takes an Ed25519 public key and provides the corresponding Curve25519 public key.
func publicEd25519toCurve25519(pub []byte) (*[curveKeySize]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has %d bytes, expected %d", len(pub), ed25519.PublicKeySize)
	}

	var edPub [ed25519.PublicKeySize]byte

	copy(edPub[:], pub)

	pkOut := new([curveKeySize]byte)
	if !extra25519.PublicKeyToCurve25519(pkOut, &edPub) {
		return nil, errors.New("failed to convert public key")
	}

	return pkOut, nil
}

// verKeyToCurve25519 decodes a base58 verkey into its Curve25519 public key.
func verKeyToCurve25519(verKey string) (*[curveKeySize]byte, error) {
	return publicEd25519toCurve25519(base58.Decode(verKey))
}

// makeNonce builds a nonce using blake2b, to match the format expected by libsodium.
func makeNonce(pub1, pub2 []byte) (*[boxNonceSize]byte, error) {
	var nonce [boxNonceSize]byte

	nonceWriter, err := blake2b.New(boxNonceSize, nil)
	if err != nil {
		return nil, err
	}

	if _, err = nonceWriter.Write(pub1); err != nil {
		return nil, err
	}

	if _, err = nonceWriter.Write(pub2); err != nil {
		return nil, err
	}

	copy(nonce[:], nonceWriter.Sum(nil))

	return &nonce, nil
}

// sodiumBoxSeal encrypts msg for recPub with an ephemeral sender key, this is equivalent to
// libsodium's crypto_box_seal().
func sodiumBoxSeal(msg []byte, recPub *[curveKeySize]byte, randSource io.Reader) ([]byte, error) {
	epk, esk, err := box.GenerateKey(randSource)
	if err != nil {
		return nil, err
	}

	nonce, err := makeNonce(epk[:], recPub[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, curveKeySize)
	copy(out, epk[:])

	return box.Seal(out, msg, nonce, recPub, esk), nil
}
