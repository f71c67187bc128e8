/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/bluele/gcache"
	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"
	"github.com/teserakt-io/golang-ed25519/extra25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/kms"
)

func newWallet(t *testing.T) *Wallet {
	t.Helper()

	w, err := New()
	require.NoError(t, err)

	return w
}

func TestCreateKey(t *testing.T) {
	w := newWallet(t)

	t.Run("random keys differ", func(t *testing.T) {
		k1, err := w.CreateKey("")
		require.NoError(t, err)

		k2, err := w.CreateKey("")
		require.NoError(t, err)

		require.NotEqual(t, k1, k2)
		require.Len(t, base58.Decode(k1), ed25519.PublicKeySize)
		require.True(t, w.HasKey(k1))
		require.True(t, w.HasKey(k2))
	})

	t.Run("seeded keys are deterministic", func(t *testing.T) {
		raw := strings.Repeat("0", ed25519.SeedSize)
		hexSeed := hex.EncodeToString([]byte(raw))

		fromRaw, err := w.CreateKey(raw)
		require.NoError(t, err)

		fromHex, err := w.CreateKey(hexSeed)
		require.NoError(t, err)

		require.Equal(t, fromRaw, fromHex)

		expected := ed25519.NewKeyFromSeed([]byte(raw)).Public().(ed25519.PublicKey)
		require.Equal(t, base58.Encode(expected), fromRaw)

		again, err := newWallet(t).CreateKey(raw)
		require.NoError(t, err)
		require.Equal(t, fromRaw, again)
	})

	t.Run("other seeds are hashed", func(t *testing.T) {
		verKey, err := w.CreateKey("aries-protocol-test-subject")
		require.NoError(t, err)

		sum := sha256.Sum256([]byte("aries-protocol-test-subject"))
		expected := ed25519.NewKeyFromSeed(sum[:]).Public().(ed25519.PublicKey)
		require.Equal(t, base58.Encode(expected), verKey)

		notHex := strings.Repeat("z", hexSeedLength)
		sum = sha256.Sum256([]byte(notHex))

		verKey, err = w.CreateKey(notHex)
		require.NoError(t, err)
		require.Equal(t, base58.Encode(ed25519.NewKeyFromSeed(sum[:]).Public().(ed25519.PublicKey)), verKey)
	})
}

func TestCreateDID(t *testing.T) {
	w := newWallet(t)

	did, verKey, err := w.CreateDID("")
	require.NoError(t, err)
	require.Equal(t, base58.Encode(base58.Decode(verKey)[:16]), did)
	require.True(t, w.HasKey(verKey))

	_, err = DIDFromVerKey("short")
	require.True(t, errors.Is(err, ErrInvalidKey))
}

func TestSign(t *testing.T) {
	w := newWallet(t)

	seed := strings.Repeat("s", ed25519.SeedSize)

	verKey, err := w.CreateKey(seed)
	require.NoError(t, err)

	data := []byte("sig data")

	sig, err := w.SignMessage(context.Background(), verKey, data)
	require.NoError(t, err)
	require.True(t, ed25519.Verify(base58.Decode(verKey), data, sig))
	require.Equal(t, ed25519.Sign(ed25519.NewKeyFromSeed([]byte(seed)), data), sig)

	t.Run("unknown key", func(t *testing.T) {
		_, err := w.Sign("unknown", data)
		require.True(t, errors.Is(err, ErrKeyNotFound))
		require.False(t, w.HasKey("unknown"))
	})
}

func TestCryptoBox(t *testing.T) {
	sender := newWallet(t)
	recipient := newWallet(t)

	senderKey, err := sender.CreateKey("")
	require.NoError(t, err)

	recipientKey, err := recipient.CreateKey("")
	require.NoError(t, err)

	senderCurve := curvePub(t, senderKey)
	recipientCurve := curvePub(t, recipientKey)

	nonce := make([]byte, 24)
	payload := []byte("content encryption key")

	t.Run("easy", func(t *testing.T) {
		boxed, err := sender.Easy(payload, nonce, recipientCurve, senderKey)
		require.NoError(t, err)

		opened, err := recipient.EasyOpen(boxed, nonce, senderCurve, recipientKey)
		require.NoError(t, err)
		require.Equal(t, payload, opened)

		_, err = sender.Easy(payload, nonce, recipientCurve, "unknown")
		require.True(t, errors.Is(err, ErrKeyNotFound))

		_, err = sender.EasyOpen(boxed, nonce, senderCurve, recipientKey)
		require.True(t, errors.Is(err, ErrKeyNotFound))
	})

	t.Run("seal", func(t *testing.T) {
		var recPub [32]byte

		copy(recPub[:], recipientCurve)

		sealed, err := box.SealAnonymous(nil, payload, &recPub, rand.Reader)
		require.NoError(t, err)

		opened, err := recipient.SealOpen(sealed, recipientKey)
		require.NoError(t, err)
		require.Equal(t, payload, opened)

		_, err = sender.SealOpen(sealed, recipientKey)
		require.True(t, errors.Is(err, ErrKeyNotFound))
	})
}

func TestKeysetStore(t *testing.T) {
	s := &keysetStore{gstore: gcache.New(0).Build()}

	_, err := s.Get("missing")
	require.True(t, errors.Is(err, kms.ErrKeyNotFound))

	require.NoError(t, s.Put("id", []byte("keyset")))

	v, err := s.Get("id")
	require.NoError(t, err)
	require.Equal(t, []byte("keyset"), v)

	require.NoError(t, s.Delete("id"))

	_, err = s.Get("id")
	require.True(t, errors.Is(err, kms.ErrKeyNotFound))
}

func curvePub(t *testing.T, verKey string) []byte {
	t.Helper()

	var (
		edPub [ed25519.PublicKeySize]byte
		out   [32]byte
	)

	copy(edPub[:], base58.Decode(verKey))
	require.True(t, extra25519.PublicKeyToCurve25519(&out, &edPub))

	return out[:]
}
