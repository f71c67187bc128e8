/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/bluele/gcache"
	"github.com/btcsuite/btcutil/base58"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/util/jwkkid"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/kms"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/kms/localkms"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/secretlock/noop"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"
	"github.com/hyperledger/aries-framework-go/spi/secretlock"
)

// errors.
var (
	// ErrKeyNotFound is returned for verkeys the wallet does not hold.
	ErrKeyNotFound = errors.New("key not found in wallet")

	// ErrInvalidKey is returned for verkeys that are not base58 encoded ed25519 public keys.
	ErrInvalidKey = errors.New("invalid verkey")
)

const (
	hexSeedLength = 2 * ed25519.SeedSize

	primaryKeyURI = "local-lock://aries-protocol-test/master/key/"
)

// keysetStore keeps the local KMS keysets in memory.
// underlying gcache is threadsafe, no need of locks.
type keysetStore struct {
	gstore gcache.Cache
}

func (s *keysetStore) Put(keysetID string, key []byte) error {
	return s.gstore.Set(keysetID, key)
}

func (s *keysetStore) Get(keysetID string) ([]byte, error) {
	v, err := s.gstore.Get(keysetID)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, fmt.Errorf("%w: %s", kms.ErrKeyNotFound, keysetID)
		}

		return nil, err
	}

	key, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %s", kms.ErrKeyNotFound, keysetID)
	}

	return key, nil
}

func (s *keysetStore) Delete(keysetID string) error {
	s.gstore.Remove(keysetID)

	return nil
}

type kmsProvider struct {
	store      kmsapi.Store
	secretLock secretlock.Service
}

func (p *kmsProvider) StorageProvider() kmsapi.Store {
	return p.store
}

func (p *kmsProvider) SecretLock() secretlock.Service {
	return p.secretLock
}

// keyManager imports ed25519 keys into a local KMS and indexes their key IDs by base58 verkey.
type keyManager struct {
	kms  *localkms.LocalKMS
	box  *localkms.CryptoBox
	kids gcache.Cache

	mu sync.Mutex
}

func newKeyManager() (*keyManager, error) {
	lkms, err := localkms.New(primaryKeyURI, &kmsProvider{
		store:      &keysetStore{gstore: gcache.New(0).Build()},
		secretLock: &noop.NoLock{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local kms: %w", err)
	}

	cryptoBox, err := localkms.NewCryptoBox(lkms)
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto box: %w", err)
	}

	return &keyManager{kms: lkms, box: cryptoBox, kids: gcache.New(0).Build()}, nil
}

// create derives a key pair from seed, or from random bytes when seed is empty, and imports it.
// Importing a seed twice returns the key already held.
func (k *keyManager) create(seed string) (string, error) {
	var (
		priv ed25519.PrivateKey
		err  error
	)

	if seed == "" {
		_, priv, err = ed25519.GenerateKey(nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate key: %w", err)
		}
	} else {
		priv = ed25519.NewKeyFromSeed(seedBytes(seed))
	}

	pub := priv.Public().(ed25519.PublicKey)
	verKey := base58.Encode(pub)

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.has(verKey) {
		return verKey, nil
	}

	kid, err := jwkkid.CreateKID(pub, kmsapi.ED25519Type)
	if err != nil {
		return "", fmt.Errorf("failed to create key ID for %s: %w", verKey, err)
	}

	if _, _, err = k.kms.ImportPrivateKey(priv, kmsapi.ED25519Type, kmsapi.WithKeyID(kid)); err != nil {
		return "", fmt.Errorf("failed to import key %s: %w", verKey, err)
	}

	if err = k.kids.Set(verKey, kid); err != nil {
		return "", fmt.Errorf("failed to store key %s: %w", verKey, err)
	}

	return verKey, nil
}

// kid returns the KMS key ID of verKey.
func (k *keyManager) kid(verKey string) (string, error) {
	v, err := k.kids.Get(verKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, verKey)
	}

	kid, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, verKey)
	}

	return kid, nil
}

// handle returns the KMS key handle of verKey.
func (k *keyManager) handle(verKey string) (interface{}, error) {
	kid, err := k.kid(verKey)
	if err != nil {
		return nil, err
	}

	kh, err := k.kms.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("failed to get key handle of %s: %w", verKey, err)
	}

	return kh, nil
}

func (k *keyManager) has(verKey string) bool {
	return k.kids.Has(verKey)
}

// seedBytes turns a configured seed into an ed25519 seed. A 32 byte seed is used as is, 64 hex characters
// are decoded, and anything else is hashed with SHA-256.
func seedBytes(seed string) []byte {
	if len(seed) == ed25519.SeedSize {
		return []byte(seed)
	}

	if len(seed) == hexSeedLength {
		if b, err := hex.DecodeString(seed); err == nil {
			return b
		}
	}

	sum := sha256.Sum256([]byte(seed))

	return sum[:]
}

// publicKey decodes a base58 verkey.
func publicKey(verKey string) (ed25519.PublicKey, error) {
	b := base58.Decode(verKey)
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidKey, verKey, len(b))
	}

	return b, nil
}
