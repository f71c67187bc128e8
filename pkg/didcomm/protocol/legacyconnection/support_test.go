/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/correlator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

const (
	suiteEndpoint   = "http://suite.example:3000/indy"
	subjectEndpoint = "https://x"
)

type sentMessage struct {
	msg      message.Message
	theirKey string
	fromKey  string
	dest     *transport.Destination
}

// keyring holds ed25519 keys by base58 verkey.
type keyring struct {
	lock sync.Mutex
	keys map[string]ed25519.PrivateKey
}

func newKeyring() *keyring {
	return &keyring{keys: map[string]ed25519.PrivateKey{}}
}

func (k *keyring) create(t *testing.T) string {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	verKey := base58.Encode(pub)

	k.lock.Lock()
	defer k.lock.Unlock()

	k.keys[verKey] = priv

	return verKey
}

func (k *keyring) SignMessage(_ context.Context, verKey string, data []byte) ([]byte, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	priv, ok := k.keys[verKey]
	if !ok {
		return nil, fmt.Errorf("no key %s", verKey)
	}

	return ed25519.Sign(priv, data), nil
}

func didFor(verKey string) string {
	return base58.Encode(base58.Decode(verKey)[:16])
}

// fakeAgent is an in-memory Agent. Messages it sends are handed to onSend, which plays the subject.
type fakeAgent struct {
	t      *testing.T
	keys   *keyring
	codec  *signedfield.Codec
	inbox  *correlator.Inbox
	sent   []sentMessage
	onSend func(sentMessage)
	dids   []string
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()

	keys := newKeyring()
	inbox := correlator.NewInbox()

	t.Cleanup(inbox.Close)

	return &fakeAgent{t: t, keys: keys, codec: signedfield.New(keys), inbox: inbox}
}

func (a *fakeAgent) Send(_ context.Context, msg message.Message, theirVerKey, fromVerKey string,
	dest *transport.Destination) error {
	sent := sentMessage{msg: msg.Clone(), theirKey: theirVerKey, fromKey: fromVerKey, dest: dest}
	a.sent = append(a.sent, sent)

	if a.onSend != nil {
		a.onSend(sent)
	}

	return nil
}

func (a *fakeAgent) ExpectMessage(ctx context.Context, msgType string, timeout time.Duration) (message.Message, error) {
	return a.inbox.Expect(ctx, msgType, timeout)
}

func (a *fakeAgent) SignField(ctx context.Context, verKey string, value interface{}) (*decorator.SignedField, error) {
	return a.codec.Sign(ctx, verKey, value)
}

func (a *fakeAgent) VerifySignedField(_ context.Context, field *decorator.SignedField) (*signedfield.Verified, error) {
	return signedfield.Verify(field)
}

func (a *fakeAgent) CreateAndStoreDID(_ context.Context, _ string) (string, string, error) {
	verKey := a.keys.create(a.t)
	did := didFor(verKey)
	a.dids = append(a.dids, did)

	return did, verKey, nil
}

func (a *fakeAgent) CreateKey(_ context.Context, _ string) (string, error) {
	return a.keys.create(a.t), nil
}

// deliver hands msg to the agent as if it arrived from sender for recipient.
func (a *fakeAgent) deliver(msg message.Message, sender, recipient string) {
	require.NoError(a.t, a.inbox.Deliver(msg.WithContext(&message.Context{
		SenderKey: sender, RecipientKey: recipient, Packed: true,
	})))
}

// testSubject plays the agent under test.
type testSubject struct {
	keys   *keyring
	did    string
	verKey string
}

func newTestSubject(t *testing.T) *testSubject {
	t.Helper()

	keys := newKeyring()
	verKey := keys.create(t)

	return &testSubject{keys: keys, did: didFor(verKey), verKey: verKey}
}

func (s *testSubject) request(t *testing.T) message.Message {
	t.Helper()

	msg, err := message.New(&Request{
		Type:       RequestMsgType,
		Label:      "subject",
		Connection: newConnection(s.did, s.verKey, subjectEndpoint),
	})
	require.NoError(t, err)

	return msg
}

func (s *testSubject) invitation(t *testing.T, label string) message.Message {
	t.Helper()

	msg, err := message.NewWithoutID(NewInvitation(label, s.verKey, subjectEndpoint))
	require.NoError(t, err)

	return msg
}

// response answers request, signing the connection with signingKey.
func (s *testSubject) response(t *testing.T, thid, signingKey string) message.Message {
	t.Helper()

	msg, err := message.New(&Response{
		Type:       ResponseMsgType,
		Thread:     decorator.NewThread(thid, 0),
		Connection: newConnection(s.did, s.verKey, subjectEndpoint),
	})
	require.NoError(t, err)

	conn, err := msg.Get(fieldConnection)
	require.NoError(t, err)

	signed, err := signedfield.New(s.keys).Sign(context.Background(), signingKey, conn)
	require.NoError(t, err)

	signedfield.Embed(msg, fieldConnection, signed)

	return msg
}

func (s *testSubject) ack(t *testing.T, thid, status string) message.Message {
	t.Helper()

	msg, err := message.New(&Ack{Type: AckMsgType, Status: status, Thread: &decorator.Thread{ID: thid}})
	require.NoError(t, err)

	return msg
}

func (s *testSubject) destination() *Subject {
	return &Subject{
		VerKey:      s.verKey,
		FromVerKey:  "suite-key",
		Destination: &transport.Destination{ServiceEndpoint: subjectEndpoint},
	}
}

// didKeyFor encodes an ed25519 verkey as did:key.
func didKeyFor(t *testing.T, verKey string) string {
	t.Helper()

	encoded, err := multibase.Encode(multibase.Base58BTC, append([]byte{0xed, 0x01}, base58.Decode(verKey)...))
	require.NoError(t, err)

	return "did:key:" + encoded
}
