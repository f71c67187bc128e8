/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package correlator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

const (
	requestType = "connections/1.0/request"
	ackType     = "notification/1.0/ack"
)

func newMessage(t *testing.T, msgType, id string) message.Message {
	t.Helper()

	msg, err := message.New(map[string]interface{}{"@type": msgType, "@id": id})
	require.NoError(t, err)

	return msg
}

func TestInbox_DeliverBeforeExpect(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	require.NoError(t, inbox.Deliver(newMessage(t, ackType, "a1")))
	require.NoError(t, inbox.Deliver(newMessage(t, requestType, "r1")))
	require.Equal(t, 1, inbox.Pending(requestType))

	msg, err := inbox.Expect(context.Background(), requestType, time.Second)
	require.NoError(t, err)
	require.Equal(t, "r1", msg.ID())

	msg, err = inbox.Expect(context.Background(), ackType, time.Second)
	require.NoError(t, err)
	require.Equal(t, "a1", msg.ID())
}

func TestInbox_ExpectBeforeDeliver(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	type result struct {
		msg message.Message
		err error
	}

	done := make(chan result)

	go func() {
		msg, err := inbox.Expect(context.Background(), requestType, 5*time.Second)
		done <- result{msg: msg, err: err}
	}()

	waitForWaiter(t, inbox, requestType)

	require.NoError(t, inbox.Deliver(newMessage(t, ackType, "other")))
	require.NoError(t, inbox.Deliver(newMessage(t, requestType, "r1")))

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, "r1", res.msg.ID())
	require.Equal(t, 1, inbox.Pending(ackType))
}

func TestInbox_Timeout(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	start := time.Now()
	_, err := inbox.Expect(context.Background(), requestType, 50*time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))
	require.Contains(t, err.Error(), requestType)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// the expectation is gone, so a late message is queued for the next one
	require.NoError(t, inbox.Deliver(newMessage(t, requestType, "late")))

	msg, err := inbox.Expect(context.Background(), requestType, time.Second)
	require.NoError(t, err)
	require.Equal(t, "late", msg.ID())
}

func TestInbox_AlreadyExpecting(t *testing.T) {
	inbox := NewInbox()

	done := make(chan error)

	go func() {
		_, err := inbox.Expect(context.Background(), requestType, 5*time.Second)
		done <- err
	}()

	waitForWaiter(t, inbox, requestType)

	_, err := inbox.Expect(context.Background(), requestType, time.Millisecond)
	require.True(t, errors.Is(err, ErrAlreadyExpecting))

	inbox.Close()
	require.True(t, errors.Is(<-done, ErrClosed))
}

func TestInbox_ContextCancel(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inbox.Expect(ctx, requestType, time.Second)
	require.True(t, errors.Is(err, context.Canceled))

	_, err = inbox.Expect(context.Background(), requestType, time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestInbox_Duplicates(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	require.NoError(t, inbox.Deliver(newMessage(t, requestType, "r1")))
	require.NoError(t, inbox.Deliver(newMessage(t, requestType, "r1")))
	require.Equal(t, 1, inbox.Pending(requestType))
}

func TestInbox_SlotBound(t *testing.T) {
	inbox := NewInbox(WithSlotSize(2), WithDuplicateWindow(10, time.Minute))
	defer inbox.Close()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, inbox.Deliver(newMessage(t, requestType, id)))
	}

	require.Equal(t, 2, inbox.Pending(requestType))

	msg, err := inbox.Expect(context.Background(), requestType, time.Second)
	require.NoError(t, err)
	require.Equal(t, "2", msg.ID())

	inbox.Reset()
	require.Zero(t, inbox.Pending(requestType))
}

func TestInbox_Closed(t *testing.T) {
	inbox := NewInbox()
	inbox.Close()
	inbox.Close()

	require.True(t, errors.Is(inbox.Deliver(newMessage(t, requestType, "r1")), ErrClosed))

	_, err := inbox.Expect(context.Background(), requestType, time.Second)
	require.True(t, errors.Is(err, ErrClosed))
}

func TestInbox_Untyped(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	msg, err := message.New(map[string]interface{}{"@id": "x"})
	require.NoError(t, err)
	require.Error(t, inbox.Deliver(msg))
}

func waitForWaiter(t *testing.T, inbox *Inbox, msgType string) {
	t.Helper()

	require.Eventually(t, func() bool {
		inbox.lock.Lock()
		defer inbox.lock.Unlock()

		_, ok := inbox.waiters[msgType]

		return ok
	}, time.Second, time.Millisecond)
}
