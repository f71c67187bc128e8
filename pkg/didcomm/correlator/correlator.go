/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package correlator hands inbound messages to the protocol step waiting for them.
//
// Messages are kept in one FIFO slot per message type until a step asks for that type with Expect.
// Only one Expect per type may be outstanding at a time.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

const (
	defaultSlotSize = 16
	defaultSeenSize = 1024
	defaultSeenTTL  = 5 * time.Minute
)

var logger = log.New("aries-protocol-test/correlator")

var (
	// ErrTimeout is returned when no message of the expected type arrived in time.
	ErrTimeout = errors.New("timed out waiting for message")
	// ErrAlreadyExpecting is returned when a second Expect is made for a type already awaited.
	ErrAlreadyExpecting = errors.New("already expecting message type")
	// ErrClosed is returned once the inbox is closed.
	ErrClosed = errors.New("inbox closed")
)

// Option configures an Inbox.
type Option func(*Inbox)

// WithSlotSize bounds the number of queued messages per type.
func WithSlotSize(n int) Option {
	return func(i *Inbox) {
		i.slotSize = n
	}
}

// WithDuplicateWindow sets how long a delivered @id is remembered.
func WithDuplicateWindow(size int, ttl time.Duration) Option {
	return func(i *Inbox) {
		i.seen = gcache.New(size).LRU().Expiration(ttl).Build()
	}
}

// Inbox correlates inbound messages with waiting protocol steps.
type Inbox struct {
	lock     sync.Mutex
	slots    map[string][]message.Message
	waiters  map[string]chan message.Message
	seen     gcache.Cache
	slotSize int
	closed   bool
	done     chan struct{}
}

// NewInbox creates an empty inbox.
func NewInbox(opts ...Option) *Inbox {
	i := &Inbox{
		slots:    map[string][]message.Message{},
		waiters:  map[string]chan message.Message{},
		seen:     gcache.New(defaultSeenSize).LRU().Expiration(defaultSeenTTL).Build(),
		slotSize: defaultSlotSize,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Deliver queues msg or hands it to the step waiting for its type.
func (i *Inbox) Deliver(msg message.Message) error {
	msgType := msg.Type()
	if msgType == "" {
		return fmt.Errorf("deliver: message has no @type")
	}

	i.lock.Lock()
	defer i.lock.Unlock()

	if i.closed {
		return ErrClosed
	}

	if id := msg.ID(); id != "" {
		if i.seen.Has(id) {
			logger.Debugf("dropping duplicate message %s of type %s", id, msgType)

			return nil
		}

		if err := i.seen.Set(id, struct{}{}); err != nil {
			return fmt.Errorf("deliver: remember message id: %w", err)
		}
	}

	if waiter, ok := i.waiters[msgType]; ok {
		delete(i.waiters, msgType)
		waiter <- msg

		return nil
	}

	slot := append(i.slots[msgType], msg)
	if len(slot) > i.slotSize {
		logger.Warnf("slot for %s is full, dropping oldest message %s", msgType, slot[0].ID())

		slot = slot[1:]
	}

	i.slots[msgType] = slot

	return nil
}

// Expect returns the next message of msgType, waiting up to timeout for it to arrive.
func (i *Inbox) Expect(ctx context.Context, msgType string, timeout time.Duration) (message.Message, error) {
	ch, msg, err := i.register(msgType)
	if err != nil || ch == nil {
		return msg, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg = <-ch:
		return msg, nil
	case <-ctx.Done():
		i.unregister(msgType, ch)

		return message.Message{}, ctx.Err()
	case <-timer.C:
		i.unregister(msgType, ch)

		return message.Message{}, fmt.Errorf("%w: %s after %s", ErrTimeout, msgType, timeout)
	case <-i.done:
		return message.Message{}, ErrClosed
	}
}

func (i *Inbox) register(msgType string) (chan message.Message, message.Message, error) {
	i.lock.Lock()
	defer i.lock.Unlock()

	if i.closed {
		return nil, message.Message{}, ErrClosed
	}

	if _, ok := i.waiters[msgType]; ok {
		return nil, message.Message{}, fmt.Errorf("%w: %s", ErrAlreadyExpecting, msgType)
	}

	if slot := i.slots[msgType]; len(slot) > 0 {
		i.slots[msgType] = slot[1:]

		return nil, slot[0], nil
	}

	ch := make(chan message.Message, 1)
	i.waiters[msgType] = ch

	return ch, message.Message{}, nil
}

// unregister drops the waiter. A message that raced into the channel goes back to the front of its slot.
func (i *Inbox) unregister(msgType string, ch chan message.Message) {
	i.lock.Lock()
	defer i.lock.Unlock()

	if i.waiters[msgType] == ch {
		delete(i.waiters, msgType)

		return
	}

	select {
	case msg := <-ch:
		i.slots[msgType] = append([]message.Message{msg}, i.slots[msgType]...)
	default:
	}
}

// Pending returns the number of queued messages of msgType.
func (i *Inbox) Pending(msgType string) int {
	i.lock.Lock()
	defer i.lock.Unlock()

	return len(i.slots[msgType])
}

// Reset drops every queued message. Outstanding waits are kept.
func (i *Inbox) Reset() {
	i.lock.Lock()
	defer i.lock.Unlock()

	i.slots = map[string][]message.Message{}
}

// Close cancels every outstanding wait with ErrClosed and rejects further deliveries.
func (i *Inbox) Close() {
	i.lock.Lock()
	defer i.lock.Unlock()

	if i.closed {
		return
	}

	i.closed = true
	i.waiters = map[string]chan message.Message{}
	close(i.done)
}
