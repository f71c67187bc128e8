/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

var (
	// ErrMalformedInvitation is returned for invitation URLs that cannot be decoded.
	ErrMalformedInvitation = errors.New("malformed invitation")
	// ErrThreadMismatch is returned when a reply does not reference the message it answers.
	ErrThreadMismatch = errors.New("thread mismatch")
	// ErrKeyMismatch is returned when a message was not exchanged between the expected keys.
	ErrKeyMismatch = errors.New("key mismatch")
)

// ThreadMismatchError carries the expected and actual thread ids.
type ThreadMismatchError struct {
	MsgType  string
	Expected string
	Actual   string
}

func (e *ThreadMismatchError) Error() string {
	return fmt.Sprintf("%s: %s ~thread.thid is %q, expected %q", ErrThreadMismatch, e.MsgType, e.Actual, e.Expected)
}

// Unwrap returns ErrThreadMismatch.
func (e *ThreadMismatchError) Unwrap() error {
	return ErrThreadMismatch
}

// KeyMismatchError carries the expected and actual envelope keys.
type KeyMismatchError struct {
	Role     string
	Expected string
	Actual   string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("%s: %s key is %q, expected %q", ErrKeyMismatch, e.Role, e.Actual, e.Expected)
}

// Unwrap returns ErrKeyMismatch.
func (e *KeyMismatchError) Unwrap() error {
	return ErrKeyMismatch
}

// StepError is a failed handshake step together with the message it was processing.
type StepError struct {
	Step    string
	Message message.Message
	Err     error
}

func (e *StepError) Error() string {
	if e.Message.IsZero() {
		return fmt.Sprintf("%s: %s", e.Step, e.Err)
	}

	return fmt.Sprintf("%s: %s\nmessage:\n%s", e.Step, e.Err, e.Message.Pretty())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func checkThread(msg message.Message, expected string) error {
	if actual := msg.ThreadID(); actual != expected {
		return &ThreadMismatchError{MsgType: msg.Type(), Expected: expected, Actual: actual}
	}

	return nil
}

// checkKeys compares the envelope keys of an inbound message. Keys the transport did not expose are
// not compared.
func checkKeys(msg message.Message, sender, recipient string) error {
	ctx := msg.Context()

	if ctx.SenderKey != "" && ctx.SenderKey != sender {
		return &KeyMismatchError{Role: "sender", Expected: sender, Actual: ctx.SenderKey}
	}

	if ctx.RecipientKey != "" && ctx.RecipientKey != recipient {
		return &KeyMismatchError{Role: "recipient", Expected: recipient, Actual: ctx.RecipientKey}
	}

	return nil
}
