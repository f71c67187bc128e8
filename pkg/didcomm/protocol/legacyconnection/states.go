/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"fmt"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

const (
	// StateIDStart is the state of a handshake that has not exchanged anything yet.
	StateIDStart = "start"
	// StateIDInvited marks the invited phase of the connection protocol.
	StateIDInvited = "invited"
	// StateIDAwaitingRequest marks an inviter waiting for the request.
	StateIDAwaitingRequest = "awaiting-request"
	// StateIDRequested marks an invitee that sent its request.
	StateIDRequested = "requested"
	// StateIDAwaitingResponse marks an invitee waiting for the response.
	StateIDAwaitingResponse = "awaiting-response"
	// StateIDResponded marks the responded phase of the connection protocol.
	StateIDResponded = "responded"
	// StateIDAwaitingAck marks an inviter waiting for the ack.
	StateIDAwaitingAck = "awaiting-ack"
	// StateIDDone marks a completed handshake.
	StateIDDone = "done"
	// StateIDAbandoned marks a handshake aborted by a failure.
	StateIDAbandoned = "abandoned"

	// RoleInviter is the role of the party sending the invitation.
	RoleInviter = "inviter"
	// RoleInvitee is the role of the party receiving the invitation.
	RoleInvitee = "invitee"
)

// The connection protocol's state.
type state interface {
	// Name of this state.
	Name() string

	// CanTransitionTo Whether this state allows transitioning into the next state.
	CanTransitionTo(next state) bool
}

// start state.
type start struct{}

func (s *start) Name() string {
	return StateIDStart
}

func (s *start) CanTransitionTo(next state) bool {
	return StateIDInvited == next.Name() || StateIDAbandoned == next.Name()
}

// invited state, the invitation was sent or received.
type invited struct{}

func (s *invited) Name() string {
	return StateIDInvited
}

func (s *invited) CanTransitionTo(next state) bool {
	return StateIDAwaitingRequest == next.Name() || StateIDRequested == next.Name() ||
		StateIDAbandoned == next.Name()
}

// awaitingRequest state.
type awaitingRequest struct{}

func (s *awaitingRequest) Name() string {
	return StateIDAwaitingRequest
}

func (s *awaitingRequest) CanTransitionTo(next state) bool {
	return StateIDResponded == next.Name() || StateIDAbandoned == next.Name()
}

// requested state.
type requested struct{}

func (s *requested) Name() string {
	return StateIDRequested
}

func (s *requested) CanTransitionTo(next state) bool {
	return StateIDAwaitingResponse == next.Name() || StateIDAbandoned == next.Name()
}

// awaitingResponse state.
type awaitingResponse struct{}

func (s *awaitingResponse) Name() string {
	return StateIDAwaitingResponse
}

func (s *awaitingResponse) CanTransitionTo(next state) bool {
	return StateIDResponded == next.Name() || StateIDAbandoned == next.Name()
}

// responded state.
type responded struct{}

func (s *responded) Name() string {
	return StateIDResponded
}

func (s *responded) CanTransitionTo(next state) bool {
	return StateIDAwaitingAck == next.Name() || StateIDDone == next.Name() || StateIDAbandoned == next.Name()
}

// awaitingAck state.
type awaitingAck struct{}

func (s *awaitingAck) Name() string {
	return StateIDAwaitingAck
}

func (s *awaitingAck) CanTransitionTo(next state) bool {
	return StateIDDone == next.Name() || StateIDAbandoned == next.Name()
}

// done state.
type done struct{}

func (s *done) Name() string {
	return StateIDDone
}

func (s *done) CanTransitionTo(_ state) bool {
	return false
}

// abandoned state.
type abandoned struct{}

func (s *abandoned) Name() string {
	return StateIDAbandoned
}

func (s *abandoned) CanTransitionTo(_ state) bool {
	return false
}

// machine tracks the state of one handshake run.
type machine struct {
	role     string
	current  state
	observer func(StateChange)
}

func newMachine(role string, observer func(StateChange)) *machine {
	return &machine{role: role, current: &start{}, observer: observer}
}

func (m *machine) transition(next state, msg message.Message) error {
	if !m.current.CanTransitionTo(next) {
		return fmt.Errorf("invalid state transition: %s -> %s", m.current.Name(), next.Name())
	}

	change := StateChange{Role: m.role, From: m.current.Name(), To: next.Name(), MsgType: msg.Type(), MsgID: msg.ID()}

	logger.Debugf("%s: %s -> %s", m.role, change.From, change.To)

	m.current = next

	if m.observer != nil {
		m.observer(change)
	}

	return nil
}

// abandon moves to abandoned unless the run already ended.
func (m *machine) abandon() {
	if m.current.CanTransitionTo(&abandoned{}) {
		_ = m.transition(&abandoned{}, message.Message{}) // nolint: errcheck
	}
}
