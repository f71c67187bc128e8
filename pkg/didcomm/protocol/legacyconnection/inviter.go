/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

// Inviter runs a handshake started by the suite.
type Inviter struct {
	agent   Agent
	opts    Options
	machine *machine
	result  *Result
}

// NewInviter returns an inviter handshake. Each Inviter runs once.
func NewInviter(agent Agent, opts Options) *Inviter {
	return &Inviter{
		agent:   agent,
		opts:    opts,
		machine: newMachine(RoleInviter, opts.Observer),
		result:  &Result{},
	}
}

// Run performs the handshake. The returned Result describes how far the handshake got, also on failure.
func (i *Inviter) Run(ctx context.Context) (*Result, error) {
	err := i.run(ctx)
	if err != nil {
		i.machine.abandon()
	}

	i.result.State = i.machine.current.Name()

	return i.result, err
}

func (i *Inviter) run(ctx context.Context) error {
	connectionKey, err := i.invite(ctx)
	if err != nil {
		return err
	}

	request, peer, err := i.awaitRequest(ctx)
	if err != nil {
		return err
	}

	response, myVerKey, err := i.respond(ctx, connectionKey, request, peer)
	if err != nil {
		return err
	}

	if i.opts.SkipAck {
		return i.machine.transition(&done{}, response)
	}

	return i.awaitAck(ctx, response, peer, myVerKey)
}

// invite creates the connection key and hands out the invitation.
func (i *Inviter) invite(ctx context.Context) (string, error) {
	connectionKey, err := i.agent.CreateKey(ctx, "")
	if err != nil {
		return "", &StepError{Step: "create connection key", Err: err}
	}

	invitation := NewInvitation(i.opts.label(InviterLabel), connectionKey, i.opts.Endpoint)
	i.result.Invitation = invitation

	msg, err := message.NewWithoutID(invitation)
	if err != nil {
		return "", &StepError{Step: "build invitation", Err: err}
	}

	switch i.opts.Mode {
	case Manual:
		invitationURL, err := EncodeInvitation(invitation, i.opts.Endpoint)
		if err != nil {
			return "", &StepError{Step: "encode invitation", Message: msg, Err: err}
		}

		i.result.InvitationURL = invitationURL

		if i.opts.Present == nil {
			return "", &StepError{Step: "present invitation", Err: errors.New("no way to present the invitation")}
		}

		if err = i.opts.Present(invitationURL); err != nil {
			return "", &StepError{Step: "present invitation", Message: msg, Err: err}
		}
	default:
		subject := i.opts.Subject
		if subject == nil {
			return "", &StepError{Step: "send invitation", Err: errors.New("no subject to send the invitation to")}
		}

		err = i.agent.Send(ctx, msg, subject.VerKey, subject.FromVerKey, subject.Destination)
		if err != nil {
			return "", &StepError{Step: "send invitation", Message: msg, Err: err}
		}
	}

	i.record(msg)

	return connectionKey, i.machine.transition(&invited{}, msg)
}

// awaitRequest waits for the request and learns the subject's connection details from it.
func (i *Inviter) awaitRequest(ctx context.Context) (message.Message, *Peer, error) {
	if err := i.machine.transition(&awaitingRequest{}, message.Message{}); err != nil {
		return message.Message{}, nil, err
	}

	request, err := i.agent.ExpectMessage(ctx, RequestMsgType, i.opts.timeout())
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "await request", Err: err}
	}

	i.record(request)

	if _, err = schema.ValidateMessage(RequestSchema, request, schema.WithWarnings(i.opts.warn)); err != nil {
		return message.Message{}, nil, &StepError{Step: "validate request", Message: request, Err: err}
	}

	peer, err := peerFrom(request)
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "read request connection", Message: request, Err: err}
	}

	if err = checkController(request, peer.DID); err != nil {
		return message.Message{}, nil, &StepError{Step: "check request DIDDoc controller", Message: request, Err: err}
	}

	i.result.Their = peer

	return request, peer, nil
}

// respond answers the request with a response whose connection is signed with the connection key.
func (i *Inviter) respond(ctx context.Context, connectionKey string, request message.Message,
	peer *Peer) (message.Message, string, error) {
	myDID, myVerKey, err := i.agent.CreateAndStoreDID(ctx, "")
	if err != nil {
		return message.Message{}, "", &StepError{Step: "create DID", Err: err}
	}

	i.result.MyDID, i.result.MyVerKey = myDID, myVerKey

	response, err := message.New(&Response{
		Type:       ResponseMsgType,
		Thread:     decorator.NewThread(request.ID(), 0),
		Connection: newConnection(myDID, myVerKey, i.opts.Endpoint),
	})
	if err != nil {
		return message.Message{}, "", &StepError{Step: "build response", Err: err}
	}

	logger.Debugf("response (pre signature packing): %s", response.Pretty())

	conn, err := response.Get(fieldConnection)
	if err != nil {
		return message.Message{}, "", &StepError{Step: "build response", Message: response, Err: err}
	}

	signed, err := i.agent.SignField(ctx, connectionKey, conn)
	if err != nil {
		return message.Message{}, "", &StepError{Step: "sign connection", Message: response, Err: err}
	}

	signedfield.Embed(response, fieldConnection, signed)

	err = i.agent.Send(ctx, response, peer.VerKey, myVerKey, &transport.Destination{
		RecipientKeys:   []string{peer.VerKey},
		RoutingKeys:     peer.RoutingKeys,
		ServiceEndpoint: peer.Endpoint,
	})
	if err != nil {
		return message.Message{}, "", &StepError{Step: "send response", Message: response, Err: err}
	}

	i.record(response)

	return response, myVerKey, i.machine.transition(&responded{}, response)
}

// awaitAck waits for the subject to acknowledge the response.
func (i *Inviter) awaitAck(ctx context.Context, response message.Message, peer *Peer, myVerKey string) error {
	if err := i.machine.transition(&awaitingAck{}, message.Message{}); err != nil {
		return err
	}

	ack, err := i.agent.ExpectMessage(ctx, i.opts.ackType(), i.opts.timeout())
	if err != nil {
		return &StepError{Step: "await ack", Err: err}
	}

	i.record(ack)

	if _, err = schema.ValidateMessage(AckSchema, ack, schema.WithWarnings(i.opts.warn)); err != nil {
		return &StepError{Step: "validate ack", Message: ack, Err: err}
	}

	if err = checkThread(ack, response.ID()); err != nil {
		return &StepError{Step: "check ack thread", Message: ack, Err: err}
	}

	if err = checkKeys(ack, peer.VerKey, myVerKey); err != nil {
		return &StepError{Step: "check ack keys", Message: ack, Err: err}
	}

	return i.machine.transition(&done{}, ack)
}

func (i *Inviter) record(msg message.Message) {
	i.result.Messages = append(i.result.Messages, msg)
}
