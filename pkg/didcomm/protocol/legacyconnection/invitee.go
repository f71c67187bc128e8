/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

// Invitee runs a handshake started by the subject.
type Invitee struct {
	agent   Agent
	opts    Options
	machine *machine
	result  *Result
}

// NewInvitee returns an invitee handshake. Each Invitee runs once.
func NewInvitee(agent Agent, opts Options) *Invitee {
	return &Invitee{
		agent:   agent,
		opts:    opts,
		machine: newMachine(RoleInvitee, opts.Observer),
		result:  &Result{},
	}
}

// Run performs the handshake. The returned Result describes how far the handshake got, also on failure.
func (i *Invitee) Run(ctx context.Context) (*Result, error) {
	err := i.run(ctx)
	if err != nil {
		i.machine.abandon()
	}

	i.result.State = i.machine.current.Name()

	return i.result, err
}

func (i *Invitee) run(ctx context.Context) error {
	invitation, err := i.obtainInvitation(ctx)
	if err != nil {
		return err
	}

	request, myVerKey, err := i.request(ctx, invitation)
	if err != nil {
		return err
	}

	response, peer, err := i.awaitResponse(ctx, invitation, request)
	if err != nil {
		return err
	}

	if i.opts.SkipAck {
		return i.machine.transition(&done{}, response)
	}

	return i.acknowledge(ctx, response, peer, myVerKey)
}

// obtainInvitation asks the subject for an invitation, or reads one from the operator.
func (i *Invitee) obtainInvitation(ctx context.Context) (*Invitation, error) {
	var (
		msg message.Message
		err error
	)

	switch i.opts.Mode {
	case Manual:
		if i.opts.InvitationURL == nil {
			return nil, &StepError{Step: "read invitation", Err: errors.New("no way to obtain an invitation")}
		}

		invitationURL, err := i.opts.InvitationURL(ctx)
		if err != nil {
			return nil, &StepError{Step: "read invitation", Err: err}
		}

		i.result.InvitationURL = invitationURL

		msg, err = DecodeInvitationMessage(invitationURL)
		if err != nil {
			return nil, &StepError{Step: "decode invitation", Err: err}
		}
	default:
		msg, err = i.requestInvitation(ctx)
		if err != nil {
			return nil, err
		}
	}

	i.record(msg)

	if _, err = schema.ValidateMessage(InvitationSchema, msg, schema.WithWarnings(i.opts.warn)); err != nil {
		return nil, &StepError{Step: "validate invitation", Message: msg, Err: err}
	}

	invitation := &Invitation{}

	if err = msg.Decode(invitation); err != nil {
		return nil, &StepError{Step: "decode invitation", Message: msg, Err: err}
	}

	if len(invitation.RecipientKeys) == 0 {
		return nil, &StepError{Step: "validate invitation", Message: msg, Err: &schema.ViolationError{
			Violations: []schema.Violation{{Path: "$.recipientKeys", Expected: "at least one key", Actual: "list of 0"}},
		}}
	}

	i.result.Invitation = invitation

	return invitation, i.machine.transition(&invited{}, msg)
}

func (i *Invitee) requestInvitation(ctx context.Context) (message.Message, error) {
	subject := i.opts.Subject
	if subject == nil {
		return message.Message{}, &StepError{Step: "request invitation", Err: errors.New("no subject to ask")}
	}

	createInvitation, err := message.New(&CreateInvitation{Type: CreateInvitationMsgType})
	if err != nil {
		return message.Message{}, &StepError{Step: "request invitation", Err: err}
	}

	if _, err = schema.ValidateMessage(CreateInvitationSchema, createInvitation); err != nil {
		return message.Message{}, &StepError{Step: "validate create_invitation", Message: createInvitation, Err: err}
	}

	err = i.agent.Send(ctx, createInvitation, subject.VerKey, subject.FromVerKey, subject.Destination)
	if err != nil {
		return message.Message{}, &StepError{Step: "request invitation", Message: createInvitation, Err: err}
	}

	msg, err := i.agent.ExpectMessage(ctx, InvitationMsgType, i.opts.timeout())
	if err != nil {
		return message.Message{}, &StepError{Step: "await invitation", Err: err}
	}

	return msg, nil
}

// request sends a connection request to the invitation's first recipient key.
func (i *Invitee) request(ctx context.Context, invitation *Invitation) (message.Message, string, error) {
	myDID, myVerKey, err := i.agent.CreateAndStoreDID(ctx, "")
	if err != nil {
		return message.Message{}, "", &StepError{Step: "create DID", Err: err}
	}

	i.result.MyDID, i.result.MyVerKey = myDID, myVerKey

	request, err := message.New(&Request{
		Type:       RequestMsgType,
		Label:      i.opts.label(InviteeLabel),
		Connection: newConnection(myDID, myVerKey, i.opts.Endpoint),
	})
	if err != nil {
		return message.Message{}, "", &StepError{Step: "build request", Err: err}
	}

	err = i.agent.Send(ctx, request, invitation.RecipientKeys[0], myVerKey, &transport.Destination{
		RecipientKeys:   invitation.RecipientKeys,
		RoutingKeys:     invitation.RoutingKeys,
		ServiceEndpoint: invitation.ServiceEndpoint,
	})
	if err != nil {
		return message.Message{}, "", &StepError{Step: "send request", Message: request, Err: err}
	}

	i.record(request)

	if err = i.machine.transition(&requested{}, request); err != nil {
		return message.Message{}, "", err
	}

	return request, myVerKey, i.machine.transition(&awaitingResponse{}, message.Message{})
}

// awaitResponse waits for the response, verifies its signed connection and checks its thread.
func (i *Invitee) awaitResponse(ctx context.Context, invitation *Invitation,
	request message.Message) (message.Message, *Peer, error) {
	response, err := i.agent.ExpectMessage(ctx, ResponseMsgType, i.opts.timeout())
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "await response", Err: err}
	}

	i.record(response)

	if _, err = schema.ValidateMessage(ResponseSchemaPreSigVerify, response,
		schema.WithWarnings(i.opts.warn)); err != nil {
		return message.Message{}, nil, &StepError{Step: "validate response", Message: response, Err: err}
	}

	signed, err := signedfield.Extract(response, fieldConnection)
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "verify connection signature", Message: response, Err: err}
	}

	verified, err := i.agent.VerifySignedField(ctx, signed)
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "verify connection signature", Message: response, Err: err}
	}

	if err = checkSigner(verified.Signer, invitation.RecipientKeys[0]); err != nil {
		return message.Message{}, nil, &StepError{Step: "verify connection signature", Message: response, Err: err}
	}

	signedfield.Unembed(response, fieldConnection, verified)

	if _, err = schema.ValidateMessage(ResponseSchemaPostSigVerify, response,
		schema.WithWarnings(i.opts.warn)); err != nil {
		return message.Message{}, nil, &StepError{Step: "validate verified response", Message: response, Err: err}
	}

	if err = checkThread(response, request.ID()); err != nil {
		return message.Message{}, nil, &StepError{Step: "check response thread", Message: response, Err: err}
	}

	peer, err := peerFrom(response)
	if err != nil {
		return message.Message{}, nil, &StepError{Step: "read response connection", Message: response, Err: err}
	}

	i.result.Their = peer

	return response, peer, i.machine.transition(&responded{}, response)
}

// acknowledge acks the response to the key and endpoint of the subject's DIDDoc.
func (i *Invitee) acknowledge(ctx context.Context, response message.Message, peer *Peer, myVerKey string) error {
	ack, err := message.New(&Ack{
		Type:   i.opts.ackType(),
		Status: ackStatusOK,
		Thread: &decorator.Thread{ID: response.ID()},
	})
	if err != nil {
		return &StepError{Step: "build ack", Err: err}
	}

	err = i.agent.Send(ctx, ack, peer.VerKey, myVerKey, &transport.Destination{
		RecipientKeys:   []string{peer.VerKey},
		RoutingKeys:     peer.RoutingKeys,
		ServiceEndpoint: peer.Endpoint,
	})
	if err != nil {
		return &StepError{Step: "send ack", Message: ack, Err: err}
	}

	i.record(ack)

	return i.machine.transition(&done{}, ack)
}

func (i *Invitee) record(msg message.Message) {
	i.result.Messages = append(i.result.Messages, msg)
}

// checkSigner requires the connection to be signed by the key the invitation was issued for. Base58 and
// did:key forms of the same key are equal.
func checkSigner(signer, invitationKey string) error {
	signerKey, err := signedfield.PublicKey(signer)
	if err != nil {
		return fmt.Errorf("%w: %s", signedfield.ErrSignatureInvalid, err)
	}

	expectedKey, err := signedfield.PublicKey(invitationKey)
	if err != nil {
		return &KeyMismatchError{Role: "signer", Expected: invitationKey, Actual: signer}
	}

	if !bytes.Equal(signerKey, expectedKey) {
		return &KeyMismatchError{Role: "signer", Expected: invitationKey, Actual: signer}
	}

	return nil
}
