/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

// ForwardMsgType is the routing message type wrapping envelopes for mediators.
const ForwardMsgType = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/routing/1.0/forward"

// forward is the routing/1.0 forward message.
type forward struct {
	Type string          `json:"@type,omitempty"`
	ID   string          `json:"@id,omitempty"`
	To   string          `json:"to,omitempty"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// Send packs msg for theirVerKey, authcrypted with fromVerKey when it is set and anoncrypted
// otherwise, wraps it for every routing key of dest and delivers it to dest's endpoint.
func (a *Agent) Send(ctx context.Context, msg message.Message, theirVerKey, fromVerKey string,
	dest *transport.Destination) error {
	if dest == nil || dest.ServiceEndpoint == "" {
		return errors.New("send: destination has no service endpoint")
	}

	outbound := a.outboundFor(dest.ServiceEndpoint)
	if outbound == nil {
		return errors.Errorf("send: no transport found for service endpoint %s", dest.ServiceEndpoint)
	}

	req, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "send: failed marshal to bytes")
	}

	packed, err := a.packer.Pack(req, fromVerKey, []string{theirVerKey})
	if err != nil {
		return errors.Wrap(err, "send: failed to pack msg")
	}

	packed, err = a.createForwardMessage(packed, theirVerKey, dest.RoutingKeys)
	if err != nil {
		return errors.Wrap(err, "send: failed to create forward msg")
	}

	logger.Debugf("sending %s to %s", msg.Type(), dest.ServiceEndpoint)

	if err = outbound.Send(ctx, packed, dest.ServiceEndpoint); err != nil {
		return errors.Wrap(err, "send: failed to send msg using outbound transport")
	}

	return nil
}

func (a *Agent) outboundFor(endpoint string) transport.OutboundTransport {
	for _, v := range a.outbound {
		if v.AcceptRecipient(endpoint) {
			return v
		}
	}

	return nil
}

// createForwardMessage nests packed in one anoncrypted forward per routing key, the outermost for
// the last key.
func (a *Agent) createForwardMessage(packed []byte, recipientKey string, routingKeys []string) ([]byte, error) {
	if len(routingKeys) == 0 {
		return packed, nil
	}

	fwdKeys := append([]string{recipientKey}, routingKeys...)

	for i := 0; i+1 < len(fwdKeys); i++ {
		req, err := json.Marshal(forward{
			Type: ForwardMsgType,
			ID:   uuid.New().String(),
			To:   fwdKeys[i],
			Msg:  packed,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed marshal to bytes")
		}

		packed, err = a.packer.Pack(req, "", []string{fwdKeys[i+1]})
		if err != nil {
			return nil, errors.Wrap(err, "failed to pack forward msg")
		}
	}

	return packed, nil
}
