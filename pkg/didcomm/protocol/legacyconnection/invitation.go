/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

const invitationParam = "c_i"

// nolint:gochecknoglobals
var invitationURLPattern = regexp.MustCompile(`^(.+)?c_i=([^&#]+)`)

// NewInvitation builds the invitation the suite hands out for connectionKey.
func NewInvitation(label, connectionKey, endpoint string) *Invitation {
	return &Invitation{
		Type:            InvitationMsgType,
		Label:           label,
		RecipientKeys:   []string{connectionKey},
		RoutingKeys:     []string{},
		ServiceEndpoint: endpoint,
	}
}

// EncodeInvitation encodes inv as the c_i query parameter of baseEndpoint.
func EncodeInvitation(inv *Invitation, baseEndpoint string) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("encode invitation: nil invitation")
	}

	bits, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("encode invitation: %w", err)
	}

	separator := "?"
	if strings.Contains(baseEndpoint, "?") {
		separator = "&"
	}

	return baseEndpoint + separator + invitationParam + "=" + base64.URLEncoding.EncodeToString(bits), nil
}

// DecodeInvitation extracts the invitation carried by the c_i parameter of invitationURL.
func DecodeInvitation(invitationURL string) (*Invitation, error) {
	msg, err := DecodeInvitationMessage(invitationURL)
	if err != nil {
		return nil, err
	}

	inv := &Invitation{}

	if err = msg.Decode(inv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInvitation, err)
	}

	return inv, nil
}

// DecodeInvitationMessage extracts the invitation as a generic message so it can be schema validated.
func DecodeInvitationMessage(invitationURL string) (message.Message, error) {
	matches := invitationURLPattern.FindStringSubmatch(strings.TrimSpace(invitationURL))
	if matches == nil {
		return message.Message{}, fmt.Errorf("%w: no %s parameter in %q", ErrMalformedInvitation, invitationParam,
			invitationURL)
	}

	encoded, err := url.QueryUnescape(matches[2])
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: %s", ErrMalformedInvitation, err)
	}

	bits, err := decodeBase64URL(encoded)
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: %s", ErrMalformedInvitation, err)
	}

	msg, err := message.Parse(bits)
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: %s", ErrMalformedInvitation, err)
	}

	return msg, nil
}

func decodeBase64URL(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.URLEncoding.DecodeString(s)
	}

	return base64.RawURLEncoding.DecodeString(s)
}
