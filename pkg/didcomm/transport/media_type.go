/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"fmt"
	"mime"
)

const (
	// MediaTypeAgentWire is the legacy content type of DIDComm V1 envelopes used by indy based agents.
	MediaTypeAgentWire = "application/ssi-agent-wire"
	// MediaTypeV1EncryptedEnvelope is the media type for DIDComm V1 encrypted envelopes as per Aries RFC 0044.
	MediaTypeV1EncryptedEnvelope = "application/didcomm-envelope-enc"
	// MediaTypeJSON is accepted for plaintext messages from debugging agents.
	MediaTypeJSON = "application/json"
)

// AcceptsMediaType reports whether an inbound Content-Type header names a supported envelope.
func AcceptsMediaType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("parse content type %q: %w", contentType, err)
	}

	switch mediaType {
	case MediaTypeAgentWire, MediaTypeV1EncryptedEnvelope, MediaTypeJSON:
		return nil
	default:
		return fmt.Errorf("unsupported content type: %s", mediaType)
	}
}
