/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package legacyconnection

// StateChange is reported to Options.Observer on every transition of a handshake.
type StateChange struct {
	Role    string
	From    string
	To      string
	MsgType string
	MsgID   string
}

// All returns the change as a property map for reports.
func (ev StateChange) All() map[string]interface{} {
	return map[string]interface{}{
		"role":    ev.Role,
		"from":    ev.From,
		"to":      ev.To,
		"msgType": ev.MsgType,
		"msgID":   ev.MsgID,
	}
}
