/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/legacyconnection"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/suite"
)

const (
	// SimpleMsgType is the message type of the simple messaging case.
	SimpleMsgType = "test/protocol/1.0/test"

	simpleTimeout = time.Second
)

// PongSchema validates the answer of the agent under test.
// nolint:gochecknoglobals
var PongSchema = &schema.ObjectSchema{
	Required: map[string]schema.Schema{
		message.FieldType: schema.Literal(SimpleMsgType),
		message.FieldID:   schema.TypeOf(schema.String),
		"msg":             schema.Literal("pong"),
	},
	CatchAlls: []schema.CatchAll{
		{Match: schema.KeyPrefix(message.DecoratorPrefix), Value: schema.TypeOf(schema.Any)},
	},
}

// Simple is the sanity case: the agent under test answers a ping with a pong.
func Simple() suite.Case {
	return suite.Case{
		Protocol:    "test",
		Version:     version10,
		Role:        "responder",
		Name:        "simple-messaging",
		Description: "Show simple messages being passed to and from tested agent.",
		Features:    []string{"simple"},
		Run:         runSimple,
	}
}

func runSimple(ctx context.Context, env *suite.Env) error {
	ping, err := message.New(map[string]interface{}{
		message.FieldType: SimpleMsgType,
		"msg":             "ping",
	})
	if err != nil {
		return err
	}

	subject := env.Subject()

	logger.Infof("sending message:\n%s", ping.Pretty())

	if err = env.Agent.Send(ctx, ping, subject.VerKey, subject.FromVerKey, subject.Destination); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}

	pong, err := env.Agent.ExpectMessage(ctx, SimpleMsgType, simpleTimeout)
	if err != nil {
		return fmt.Errorf("await pong: %w", err)
	}

	logger.Infof("received message:\n%s", pong.Pretty())

	if _, err = schema.ValidateMessage(PongSchema, pong, schema.WithWarnings(env.Warn)); err != nil {
		return fmt.Errorf("validate pong: %w", err)
	}

	mc := pong.Context()

	if !mc.Packed || mc.SenderKey == "" {
		return fmt.Errorf("pong was not authcrypted: %w", legacyconnection.ErrKeyMismatch)
	}

	if mc.SenderKey != env.SubjectVerKey {
		return &legacyconnection.KeyMismatchError{Role: "sender", Expected: env.SubjectVerKey, Actual: mc.SenderKey}
	}

	if mc.RecipientKey != env.MyVerKey {
		return &legacyconnection.KeyMismatchError{Role: "recipient", Expected: env.MyVerKey, Actual: mc.RecipientKey}
	}

	return nil
}
