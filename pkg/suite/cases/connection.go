/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cases holds the protocol test cases run by the suite.
package cases

import (
	"context"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/legacyconnection"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/suite"
)

var logger = log.New("aries-protocol-test/cases")

const (
	protocolConnections = "connections"
	version10           = "1.0"
	connectionPriority  = 10
)

// All returns every case of the suite.
func All() []suite.Case {
	return append(Connections(), Simple())
}

// Connections returns the connections/1.0 handshake cases in both roles and both modes.
func Connections() []suite.Case {
	return []suite.Case{
		{
			Protocol:    protocolConnections,
			Version:     version10,
			Role:        legacyconnection.RoleInviter,
			Name:        "connection-started-by-suite",
			Description: "Test a connection as started by the suite.",
			Features:    []string{"core", "connection", "connection.auto", "connection.passive"},
			Priority:    connectionPriority,
			Run:         inviter(legacyconnection.Auto),
		},
		{
			Protocol:    protocolConnections,
			Version:     version10,
			Role:        legacyconnection.RoleInvitee,
			Name:        "connection-started-by-tested-agent",
			Description: "Test a connection as started by the agent under test.",
			Features:    []string{"core", "connection", "connection.auto"},
			Priority:    connectionPriority,
			Run:         invitee(legacyconnection.Auto),
		},
		{
			Protocol:    protocolConnections,
			Version:     version10,
			Role:        legacyconnection.RoleInviter,
			Name:        "connection-started-by-suite-manual",
			Description: "Test a connection as started by the suite, the invitation is handed over by the operator.",
			Features:    []string{"core.manual", "connection.manual"},
			Priority:    connectionPriority,
			Run:         inviter(legacyconnection.Manual),
		},
		{
			Protocol:    protocolConnections,
			Version:     version10,
			Role:        legacyconnection.RoleInvitee,
			Name:        "connection-started-by-tested-agent-manual",
			Description: "Test a connection as started by the agent under test, the invitation is pasted by the operator.",
			Features:    []string{"core.manual", "connection.manual"},
			Priority:    connectionPriority,
			Run:         invitee(legacyconnection.Manual),
		},
	}
}

func inviter(mode legacyconnection.Mode) func(ctx context.Context, env *suite.Env) error {
	return func(ctx context.Context, env *suite.Env) error {
		_, err := legacyconnection.NewInviter(env.Agent, handshakeOptions(env, mode)).Run(ctx)

		return err
	}
}

func invitee(mode legacyconnection.Mode) func(ctx context.Context, env *suite.Env) error {
	return func(ctx context.Context, env *suite.Env) error {
		_, err := legacyconnection.NewInvitee(env.Agent, handshakeOptions(env, mode)).Run(ctx)

		return err
	}
}

func handshakeOptions(env *suite.Env, mode legacyconnection.Mode) legacyconnection.Options {
	opts := legacyconnection.Options{
		Mode:     mode,
		Endpoint: env.Config.Endpoint,
		Timeout:  env.Config.Timeout,
		Warn:     env.Warn,
		Observer: func(ev legacyconnection.StateChange) {
			logger.Debugf("%s: %s -> %s (%s)", ev.Role, ev.From, ev.To, ev.MsgType)
		},
	}

	if mode == legacyconnection.Auto {
		opts.Subject = env.Subject()

		return opts
	}

	// the manual flows end once the response is verified or sent
	opts.SkipAck = true

	if env.Operator != nil {
		opts.Present = env.Operator.Present
		opts.InvitationURL = env.Operator.InvitationURL
	}

	return opts
}
