/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package suite selects and runs protocol test cases against the agent under test and builds the
// interop report.
package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/agent"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/config"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/legacyconnection"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/wallet"
)

var logger = log.New("aries-protocol-test/suite")

// Case is one protocol test.
type Case struct {
	Protocol    string
	Version     string
	Role        string
	Name        string
	Description string
	// Features tag the case for feature based selection.
	Features []string
	// Priority orders the run, lower first.
	Priority int
	Run      func(ctx context.Context, env *Env) error
}

// FlatName is the comma separated protocol, version, role and name.
func (c *Case) FlatName() string {
	return strings.Join([]string{c.Protocol, c.Version, c.Role, c.Name}, ",")
}

// HasFeature tells whether the case is tagged with one of features.
func (c *Case) HasFeature(features ...string) bool {
	for _, want := range features {
		for _, f := range c.Features {
			if f == want {
				return true
			}
		}
	}

	return false
}

// Env is what a case runs against.
type Env struct {
	Agent  *agent.Agent
	Config *config.Config
	// MyDID and MyVerKey are the suite identity.
	MyDID    string
	MyVerKey string
	// SubjectDID and SubjectVerKey are the identity of the agent under test.
	SubjectDID    string
	SubjectVerKey string
	Operator      *Operator

	warn func(string)
}

// NewEnv creates the suite and subject identities in the agent wallet.
func NewEnv(ctx context.Context, cfg *config.Config, a *agent.Agent, op *Operator) (*Env, error) {
	env := &Env{Agent: a, Config: cfg, Operator: op}

	var err error

	env.MyDID, env.MyVerKey, err = a.CreateAndStoreDID(ctx, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("create suite identity: %w", err)
	}

	if cfg.Subject.VerKey != "" {
		env.SubjectVerKey = cfg.Subject.VerKey

		env.SubjectDID, err = wallet.DIDFromVerKey(cfg.Subject.VerKey)
		if err != nil {
			return nil, fmt.Errorf("subject verkey: %w", err)
		}

		return env, nil
	}

	env.SubjectDID, env.SubjectVerKey, err = a.CreateAndStoreDID(ctx, cfg.Subject.Seed)
	if err != nil {
		return nil, fmt.Errorf("create subject identity: %w", err)
	}

	return env, nil
}

// Subject is how control messages reach the agent under test.
func (e *Env) Subject() *legacyconnection.Subject {
	return &legacyconnection.Subject{
		VerKey:     e.SubjectVerKey,
		FromVerKey: e.MyVerKey,
		Destination: &transport.Destination{
			RecipientKeys:   []string{e.SubjectVerKey},
			RoutingKeys:     e.Config.Subject.RoutingKeys,
			ServiceEndpoint: e.Config.Subject.Endpoint,
		},
	}
}

// Warn records a developer note for the running case.
func (e *Env) Warn(note string) {
	if e.warn != nil {
		e.warn(note)
	}
}

func (e *Env) withWarn(warn func(string)) *Env {
	env := *e
	env.warn = warn

	return &env
}
