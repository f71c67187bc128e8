/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package aptsuite is a conformance test suite for agents implementing the Aries connections/1.0
// protocol (https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol).
//
// Packages
//
// pkg/didcomm/protocol/legacyconnection: The handshake engine. It drives a connection as inviter or
// invitee against the agent under test and checks every message it receives.
//
// pkg/didcomm/schema, pkg/didcomm/signedfield, pkg/didcomm/correlator: Message schemas, the
// ed25519Sha512_single signed field codec and inbound message correlation.
//
// pkg/agent: The suite agent. Packs, sends and receives DIDComm messages over HTTP and WebSocket.
//
// pkg/suite, pkg/suite/cases: The registry of test cases, the runner and the interop report.
//
// cmd/aries-protocol-test: The command line runner.
//
// Basic workflow
//
//      1) Write a config.toml describing the agent under test.
//      2) Start the agent under test.
//      3) Run aries-protocol-test run -c config.toml.
//      4) Read the interop report printed on stdout.
package aptsuite
