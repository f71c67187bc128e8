/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the connections protocol test suite against an agent under test.
package main

import (
	"os"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-protocol-test-suite-go/cmd/aries-protocol-test/startcmd"
)

// This is an application which tests an Aries agent for conformance with the connections protocol.
func main() {
	rootCmd := &cobra.Command{
		Use: "aries-protocol-test",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("aries-protocol-test/cli")

	runCmd, err := startcmd.Cmd(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(runCmd, startcmd.ListCmd(os.Stdout))

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run aries-protocol-test: %s", err)
	}
}
