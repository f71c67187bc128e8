/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/config"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/suite"
)

const localConfig = `
host = "127.0.0.1"
port = 0
endpoint = "http://127.0.0.1:3000"
timeout = "2s"

[subject]
name = "subject"
version = "0.1"
endpoint = "http://127.0.0.1:1"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func newRunCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	runCmd, err := Cmd(strings.NewReader(""), &out, &bytes.Buffer{})
	require.NoError(t, err)

	runCmd.SetArgs(args)

	return runCmd, &out
}

func TestRunCmdContents(t *testing.T) {
	runCmd, err := Cmd(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	require.Equal(t, "run", runCmd.Use)
	require.Equal(t, "Run the test suite", runCmd.Short)
	require.Equal(t, "Run the connections protocol test suite against the agent under test", runCmd.Long)

	checkFlagPropertiesCorrect(t, runCmd, suiteConfigFlagName, suiteConfigFlagShorthand, suiteConfigFlagUsage, "")
	checkFlagPropertiesCorrect(t, runCmd, selectFlagName, selectFlagShorthand, selectFlagUsage, "")
	checkFlagPropertiesCorrect(t, runCmd, outputFlagName, outputFlagShorthand, outputFlagUsage, "")
	checkFlagPropertiesCorrect(t, runCmd, showDevNotesFlagName, "", showDevNotesFlagUsage, "")
	checkFlagPropertiesCorrect(t, runCmd, logLevelFlagName, "", logLevelFlagUsage, "")
	checkFlagPropertiesCorrect(t, runCmd, listFlagName, listFlagShorthand, listFlagUsage, "")

	_, err = Cmd(nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())
	require.Nil(t, flag.Annotations)
}

func requireAvailable(t *testing.T, data []byte) {
	t.Helper()

	var available []map[string]string
	require.NoError(t, json.Unmarshal(data, &available))
	require.NotEmpty(t, available)

	var names []string
	for _, entry := range available {
		names = append(names, entry["name"])
	}

	require.Contains(t, names, "connections,1.0,inviter,connection-started-by-suite")
	require.Contains(t, names, "test,1.0,responder,simple-messaging")
}

func TestListCmd(t *testing.T) {
	var out bytes.Buffer

	listCmd := ListCmd(&out)
	require.Equal(t, "list", listCmd.Use)

	listCmd.SetArgs(nil)
	require.NoError(t, listCmd.Execute())
	requireAvailable(t, out.Bytes())
}

func TestRunWithListFlag(t *testing.T) {
	runCmd, out := newRunCmd(t, "--"+listFlagName, "true")
	require.NoError(t, runCmd.Execute())
	requireAvailable(t, out.Bytes())
}

func TestRunNoSelectedCases(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.json")

	runCmd, out := newRunCmd(t,
		"-"+suiteConfigFlagShorthand, writeConfig(t, localConfig),
		"-"+selectFlagShorthand, "nothing-matches",
		"-"+outputFlagShorthand, reportPath,
		"--"+showDevNotesFlagName, "true",
	)
	require.NoError(t, runCmd.Execute())
	require.Contains(t, out.String(), `"under_test_name": "subject"`)
	require.Contains(t, out.String(), `"results": []`)
	require.Contains(t, out.String(), "Developer notes:")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var saved suite.Report
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Equal(t, suite.ReportType, saved.Type)
	require.Equal(t, "0.1", saved.UnderTestVersion)
}

func TestRunFromEnvironment(t *testing.T) {
	t.Setenv(suiteConfigEnvKey, writeConfig(t, localConfig))
	t.Setenv(selectEnvKey, "nothing-matches")
	t.Setenv(logFormatEnvKey, logFormatJSON)
	t.Setenv(logLevelEnvKey, "debug")

	runCmd, out := newRunCmd(t)
	require.NoError(t, runCmd.Execute())
	require.Contains(t, out.String(), `"results": []`)
	require.NotContains(t, out.String(), "Developer notes:")
}

func TestRunUnreachableSubject(t *testing.T) {
	runCmd, out := newRunCmd(t,
		"--"+suiteConfigFlagName, writeConfig(t, localConfig),
		"--"+selectFlagName, "test,",
	)

	err := runCmd.Execute()
	require.ErrorIs(t, err, errSuiteFailed)
	require.Contains(t, out.String(), `"name": "test,1.0,responder,simple-messaging"`)
	require.Contains(t, out.String(), `"pass": false`)
}

func TestRunErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		runCmd, _ := newRunCmd(t, "--"+suiteConfigFlagName, writeConfig(t, "port = 70000\n"))
		err := runCmd.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid suite configuration")
	})

	t.Run("unreadable config", func(t *testing.T) {
		runCmd, _ := newRunCmd(t, "--"+suiteConfigFlagName, writeConfig(t, "port = \n"))
		require.Error(t, runCmd.Execute())
	})

	t.Run("bad log level", func(t *testing.T) {
		runCmd, _ := newRunCmd(t,
			"--"+suiteConfigFlagName, writeConfig(t, localConfig),
			"--"+logLevelFlagName, "loud",
		)
		err := runCmd.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "log level")
	})

	t.Run("bad log format", func(t *testing.T) {
		runCmd, _ := newRunCmd(t, "--"+logFormatFlagName, "xml")
		require.EqualError(t, runCmd.Execute(), "log format [xml] not supported")
	})

	t.Run("bad select", func(t *testing.T) {
		runCmd, _ := newRunCmd(t,
			"--"+suiteConfigFlagName, writeConfig(t, localConfig),
			"--"+selectFlagName, "(",
		)
		require.Error(t, runCmd.Execute())
	})

	t.Run("bad bool", func(t *testing.T) {
		runCmd, _ := newRunCmd(t, "--"+showDevNotesFlagName, "maybe")
		err := runCmd.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse show-dev-notes")
	})
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestWriteReport(t *testing.T) {
	cfg := config.Default()

	t.Run("failed case", func(t *testing.T) {
		var out bytes.Buffer

		c := suite.Case{Protocol: "p", Version: "1", Role: "r", Name: "n"}
		report := suite.NewReport("subject", "1", time.Now())
		report.AddResult(&c, errors.New("boom"))
		report.AddNotes(&c, "unexpected key $.extra")

		err := writeReport(&SuiteParameters{out: &out, showDevNotes: true}, cfg, report)
		require.ErrorIs(t, err, errSuiteFailed)
		require.Contains(t, out.String(), `"p,1,r,n": [`)
		require.Contains(t, out.String(), "unexpected key $.extra")
	})

	t.Run("save path from config", func(t *testing.T) {
		cfg := config.Default()
		cfg.SavePath = filepath.Join(t.TempDir(), "saved.json")

		err := writeReport(&SuiteParameters{out: &bytes.Buffer{}}, cfg, suite.NewReport("", "", time.Now()))
		require.NoError(t, err)
		require.FileExists(t, cfg.SavePath)
	})

	t.Run("save error", func(t *testing.T) {
		cfg := config.Default()
		cfg.SavePath = filepath.Join(t.TempDir(), "missing", "saved.json")

		err := writeReport(&SuiteParameters{out: &bytes.Buffer{}}, cfg, suite.NewReport("", "", time.Now()))
		require.Error(t, err)
	})

	t.Run("output error", func(t *testing.T) {
		err := writeReport(&SuiteParameters{out: failWriter{}}, cfg, suite.NewReport("", "", time.Now()))
		require.EqualError(t, err, "write failed")
	})
}

func TestGetUserSetVar(t *testing.T) {
	runCmd, _ := newRunCmd(t)

	_, err := getUserSetVar(runCmd, selectFlagName, "APTS_TEST_UNSET", false)
	require.EqualError(t, err,
		"Neither select (command line flag) nor APTS_TEST_UNSET (environment variable) have been set.")

	t.Setenv("APTS_TEST_SET", "x")

	value, err := getUserSetVar(runCmd, selectFlagName, "APTS_TEST_SET", false)
	require.NoError(t, err)
	require.Equal(t, "x", value)
}
