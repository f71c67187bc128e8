/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/correlator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/legacyconnection"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
)

func goldenCases() []Case {
	return []Case{
		{
			Protocol:    "connections",
			Version:     "1.0",
			Role:        "inviter",
			Name:        "connection-started-by-suite",
			Description: "Test a connection as started by the suite.",
		},
		{
			Protocol: "connections",
			Version:  "1.0",
			Role:     "invitee",
			Name:     "connection-started-by-tested-agent",
		},
	}
}

func goldenReport() *Report {
	cases := goldenCases()

	report := NewReport("acapy", "0.4.0", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))
	report.AddResult(&cases[0], nil)
	report.AddResult(&cases[1], fmt.Errorf("validate ack: %w", schema.ErrSchemaViolation))

	return report
}

func TestReportJSON(t *testing.T) {
	data, err := goldenReport().JSON()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "report", data)
}

func TestAvailableJSON(t *testing.T) {
	data, err := AvailableJSON(goldenCases())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "available", data)
}

func TestReportSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	report := goldenReport()
	require.NoError(t, report.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved Report
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Equal(t, ReportType, saved.Type)
	require.Equal(t, report.Results, saved.Results)

	require.Error(t, report.Save(filepath.Join(t.TempDir(), "missing", "report.json")))
}

func TestReportNotes(t *testing.T) {
	cases := goldenCases()
	report := goldenReport()

	require.False(t, report.Passed())

	report.AddNotes(&cases[0])
	report.AddNotes(&cases[0], "unexpected key $.extra")
	report.AddNotes(&cases[0], "unexpected key $.other")

	require.Equal(t, []string{"unexpected key $.extra", "unexpected key $.other"}, report.Notes(cases[0].FlatName()))
	require.Nil(t, report.Notes(cases[1].FlatName()))

	data, err := report.NotesJSON()
	require.NoError(t, err)

	var notes map[string][]string
	require.NoError(t, json.Unmarshal(data, &notes))
	require.Len(t, notes, 1)

	empty := NewReport("", "", time.Now())
	require.True(t, empty.Passed())

	data, err = empty.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"results": []`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{fmt.Errorf("x: %w", schema.ErrSchemaViolation), FailureSchema},
		{&legacyconnection.StepError{Step: "verify", Err: signedfield.ErrSignatureInvalid}, FailureSignature},
		{&legacyconnection.StepError{Step: "await", Err: correlator.ErrTimeout}, FailureTimeout},
		{fmt.Errorf("x: %w", legacyconnection.ErrMalformedInvitation), FailureInvitation},
		{&legacyconnection.ThreadMismatchError{Expected: "a", Actual: "b"}, FailureThread},
		{&legacyconnection.KeyMismatchError{Role: "sender"}, FailureKeys},
		{errors.New("connection refused"), FailureError},
	}

	for _, tc := range tests {
		require.Equal(t, tc.kind, Classify(tc.err), tc.err.Error())
	}
}
