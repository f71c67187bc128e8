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
	"time"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/correlator"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/protocol/legacyconnection"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/schema"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/signedfield"
)

const (
	// ReportType is the @type of the interop profile.
	ReportType = "Aries Test Suite Interop Profile v1"
	// Version is the suite version written to reports.
	Version = "0.1.0"

	testTimeLayout = "2006-01-02T15:04:05"
)

// Failure kinds of a result.
const (
	FailureSchema     = "schema"
	FailureSignature  = "signature"
	FailureTimeout    = "timeout"
	FailureInvitation = "invitation"
	FailureThread     = "thread"
	FailureKeys       = "keys"
	FailureError      = "error"
)

// Failure tells why a case did not pass.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the outcome of one case.
type Result struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Pass        bool     `json:"pass"`
	Failure     *Failure `json:"failure,omitempty"`
}

// Report is the interop profile of the agent under test.
type Report struct {
	Type             string   `json:"@type"`
	SuiteVersion     string   `json:"suite_version"`
	UnderTestName    string   `json:"under_test_name"`
	UnderTestVersion string   `json:"under_test_version"`
	TestTime         string   `json:"test_time"`
	Results          []Result `json:"results"`

	notes map[string][]string
}

// NewReport starts an empty report for the subject named by name and version.
func NewReport(name, version string, testTime time.Time) *Report {
	return &Report{
		Type:             ReportType,
		SuiteVersion:     Version,
		UnderTestName:    name,
		UnderTestVersion: version,
		TestTime:         testTime.UTC().Format(testTimeLayout),
		Results:          []Result{},
		notes:            map[string][]string{},
	}
}

// AddResult records the outcome of c, err being nil when it passed.
func (r *Report) AddResult(c *Case, err error) {
	result := Result{Name: c.FlatName(), Description: c.Description, Pass: err == nil}

	if err != nil {
		result.Failure = &Failure{Kind: Classify(err), Message: err.Error()}
	}

	r.Results = append(r.Results, result)
}

// AddNotes records developer notes for c.
func (r *Report) AddNotes(c *Case, notes ...string) {
	if len(notes) == 0 {
		return
	}

	r.notes[c.FlatName()] = append(r.notes[c.FlatName()], notes...)
}

// Notes returns the developer notes of the case named name.
func (r *Report) Notes(name string) []string {
	return r.notes[name]
}

// Passed tells whether every recorded case passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Pass {
			return false
		}
	}

	return true
}

// JSON is the indented interop profile.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// NotesJSON is the indented developer notes keyed by case name.
func (r *Report) NotesJSON() ([]byte, error) {
	return json.MarshalIndent(r.notes, "", "  ")
}

// Save writes the interop profile to path.
func (r *Report) Save(path string) error {
	data, err := r.JSON()
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

type availableTest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AvailableJSON lists cases by name and description.
func AvailableJSON(cases []Case) ([]byte, error) {
	available := make([]availableTest, 0, len(cases))

	for i := range cases {
		available = append(available, availableTest{Name: cases[i].FlatName(), Description: cases[i].Description})
	}

	return json.MarshalIndent(available, "", "  ")
}

// Classify maps a case error to its failure kind.
func Classify(err error) string {
	switch {
	case errors.Is(err, schema.ErrSchemaViolation):
		return FailureSchema
	case errors.Is(err, signedfield.ErrSignatureInvalid):
		return FailureSignature
	case errors.Is(err, correlator.ErrTimeout):
		return FailureTimeout
	case errors.Is(err, legacyconnection.ErrMalformedInvitation):
		return FailureInvitation
	case errors.Is(err, legacyconnection.ErrThreadMismatch):
		return FailureThread
	case errors.Is(err, legacyconnection.ErrKeyMismatch):
		return FailureKeys
	default:
		return FailureError
	}
}
