/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Operator is the person driving the agent under test in manual cases.
type Operator struct {
	in  *bufio.Reader
	out io.Writer
}

// NewOperator talks to the operator through in and out.
func NewOperator(in io.Reader, out io.Writer) *Operator {
	return &Operator{in: bufio.NewReader(in), out: out}
}

// Present shows an invitation URL to hand to the agent under test.
func (o *Operator) Present(invitationURL string) error {
	_, err := fmt.Fprintf(o.out, "\nInvitation encoded as URL:\n%s\n\nAwaiting request from tested agent...\n",
		invitationURL)

	return err
}

// InvitationURL asks for an invitation URL generated by the agent under test.
func (o *Operator) InvitationURL(ctx context.Context) (string, error) {
	if _, err := fmt.Fprint(o.out, "Input generated connection invite: "); err != nil {
		return "", err
	}

	type line struct {
		text string
		err  error
	}

	lines := make(chan line, 1)

	go func() {
		text, err := o.in.ReadString('\n')
		lines <- line{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-lines:
		text := strings.TrimSpace(l.text)

		if l.err != nil && !(errors.Is(l.err, io.EOF) && text != "") {
			return "", fmt.Errorf("read invitation: %w", l.err)
		}

		if text == "" {
			return "", errors.New("read invitation: empty input")
		}

		return text, nil
	}
}
