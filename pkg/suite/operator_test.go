/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperator(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, NewOperator(strings.NewReader(""), &out).Present("http://suite?c_i=abc"))
		require.Contains(t, out.String(), "http://suite?c_i=abc\n")
	})

	t.Run("read url", func(t *testing.T) {
		var out bytes.Buffer

		op := NewOperator(strings.NewReader("  http://subject?c_i=xyz \nnext\n"), &out)

		u, err := op.InvitationURL(context.Background())
		require.NoError(t, err)
		require.Equal(t, "http://subject?c_i=xyz", u)
		require.Equal(t, "Input generated connection invite: ", out.String())

		u, err = op.InvitationURL(context.Background())
		require.NoError(t, err)
		require.Equal(t, "next", u)
	})

	t.Run("last line without newline", func(t *testing.T) {
		u, err := NewOperator(strings.NewReader("http://subject?c_i=xyz"), io.Discard).InvitationURL(context.Background())
		require.NoError(t, err)
		require.Equal(t, "http://subject?c_i=xyz", u)
	})

	t.Run("no input", func(t *testing.T) {
		_, err := NewOperator(strings.NewReader(""), io.Discard).InvitationURL(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "read invitation")
	})

	t.Run("empty line", func(t *testing.T) {
		_, err := NewOperator(strings.NewReader("\n"), io.Discard).InvitationURL(context.Background())
		require.EqualError(t, err, "read invitation: empty input")
	})

	t.Run("cancelled", func(t *testing.T) {
		in, w := io.Pipe()
		defer w.Close() // nolint: errcheck

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewOperator(in, io.Discard).InvitationURL(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}
