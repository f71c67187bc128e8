/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/transport"
)

type recorder struct {
	lock     sync.Mutex
	payloads [][]byte
}

func (r *recorder) handle(payload []byte) error {
	if string(payload) == "invalid-data" {
		return errors.New("cannot unpack")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.payloads = append(r.payloads, payload)

	return nil
}

func (r *recorder) received() [][]byte {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.payloads
}

func post(t *testing.T, url, contentType string, body []byte) int {
	t.Helper()

	resp, err := http.Post(url, contentType, bytes.NewReader(body)) // nolint: gosec,noctx
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp.StatusCode
}

func TestInboundHandler(t *testing.T) {
	// test inboundHandler with empty args should fail
	inHandler, err := NewInboundHandler(nil)
	require.Error(t, err)
	require.Nil(t, inHandler)

	rec := &recorder{}

	inHandler, err = NewInboundHandler(rec.handle)
	require.NoError(t, err)

	server := httptest.NewServer(inHandler)
	defer server.Close()

	t.Run("GET is not allowed", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/indy") // nolint: noctx
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		require.Equal(t, http.StatusUnsupportedMediaType, post(t, server.URL, "text/plain", []byte("Hello World")))
		require.Equal(t, http.StatusUnsupportedMediaType, post(t, server.URL, "", []byte("Hello World")))
	})

	t.Run("empty payload", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, post(t, server.URL, transport.MediaTypeAgentWire, nil))
	})

	t.Run("handler failure", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest,
			post(t, server.URL, transport.MediaTypeAgentWire, []byte("invalid-data")))
	})

	t.Run("accepted on any path and supported content type", func(t *testing.T) {
		for i, contentType := range []string{
			transport.MediaTypeAgentWire,
			transport.MediaTypeV1EncryptedEnvelope,
			transport.MediaTypeJSON + "; charset=utf-8",
		} {
			payload := []byte(fmt.Sprintf(`{"n": %d}`, i))
			require.Equal(t, http.StatusAccepted, post(t, server.URL+"/indy", contentType, payload))
		}

		require.Len(t, rec.received(), 3)
		require.Equal(t, `{"n": 0}`, string(rec.received()[0]))
	})
}

func TestRunInbound(t *testing.T) {
	rec := &recorder{}

	handler, err := NewInboundHandler(rec.handle)
	require.NoError(t, err)

	ls, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- RunInbound(ctx, ls, handler)
	}()

	url := fmt.Sprintf("http://%s/", ls.Addr())
	require.Equal(t, http.StatusAccepted, post(t, url, transport.MediaTypeAgentWire, []byte("envelope")))

	cancel()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		require.Fail(t, "inbound server did not stop")
	}

	_, err = http.Post(url, transport.MediaTypeAgentWire, bytes.NewReader([]byte("late"))) // nolint: noctx
	require.Error(t, err)
	require.Len(t, rec.received(), 1)
}
