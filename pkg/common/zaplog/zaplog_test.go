/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zaplog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewFromLogger(zap.New(core))

	logger := provider.GetLogger("agent")
	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "two")
	logger.Warnf("warn")
	logger.Errorf("error")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	require.Equal(t, "debug 1", entries[0].Message)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "info two", entries[1].Message)
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[3].Level)

	for _, e := range entries {
		require.Equal(t, "agent", e.ContextMap()[moduleKey])
	}

	require.Panics(t, func() { logger.Panicf("boom") })
}

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		provider := New(zapcore.AddSync(&buf), false)
		provider.GetLogger("suite").Infof("hello %s", "world")
		require.NoError(t, provider.Sync())

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "hello world", line["msg"])
		require.Equal(t, "suite", line[moduleKey])
		require.Equal(t, "info", line["level"])
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer

		provider := New(zapcore.AddSync(&buf), true)
		provider.GetLogger("suite").Warnf("careful")
		require.NoError(t, provider.Sync())

		require.Contains(t, buf.String(), "WARN")
		require.Contains(t, buf.String(), "careful")
		require.Contains(t, buf.String(), `"module": "suite"`)
	})
}
