/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog provides a zap backed logger provider for the module loggers.
//
// Level filtering stays with the module loggers, so the zap core logs everything it is handed.
package zaplog

import (
	"github.com/hyperledger/aries-framework-go/spi/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const moduleKey = "module"

// Provider creates zap backed loggers, one per module.
type Provider struct {
	base *zap.Logger
}

// New creates a provider writing to out. Console output is human readable, otherwise JSON lines
// are written.
func New(out zapcore.WriteSyncer, console bool) *Provider {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	if console {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	return &Provider{base: zap.New(zapcore.NewCore(encoder, out, zapcore.DebugLevel))}
}

// NewFromLogger wraps an existing zap logger.
func NewFromLogger(base *zap.Logger) *Provider {
	return &Provider{base: base}
}

// GetLogger returns the logger of module.
func (p *Provider) GetLogger(module string) log.Logger {
	return &logger{sugar: p.base.With(zap.String(moduleKey, module)).Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	return p.base.Sync()
}

type logger struct {
	sugar *zap.SugaredLogger
}

func (l *logger) Panicf(msg string, args ...interface{}) {
	l.sugar.Panicf(msg, args...)
}

func (l *logger) Fatalf(msg string, args ...interface{}) {
	l.sugar.Fatalf(msg, args...)
}

func (l *logger) Errorf(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

func (l *logger) Warnf(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *logger) Infof(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *logger) Debugf(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}
