// Copyright 2019 U.S. Naval Research Laboratory
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides logging for the simulator. It is a thin layer on top
// of zap that exposes leveled logging with key-value context, matching the
// diagnostics style used across the tools.
package log

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rwails/tempest/pkg/private/serrors"
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

// Config configures the root logger.
type Config struct {
	// Level is the minimum emitted level: "debug", "info" or "error".
	// Empty defaults to "info".
	Level string
}

var root = newLogger(discardCore())

// Setup configures the root logger. All entries are written to stderr so
// that experiment output on stdout stays machine readable.
func Setup(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.DisableStacktrace = true
	logger, err := zapCfg.Build()
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	root = newLogger(logger.Core())
	return nil
}

// Root returns the root logger. It is guaranteed to never be nil.
func Root() Logger {
	return root
}

// New returns a logger with the given context attached to the root logger.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// Debug logs at debug level.
func Debug(msg string, ctx ...interface{}) {
	root.logger.Debugw(msg, ctx...)
}

// Info logs at info level.
func Info(msg string, ctx ...interface{}) {
	root.logger.Infow(msg, ctx...)
}

// Error logs at error level.
func Error(msg string, ctx ...interface{}) {
	root.logger.Errorw(msg, ctx...)
}

// Discard sets the root logger up to discard all log entries. This is
// useful for testing.
func Discard() {
	root = newLogger(discardCore())
}

// HandlePanic catches panics and logs them. Every goroutine should defer
// this function as its first statement.
func HandlePanic() {
	if msg := recover(); msg != nil {
		Error("Panic", "msg", msg, "stack", string(debug.Stack()))
		panic(msg)
	}
}

type logger struct {
	logger *zap.SugaredLogger
}

func newLogger(core zapcore.Core) *logger {
	return &logger{logger: zap.New(core).Sugar()}
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{logger: l.logger.With(ctx...)}
}

func (l *logger) Debug(msg string, ctx ...interface{}) {
	l.logger.Debugw(msg, ctx...)
}

func (l *logger) Info(msg string, ctx ...interface{}) {
	l.logger.Infow(msg, ctx...)
}

func (l *logger) Error(msg string, ctx ...interface{}) {
	l.logger.Errorw(msg, ctx...)
}

func discardCore() zapcore.Core {
	return zapcore.NewNopCore()
}

func parseLevel(lvl string) (zapcore.Level, error) {
	switch lvl {
	case "":
		return zapcore.InfoLevel, nil
	case "debug", "info", "error":
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(lvl)); err != nil {
			return 0, err
		}
		return l, nil
	default:
		return 0, serrors.New(fmt.Sprintf("unknown log level: %s", lvl))
	}
}
