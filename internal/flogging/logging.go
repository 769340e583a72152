/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package flogging provides the structured logging system used across
// litefab nodes and tools. It is a deliberately small cousin of fabric's
// common/flogging: a single global Logging instance backed by zap, with
// per-name level control and a logfmt encoder by default.
package flogging

import (
	"io"
	"os"
	"strings"
	"sync"

	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultFormat = "logfmt"

var defaultLevel = zapcore.InfoLevel

// Config supplies dependencies to a Logging instance.
type Config struct {
	// Format selects the encoder: "json" or "logfmt" (default).
	Format string

	// LogSpec controls per-module levels, e.g. "info:endorser=debug".
	// If empty, LITEFAB_LOGGING_SPEC is consulted, then defaultLevel.
	LogSpec string

	// Writer is the log sink. Defaults to os.Stderr.
	Writer io.Writer
}

// Logging is the process-wide logging system.
type Logging struct {
	mutex  sync.RWMutex
	levels map[string]zapcore.Level
	def    zapcore.Level
	writer zapcore.WriteSyncer
	format string
}

var system = New(Config{})

// New builds a Logging system from the given configuration.
func New(c Config) *Logging {
	s := &Logging{
		levels: map[string]zapcore.Level{},
		def:    defaultLevel,
	}
	s.Apply(c)
	return s
}

// Apply reconfigures the logging system in place.
func (s *Logging) Apply(c Config) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	format := c.Format
	if format == "" {
		format = defaultFormat
	}
	s.format = format

	spec := c.LogSpec
	if spec == "" {
		spec = os.Getenv("LITEFAB_LOGGING_SPEC")
	}
	if spec == "" {
		spec = s.def.String()
	}
	s.activateSpecLocked(spec)

	w := c.Writer
	if w == nil {
		w = os.Stderr
	}
	switch t := w.(type) {
	case *os.File:
		s.writer = zapcore.Lock(t)
	case zapcore.WriteSyncer:
		s.writer = t
	default:
		s.writer = zapcore.AddSync(w)
	}
}

// ActivateSpec parses a level spec of the form
// "<default-level>[:<module>=<level>[,<module>=<level>...]]" and activates
// it. A bare spec with no default, e.g. "endorser=debug", leaves the
// existing default level untouched.
func ActivateSpec(spec string) { system.ActivateSpec(spec) }

func (s *Logging) ActivateSpec(spec string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.activateSpecLocked(spec)
}

func (s *Logging) activateSpecLocked(spec string) {
	fields := strings.SplitN(spec, ":", 2)
	if lvl, err := zapcore.ParseLevel(fields[0]); err == nil {
		s.def = lvl
	} else if fields[0] != "" {
		// not a bare level; treat the whole spec as module assignments
		fields = []string{"", spec}
	}

	if len(fields) < 2 || fields[1] == "" {
		return
	}
	for _, assignment := range strings.Split(fields[1], ",") {
		parts := strings.SplitN(assignment, "=", 2)
		if len(parts) != 2 {
			continue
		}
		lvl, err := zapcore.ParseLevel(parts[1])
		if err != nil {
			continue
		}
		s.levels[parts[0]] = lvl
	}
}

func (s *Logging) levelFor(name string) zapcore.Level {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if lvl, ok := s.levels[name]; ok {
		return lvl
	}
	return s.def
}

// MustGetLogger returns a FabricLogger for the given module name; the name
// is used as given and is not validated. Loggers are cheap; callers keep one per package
// as a package-level var.
func MustGetLogger(name string) *FabricLogger { return system.Logger(name) }

// Logger instantiates a new FabricLogger with the given name.
func (s *Logging) Logger(name string) *FabricLogger {
	return NewFabricLogger(s.zapLogger(name))
}

func (s *Logging) zapLogger(name string) *zap.Logger {
	s.mutex.RLock()
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.NameKey = "name"
	encoderConfig.TimeKey = "time"
	var encoder zapcore.Encoder
	if s.format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zaplogfmt.NewEncoder(encoderConfig)
	}
	writer := s.writer
	s.mutex.RUnlock()

	core := zapcore.NewCore(encoder, writer, zap.NewAtomicLevelAt(s.levelFor(name)))
	return NewZapLogger(core).Named(name)
}
