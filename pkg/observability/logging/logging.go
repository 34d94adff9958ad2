/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging provides a structured event logger, using logfmt output
// with key=value detail Pairs sorted for deterministic log lines
package logging

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/memwarden/memwarden/pkg/observability/logging/level"
	"github.com/memwarden/memwarden/pkg/observability/logging/options"

	kitlog "github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
	"github.com/go-stack/stack"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var _ Logger = &logger{}

// Logger describes the memwarden event logger
type Logger interface {
	SetLogLevel(level.Level)
	Level() level.Level
	Close()
	//
	Log(logLevel level.Level, event string, detail Pairs)
	Debug(event string, detail Pairs)
	Info(event string, detail Pairs)
	Warn(event string, detail Pairs)
	Error(event string, detail Pairs)
	Fatal(code int, event string, detail Pairs)
	//
	LogOnce(logLevel level.Level, key, event string, detail Pairs) bool
	DebugOnce(key, event string, detail Pairs) bool
	InfoOnce(key, event string, detail Pairs) bool
	WarnOnce(key, event string, detail Pairs) bool
	ErrorOnce(key, event string, detail Pairs) bool
	//
	HasLoggedOnce(logLevel level.Level, key string) bool
	HasDebuggedOnce(key string) bool
	HasInfoedOnce(key string) bool
	HasWarnedOnce(key string) bool
	HasErroredOnce(key string) bool
}

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]any

const appName = "memwarden"
const modulePrefix = "github.com/memwarden/memwarden/"

// New returns a Logger for the provided logging configuration
func New(conf *options.Options) Logger {
	var wr io.Writer
	if conf.LogFile == "" {
		wr = os.Stdout
	} else {
		wr = &lumberjack.Logger{
			Filename:   conf.LogFile,
			MaxSize:    256,  // megabytes
			MaxBackups: 80,   // 256 megs @ 80 backups is 20GB of Logs
			MaxAge:     7,    // days
			Compress:   true, // Compress Rolled Backups
		}
	}
	l := newLogger(wr)
	l.SetLogLevel(level.Level(strings.ToLower(conf.LogLevel)))
	return l
}

// NoopLogger returns a Logger that discards all events
func NoopLogger() Logger {
	l := &logger{kl: kitlog.NewNopLogger()}
	l.lvl.Store(level.Info)
	l.levelID.Store(int32(level.InfoID))
	return l
}

// StreamLogger returns a Logger that writes to the provided io.Writer
func StreamLogger(w io.Writer, logLevel level.Level) Logger {
	l := newLogger(w)
	l.SetLogLevel(logLevel)
	return l
}

// ConsoleLogger returns a Logger that writes to the console
func ConsoleLogger(logLevel level.Level) Logger {
	return StreamLogger(os.Stdout, logLevel)
}

func newLogger(wr io.Writer) *logger {
	kl := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(wr))
	kl = kitlog.With(kl,
		"time", kitlog.DefaultTimestampUTC,
		"app", appName,
		"caller", kitlog.Valuer(callerValuer),
	)
	l := &logger{kl: kl}
	if c, ok := wr.(io.Closer); ok && c != nil {
		l.closer = c
	}
	return l
}

type logger struct {
	kl             kitlog.Logger
	closer         io.Closer
	levelID        atomic.Int32
	lvl            atomic.Value // level.Level
	onceRanEntries sync.Map
}

// pkgCaller wraps a stack.Call to make the default string output include the
// package path relative to the module root
type pkgCaller struct {
	c stack.Call
}

func (pc pkgCaller) String() string {
	return strings.TrimPrefix(fmt.Sprintf("%+v", pc.c), modulePrefix)
}

// callerValuer walks the call stack to the first frame outside of this
// package and the go-kit log machinery
func callerValuer() any {
	for _, c := range stack.Trace().TrimRuntime() {
		s := fmt.Sprintf("%+v", c)
		if strings.Contains(s, "/observability/logging") ||
			strings.Contains(s, "go-kit/log") {
			continue
		}
		return pkgCaller{c}
	}
	return ""
}

func (l *logger) SetLogLevel(logLevel level.Level) {
	id := level.GetID(logLevel)
	if id == 0 {
		l.WarnOnce("loglevel."+string(logLevel),
			"unknown log level; using info",
			Pairs{"providedLevel": logLevel})
		logLevel = level.Info
		id = level.InfoID
	}
	l.lvl.Store(logLevel)
	l.levelID.Store(int32(id))
}

func (l *logger) Level() level.Level {
	if v, ok := l.lvl.Load().(level.Level); ok {
		return v
	}
	return level.Info
}

func (l *logger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}

func (l *logger) Log(logLevel level.Level, event string, detail Pairs) {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < level.ID(l.levelID.Load()) {
		return
	}
	l.emit(logLevel, event, detail)
}

func (l *logger) logConditionally(logLevel level.Level, lid level.ID,
	event string, detail Pairs) {
	if level.ID(l.levelID.Load()) > lid {
		return
	}
	l.emit(logLevel, event, detail)
}

func (l *logger) Debug(event string, detail Pairs) {
	l.logConditionally(level.Debug, level.DebugID, event, detail)
}

func (l *logger) Info(event string, detail Pairs) {
	l.logConditionally(level.Info, level.InfoID, event, detail)
}

func (l *logger) Warn(event string, detail Pairs) {
	l.logConditionally(level.Warn, level.WarnID, event, detail)
}

func (l *logger) Error(event string, detail Pairs) {
	l.logConditionally(level.Error, level.ErrorID, event, detail)
}

func (l *logger) Fatal(code int, event string, detail Pairs) {
	l.emit(level.Fatal, event, detail)
	if code < 0 {
		// tests send a negative code to avoid exiting the process
		return
	}
	if code == 0 {
		code = 1
	}
	os.Exit(code)
}

func (l *logger) LogOnce(logLevel level.Level, key, event string, detail Pairs) bool {
	return l.logOnce(logLevel, level.GetID(logLevel), key, event, detail)
}

func (l *logger) logOnce(logLevel level.Level, lid level.ID,
	key, event string, detail Pairs) bool {
	if lid == 0 || lid < level.ID(l.levelID.Load()) ||
		l.HasLoggedOnce(logLevel, key) {
		return false
	}
	key = string(logLevel) + "." + key
	_, ok := l.onceRanEntries.Load(key)
	if !ok {
		// load or store is more expensive than load, so check via load first
		// and use LoadOrStore to ensure that log is only called once
		_, ok = l.onceRanEntries.LoadOrStore(key, true)
		if !ok {
			l.emit(logLevel, event, detail)
		}
	}
	return !ok
}

func (l *logger) DebugOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Debug, level.DebugID, key, event, detail)
}

func (l *logger) InfoOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Info, level.InfoID, key, event, detail)
}

func (l *logger) WarnOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Warn, level.WarnID, key, event, detail)
}

func (l *logger) ErrorOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Error, level.ErrorID, key, event, detail)
}

func (l *logger) HasLoggedOnce(logLevel level.Level, key string) bool {
	_, ok := l.onceRanEntries.Load(string(logLevel) + "." + key)
	return ok
}

func (l *logger) HasDebuggedOnce(key string) bool {
	return l.HasLoggedOnce(level.Debug, key)
}

func (l *logger) HasInfoedOnce(key string) bool {
	return l.HasLoggedOnce(level.Info, key)
}

func (l *logger) HasWarnedOnce(key string) bool {
	return l.HasLoggedOnce(level.Warn, key)
}

func (l *logger) HasErroredOnce(key string) bool {
	return l.HasLoggedOnce(level.Error, key)
}

// emit renders the event through the underlying go-kit logger. detail keys
// are sorted so a given event always logs its fields in the same order.
func (l *logger) emit(logLevel level.Level, event string, detail Pairs) {
	if l.kl == nil {
		return
	}
	kv := make([]any, 0, (len(detail)+1)*2)
	kv = append(kv, "event", strings.TrimSpace(event))
	for _, k := range slices.Sorted(maps.Keys(detail)) {
		kv = append(kv, k, logValue(detail[k]))
	}
	var lg kitlog.Logger
	switch logLevel {
	case level.Debug:
		lg = kitlevel.Debug(l.kl)
	case level.Info:
		lg = kitlevel.Info(l.kl)
	case level.Warn:
		lg = kitlevel.Warn(l.kl)
	case level.Error:
		lg = kitlevel.Error(l.kl)
	default:
		lg = kitlog.WithPrefix(l.kl, kitlevel.Key(), string(logLevel))
	}
	lg.Log(kv...)
}

func logValue(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	return v
}
