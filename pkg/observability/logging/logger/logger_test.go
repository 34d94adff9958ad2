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

package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/level"
)

func TestPackageLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(logging.StreamLogger(buf, level.Debug))
	defer SetLogger(logging.NoopLogger())

	if Logger() == nil {
		t.Fatal("expected non-nil package logger")
	}

	SetLogLevel(level.Debug)
	if Level() != level.Debug {
		t.Errorf("expected %s got %s", level.Debug, Level())
	}

	Debug("pkg_debug", logging.Pairs{"k": "v"})
	Info("pkg_info", nil)
	Warn("pkg_warn", nil)
	Error("pkg_error", nil)
	Log(level.Info, "pkg_log", nil)
	Fatal(-1, "pkg_fatal", nil)

	s := buf.String()
	for _, expected := range []string{
		"pkg_debug", "pkg_info", "pkg_warn", "pkg_error", "pkg_log", "pkg_fatal",
	} {
		if !strings.Contains(s, expected) {
			t.Errorf("expected %s in output", expected)
		}
	}

	if !InfoOnce("once-key", "pkg_once", nil) {
		t.Error("expected first InfoOnce to log")
	}
	if InfoOnce("once-key", "pkg_once", nil) {
		t.Error("expected second InfoOnce to be suppressed")
	}
	if !HasInfoedOnce("once-key") {
		t.Error("expected HasInfoedOnce to be true")
	}
	if !HasLoggedOnce(level.Info, "once-key") {
		t.Error("expected HasLoggedOnce to be true")
	}
	if HasDebuggedOnce("once-key") || HasWarnedOnce("once-key") ||
		HasErroredOnce("once-key") {
		t.Error("expected no other once entries for once-key")
	}

	// SetLogger must ignore nil
	prev := Logger()
	SetLogger(nil)
	if Logger() != prev {
		t.Error("expected SetLogger(nil) to be ignored")
	}
}
