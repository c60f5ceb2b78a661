// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var agentsLogger atomic.Pointer[slog.Logger]

// DontLogModelData - by default we log LLM inputs and outputs at debug
// level. Set this flag to suppress them, to prevent exposing sensitive
// information in logs.
var DontLogModelData = debugFlagEnabled("LABSCRIBE_DONT_LOG_MODEL_DATA")

func init() {
	ResetLogger()
}

// Logger is the global logger used by the agents package.
// By default, it is a logger with a text handler which writes to stderr,
// with minimum level "info". You can change it with SetLogger.
func Logger() *slog.Logger {
	return agentsLogger.Load()
}

// SetLogger sets the global logger used by the agents package.
// A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		agentsLogger.Store(l)
	}
}

func ResetLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// EnableVerboseStdoutLogging enables verbose logging to stdout.
// This is useful for debugging.
func EnableVerboseStdoutLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	agentsLogger.Store(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}

func debugFlagEnabled(flag string) bool {
	v, ok := os.LookupEnv(flag)
	return ok && (v == "1" || strings.ToLower(v) == "true")
}
