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

package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/agentstesting"
	"github.com/nlpodyssey/labscribe/generator"
	"github.com/nlpodyssey/labscribe/report"
	"github.com/nlpodyssey/labscribe/server"
	"github.com/openai/openai-go/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamNoReport(t *testing.T) {
	srv := newTestServer(t, agentstesting.NewFakeModel(nil), server.Params{})

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no report to stream")
}

func TestStreamCompletedReport(t *testing.T) {
	g := generator.New(generator.Params{
		Model: param.NewOpt(agents.NewAgentModel(oneExperimentModel(t))),
	})
	srv := newTestServer(t, nil, server.Params{Generator: g})

	result, err := g.Generate(testContext(t), generator.Request{
		Subject:     "Physics",
		Experiments: []string{"Pendulum"},
		Headings:    []string{"Aim"},
	})
	require.NoError(t, err)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/stream?id="+result.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	// A finished report yields a single snapshot and ends the stream.
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: update"))
	assert.Contains(t, body, `"status":"completed"`)
	assert.Contains(t, body, "## Experiment 1: Pendulum")
}

func TestStreamFollowsLiveReport(t *testing.T) {
	g := generator.New(generator.Params{
		Model: param.NewOpt(agents.NewAgentModel(agentstesting.NewFakeModel(nil))),
	})
	srv := newTestServer(t, nil, server.Params{Generator: g})

	buf := g.Registry().Create("Physics", 1)

	go func() {
		// Give the stream handler time to subscribe and push the initial
		// running snapshot before the report advances.
		time.Sleep(50 * time.Millisecond)
		assert.NoError(t, buf.BeginSection())
		assert.NoError(t, buf.Append(sectionMarkdown(1, "Pendulum")))
		assert.NoError(t, buf.CommitSection())
		buf.SetStatus(report.StatusCompleted)
	}()

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/stream", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event: update"), 2)
	assert.Contains(t, body, `"status":"running"`)
	assert.Contains(t, body, `"status":"completed"`)
	assert.Contains(t, body, "## Experiment 1: Pendulum")
}

func TestStreamHeartbeat(t *testing.T) {
	g := generator.New(generator.Params{
		Model: param.NewOpt(agents.NewAgentModel(agentstesting.NewFakeModel(nil))),
	})
	srv := newTestServer(t, nil, server.Params{
		Generator:         g,
		HeartbeatInterval: 10 * time.Millisecond,
	})

	// The report never finishes; the client hangs up after a while.
	g.Registry().Create("Physics", 1)

	ctx, cancel := context.WithTimeout(testContext(t), 80*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)

	rec := doRequest(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "event: update")
	assert.Contains(t, body, ": heartbeat")
}

func TestWebSocketFeed(t *testing.T) {
	g := generator.New(generator.Params{
		Model: param.NewOpt(agents.NewAgentModel(oneExperimentModel(t))),
	})
	srv := newTestServer(t, nil, server.Params{Generator: g})

	result, err := g.Generate(testContext(t), generator.Request{
		Subject:     "Physics",
		Experiments: []string{"Pendulum"},
		Headings:    []string{"Aim"},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"

	t.Run("unknown id", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"?id=nope", nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Nil(t, conn)
	})

	t.Run("completed report", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?id="+result.ID, nil)
		require.NoError(t, err)
		defer conn.Close()

		var snap report.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		assert.Equal(t, result.ID, snap.ID)
		assert.Equal(t, report.StatusCompleted, snap.Status)
		assert.Equal(t, result.Markdown, snap.Markdown)

		// The server closes normally after the terminal snapshot.
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	})
}

func TestWebSocketFollowsLiveReport(t *testing.T) {
	g := generator.New(generator.Params{
		Model: param.NewOpt(agents.NewAgentModel(agentstesting.NewFakeModel(nil))),
	})
	srv := newTestServer(t, nil, server.Params{Generator: g})

	buf := g.Registry().Create("Physics", 1)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?id=" + buf.ID()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snap report.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	require.Equal(t, report.StatusRunning, snap.Status)

	// The handler subscribed before sending the first snapshot, so these
	// changes are guaranteed to reach it.
	require.NoError(t, buf.BeginSection())
	require.NoError(t, buf.Append(sectionMarkdown(1, "Pendulum")))
	require.NoError(t, buf.CommitSection())
	buf.SetStatus(report.StatusCompleted)

	for snap.Status == report.StatusRunning {
		require.NoError(t, conn.ReadJSON(&snap))
	}
	assert.Equal(t, report.StatusCompleted, snap.Status)
	assert.Equal(t, sectionMarkdown(1, "Pendulum"), snap.Markdown)
	assert.Equal(t, 1, snap.SectionsDone)
	assert.Equal(t, 1, snap.SectionsTotal)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
