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

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nlpodyssey/labscribe/report"
)

// stream pushes buffer snapshots over SSE: an initial snapshot, then an
// update event on every buffer change. The feed ends when the report
// reaches a terminal status or the client disconnects; heartbeat
// comments keep intermediaries from timing out the connection.
func (s *Server) stream(c echo.Context) error {
	buf := s.registry.Resolve(c.QueryParam("id"))
	if buf == nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "no report to stream"})
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	push := func() (report.Snapshot, error) {
		snap := buf.Snapshot()
		err := writeSSEEvent(w, "update", snap)
		if err == nil {
			w.Flush()
		}
		return snap, err
	}

	if snap, err := push(); err != nil || snap.Status != report.StatusRunning {
		return nil
	}

	ctx := c.Request().Context()
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			if snap, err := push(); err != nil || snap.Status != report.StatusRunning {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

var wsUpgrader = websocket.Upgrader{
	// The form may be served from another origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// websocketFeed is the WebSocket variant of the stream: one JSON
// snapshot per buffer change, closed normally when the report reaches a
// terminal status.
func (s *Server) websocketFeed(c echo.Context) error {
	buf := s.registry.Resolve(c.QueryParam("id"))
	if buf == nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "no report to stream"})
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	push := func() (report.Snapshot, error) {
		snap := buf.Snapshot()
		return snap, conn.WriteJSON(snap)
	}

	closeNormally := func() {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
	}

	if snap, err := push(); err != nil {
		return nil
	} else if snap.Status != report.StatusRunning {
		closeNormally()
		return nil
	}

	ctx := c.Request().Context()
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			snap, err := push()
			if err != nil {
				return nil
			}
			if snap.Status != report.StatusRunning {
				closeNormally()
				return nil
			}
		case <-heartbeat.C:
			deadline := time.Now().Add(time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
		}
	}
}
