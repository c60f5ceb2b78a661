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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/generator"
)

func (s *Server) generate(c echo.Context) error {
	var req generator.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
	}

	select {
	case s.genSlots <- struct{}{}:
		defer func() { <-s.genSlots }()
	default:
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "too many concurrent generations, try again later",
		})
	}

	result, err := s.generator.Generate(c.Request().Context(), req)
	if err != nil {
		var validationErr generator.ValidationError
		if errors.As(err, &validationErr) {
			s.metrics.RecordOutcome(outcomeRejected)
			return c.JSON(http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   validationErr.Error(),
			})
		}

		s.metrics.RecordOutcome(outcomeFailed)
		msg := err.Error()
		var maxTurnsErr agents.MaxTurnsExceededError
		if errors.As(err, &maxTurnsErr) {
			msg = fmt.Sprintf("%v: raise the generation step limit or reduce the number of experiments", err)
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   msg,
		})
	}

	s.metrics.RecordResult(result)
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"id":       result.ID,
		"markdown": result.Markdown,
		"message":  result.Summary,
		"sections": result.SectionCount,
		"usage":    result.Usage,
	})
}

// markdown returns the current content of a report buffer. Without an
// id it falls back to the most recent report; before any generation it
// returns an empty report, never an error.
func (s *Server) markdown(c echo.Context) error {
	id := c.QueryParam("id")
	buf := s.registry.Resolve(id)
	if buf == nil {
		if id != "" {
			return c.JSON(http.StatusNotFound, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("no report with id %q", id),
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success":  true,
			"id":       "",
			"markdown": "",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"id":       buf.ID(),
		"markdown": buf.Markdown(),
	})
}

func (s *Server) exportPDF(c echo.Context) error {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
	}

	buf := s.registry.Resolve(body.ID)
	if buf == nil {
		if body.ID != "" {
			return c.JSON(http.StatusNotFound, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("no report with id %q", body.ID),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "no report to export",
		})
	}

	pdf, err := s.renderer.RenderPDF(c.Request().Context(), buf.Markdown())
	if err != nil {
		s.logger.Error("PDF export failed",
			slog.String("reportID", buf.ID()),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="lab-report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

type reportSummary struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	SectionCount int       `json:"section_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// listReports serves the archive, newest first.
func (s *Server) listReports(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"error": "report archive is not configured",
		})
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "limit must be an integer"})
		}
		limit = n
	}

	records, err := s.store.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	summaries := make([]reportSummary, len(records))
	for i, rec := range records {
		summaries[i] = reportSummary{
			ID:           rec.ID,
			Subject:      rec.Subject,
			SectionCount: rec.SectionCount,
			CreatedAt:    rec.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": summaries})
}

func (s *Server) getReport(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"error": "report archive is not configured",
		})
	}

	id := c.Param("id")
	rec, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error": fmt.Sprintf("no archived report with id %q", id),
		})
	}
	return c.JSON(http.StatusOK, rec)
}
