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

// Package generator turns a lab-report request into a markdown report by
// orchestrating two agents: a ReportOrchestrator that delegates one
// experiment at a time, and a SectionWriter that writes each section
// into the report buffer.
package generator

import (
	"fmt"
	"strings"
)

// Request describes one lab report to generate: a subject, the ordered
// list of experiment topics, and the section headings that apply
// uniformly to every experiment.
type Request struct {
	Subject     string   `json:"subject"`
	Experiments []string `json:"experiments"`
	Headings    []string `json:"headings"`
}

// ValidationError is returned when a Request is malformed.
type ValidationError struct {
	Message string
}

func (err ValidationError) Error() string { return err.Message }

func NewValidationError(message string) ValidationError {
	return ValidationError{Message: message}
}

func ValidationErrorf(format string, a ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, a...)}
}

// Validate reports the first problem found in the request, if any.
// A report with zero experiments or zero headings is invalid.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return NewValidationError("subject is required")
	}
	if len(r.Experiments) == 0 {
		return NewValidationError("experiments list must not be empty")
	}
	for i, e := range r.Experiments {
		if strings.TrimSpace(e) == "" {
			return ValidationErrorf("experiment %d is empty", i+1)
		}
	}
	if len(r.Headings) == 0 {
		return NewValidationError("headings list must not be empty")
	}
	for i, h := range r.Headings {
		if strings.TrimSpace(h) == "" {
			return ValidationErrorf("heading %d is empty", i+1)
		}
	}
	return nil
}
