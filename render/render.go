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

// Package render turns report markdown into a paginated PDF: goldmark
// converts the markdown to HTML, a print stylesheet is applied, and
// headless Chrome prints the document to PDF.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderError is returned when a report cannot be rendered, including
// the empty-report case.
type RenderError struct {
	Message string
	Err     error
}

func (err RenderError) Error() string { return err.Message }

func (err RenderError) Unwrap() error { return err.Err }

func NewRenderError(message string, cause error) RenderError {
	return RenderError{Message: message, Err: cause}
}

func RenderErrorf(format string, a ...any) RenderError {
	return RenderError{Message: fmt.Sprintf(format, a...)}
}

const (
	// A4, in inches, as Chrome's printToPDF expects.
	defaultPaperWidthInches  = 8.27
	defaultPaperHeightInches = 11.69
	defaultMarginInches      = 0.6

	// DefaultTimeout bounds one render, browser startup included.
	DefaultTimeout = 60 * time.Second
)

// Params configures a Renderer. Zero values take the defaults: A4 paper,
// 0.6in margins, DefaultTimeout.
type Params struct {
	PaperWidthInches  float64
	PaperHeightInches float64
	MarginInches      float64
	Timeout           time.Duration
}

// Renderer converts report markdown to PDF documents. It is safe for
// concurrent use; every render drives its own browser context.
type Renderer struct {
	markdown    goldmark.Markdown
	paperWidth  float64
	paperHeight float64
	margin      float64
	timeout     time.Duration
}

// New returns a Renderer with the given parameters.
func New(params Params) *Renderer {
	return &Renderer{
		markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		paperWidth:  cmpOr(params.PaperWidthInches, defaultPaperWidthInches),
		paperHeight: cmpOr(params.PaperHeightInches, defaultPaperHeightInches),
		margin:      cmpOr(params.MarginInches, defaultMarginInches),
		timeout:     cmpOr(params.Timeout, DefaultTimeout),
	}
}

const pageStyle = `
body { font-family: Georgia, "Times New Roman", serif; font-size: 12pt; line-height: 1.5; color: #111; }
h2 { font-size: 16pt; border-bottom: 1pt solid #999; padding-bottom: 4pt; margin-top: 22pt; }
h3 { font-size: 13pt; margin-top: 14pt; }
p { margin: 6pt 0; }
table { border-collapse: collapse; width: 100%; margin: 8pt 0; }
th, td { border: 1pt solid #999; padding: 4pt 6pt; text-align: left; }
code { font-family: "Courier New", monospace; font-size: 10.5pt; background: #f4f4f4; padding: 1pt 3pt; }
pre { background: #f4f4f4; padding: 8pt; overflow-x: auto; }
pre code { background: none; padding: 0; }
`

// HTML converts report markdown into a standalone printable HTML page.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return fmt.Sprintf(
		"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>%s</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		pageStyle, buf.String(),
	), nil
}

// RenderPDF renders the markdown to a paginated PDF. An empty or
// whitespace-only source fails with a RenderError before any browser is
// launched.
func (r *Renderer) RenderPDF(ctx context.Context, markdown string) ([]byte, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, RenderErrorf("empty report: nothing to render")
	}

	html, err := r.HTML(markdown)
	if err != nil {
		return nil, NewRenderError("failed to prepare report HTML", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(bctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(r.paperWidth).
				WithPaperHeight(r.paperHeight).
				WithMarginTop(r.margin).
				WithMarginBottom(r.margin).
				WithMarginLeft(r.margin).
				WithMarginRight(r.margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, NewRenderError("failed to print report to PDF", err)
	}
	return pdf, nil
}
