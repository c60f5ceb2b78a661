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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// DefaultMaxRetries is the number of additional completion attempts made
// after a failed one, when no explicit value is configured.
const DefaultMaxRetries = 3

// RetryParams bounds the capped exponential backoff applied by RetryModel.
type RetryParams struct {
	// Maximum number of retries after the initial attempt.
	// Default (when left zero): DefaultMaxRetries.
	MaxRetries uint64

	// Backoff interval before the first retry. Default: 500ms.
	InitialInterval time.Duration

	// Upper bound for a single backoff interval. Default: 10s.
	MaxInterval time.Duration
}

// RetryModel decorates a Model with retry on transient completion failures.
//
// Connection-level errors and HTTP 408, 429 and 5xx responses are retried
// with capped exponential backoff. Any other error is returned immediately.
// When all attempts fail, the last error is wrapped in a RemoteServiceError.
type RetryModel struct {
	model  Model
	params RetryParams
}

func NewRetryModel(model Model, params RetryParams) RetryModel {
	return RetryModel{
		model:  model,
		params: params,
	}
}

func (m RetryModel) GetResponse(ctx context.Context, params ModelGetResponseParams) (*ModelResponse, error) {
	maxRetries := cmpOr(m.params.MaxRetries, uint64(DefaultMaxRetries))

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cmpOr(m.params.InitialInterval, 500*time.Millisecond)
	expBackoff.MaxInterval = cmpOr(m.params.MaxInterval, 10*time.Second)
	expBackoff.MaxElapsedTime = 0 // bounded by the retry count alone

	var response *ModelResponse
	operation := func() error {
		resp, err := m.model.GetResponse(ctx, params)
		if err != nil {
			if !isRetryableError(err) {
				return backoff.Permanent(err)
			}
			Logger().Warn("Completion request failed, will retry", slog.String("error", err.Error()))
			return err
		}
		response = resp
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxRetries), ctx))
	if err != nil {
		if isRetryableError(err) {
			return nil, RemoteServiceError{
				Message: fmt.Sprintf("completion request failed after %d retries", maxRetries),
				Err:     err,
			}
		}
		return nil, err
	}
	return response, nil
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var modelBehaviorErr ModelBehaviorError
	if errors.As(err, &modelBehaviorErr) {
		return false
	}
	var userErr UserError
	if errors.As(err, &userErr) {
		return false
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return isRetryableStatus(openaiErr.StatusCode)
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return isRetryableStatus(anthropicErr.StatusCode)
	}

	// Anything else is a transport-level failure, e.g. a reset connection or
	// a DNS error.
	return true
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

// RetryProvider decorates every Model resolved by the inner provider with
// the given retry policy.
type RetryProvider struct {
	provider ModelProvider
	params   RetryParams
}

func NewRetryProvider(provider ModelProvider, params RetryParams) *RetryProvider {
	return &RetryProvider{
		provider: provider,
		params:   params,
	}
}

func (p *RetryProvider) GetModel(modelName string) (Model, error) {
	model, err := p.provider.GetModel(modelName)
	if err != nil {
		return nil, err
	}
	return NewRetryModel(model, p.params), nil
}
