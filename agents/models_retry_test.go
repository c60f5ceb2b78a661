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

package agents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/agentstesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryParams() agents.RetryParams {
	return agents.RetryParams{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestRetryModelRecoversAfterTransientErrors(t *testing.T) {
	model := agentstesting.NewFakeModel(nil)
	model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Error: errors.New("connection reset by peer")},
		{Error: errors.New("connection reset by peer")},
		{Value: agentstesting.GetTextMessage("ok")},
	})

	retryModel := agents.NewRetryModel(model, fastRetryParams())

	response, err := retryModel.GetResponse(testContext(t), agents.ModelGetResponseParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Message.Content)
}

func TestRetryModelDoesNotRetryModelBehaviorError(t *testing.T) {
	model := agentstesting.NewFakeModel(nil)
	model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Error: agents.NewModelBehaviorError("malformed output")},
		{Value: agentstesting.GetTextMessage("never reached")},
	})

	retryModel := agents.NewRetryModel(model, fastRetryParams())

	_, err := retryModel.GetResponse(testContext(t), agents.ModelGetResponseParams{})
	assert.ErrorAs(t, err, &agents.ModelBehaviorError{})
	assert.Len(t, model.TurnOutputs, 1, "no retry should have consumed the second output")
}

func TestRetryModelDoesNotRetryCanceledContext(t *testing.T) {
	model := agentstesting.NewFakeModel(nil)
	model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Error: context.Canceled},
		{Value: agentstesting.GetTextMessage("never reached")},
	})

	retryModel := agents.NewRetryModel(model, fastRetryParams())

	_, err := retryModel.GetResponse(testContext(t), agents.ModelGetResponseParams{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, model.TurnOutputs, 1)
}

func TestRetryModelExhaustionReturnsRemoteServiceError(t *testing.T) {
	model := agentstesting.NewFakeModel(nil)
	model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Error: errors.New("connection reset by peer")},
		{Error: errors.New("connection reset by peer")},
		{Error: errors.New("connection reset by peer")},
		{Value: agentstesting.GetTextMessage("never reached")},
	})

	retryModel := agents.NewRetryModel(model, fastRetryParams())

	_, err := retryModel.GetResponse(testContext(t), agents.ModelGetResponseParams{})
	assert.ErrorAs(t, err, &agents.RemoteServiceError{})
	assert.ErrorContains(t, err, "failed after 2 retries")
	assert.Len(t, model.TurnOutputs, 1, "initial attempt plus two retries")
}

type singleModelProvider struct {
	model agents.Model
}

func (p singleModelProvider) GetModel(string) (agents.Model, error) {
	return p.model, nil
}

func TestRetryProviderWrapsModels(t *testing.T) {
	inner := agentstesting.NewFakeModel(&agentstesting.FakeModelTurnOutput{
		Value: agentstesting.GetTextMessage("ok"),
	})

	provider := agents.NewRetryProvider(singleModelProvider{model: inner}, fastRetryParams())

	model, err := provider.GetModel("anything")
	require.NoError(t, err)

	_, ok := model.(agents.RetryModel)
	assert.True(t, ok, "resolved model should be wrapped with the retry policy")
}
