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
	"testing"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/agentstesting"
	"github.com/openai/openai-go/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMultiProvider() *agents.MultiProvider {
	return agents.NewMultiProvider(agents.NewMultiProviderParams{
		OpenaiAPIKey:    param.NewOpt("test-openai-key"),
		AnthropicAPIKey: param.NewOpt("test-anthropic-key"),
	})
}

func TestMultiProviderDefaultsToOpenai(t *testing.T) {
	provider := newTestMultiProvider()

	model, err := provider.GetModel("gpt-4.1")
	require.NoError(t, err)
	_, ok := model.(agents.OpenAIChatCompletionsModel)
	assert.True(t, ok)
}

func TestMultiProviderOpenaiPrefix(t *testing.T) {
	provider := newTestMultiProvider()

	model, err := provider.GetModel("openai/gpt-4.1")
	require.NoError(t, err)
	_, ok := model.(agents.OpenAIChatCompletionsModel)
	assert.True(t, ok)
}

func TestMultiProviderAnthropicPrefix(t *testing.T) {
	provider := newTestMultiProvider()

	model, err := provider.GetModel("anthropic/claude-sonnet-4-0")
	require.NoError(t, err)
	_, ok := model.(agents.AnthropicModel)
	assert.True(t, ok)
}

func TestMultiProviderUnknownPrefix(t *testing.T) {
	provider := newTestMultiProvider()

	_, err := provider.GetModel("mystery/some-model")
	assert.ErrorAs(t, err, &agents.UserError{})
	assert.ErrorContains(t, err, "mystery")
}

func TestMultiProviderCustomMapping(t *testing.T) {
	fake := agentstesting.NewFakeModel(nil)

	providerMap := agents.NewMultiProviderMap()
	providerMap.AddProvider("fake", singleModelProvider{model: fake})

	provider := agents.NewMultiProvider(agents.NewMultiProviderParams{
		ProviderMap:     providerMap,
		OpenaiAPIKey:    param.NewOpt("test-openai-key"),
		AnthropicAPIKey: param.NewOpt("test-anthropic-key"),
	})

	model, err := provider.GetModel("fake/anything")
	require.NoError(t, err)
	assert.Same(t, fake, model)
}
