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
	"testing"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/agentstesting"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAddsUsageToExistingContext(t *testing.T) {
	model := agentstesting.NewFakeModel(&agentstesting.FakeModelTurnOutput{
		Value: agentstesting.GetTextMessage("hello"),
	})
	model.SetHardcodedUsage(usage.Usage{Requests: 1, InputTokens: 5, OutputTokens: 3, TotalTokens: 8})

	agent := agents.New("test").WithModelInstance(model)

	tracker := usage.NewUsage()
	ctx := usage.NewContext(context.Background(), tracker)

	_, err := agents.Run(ctx, agent, "hi")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), tracker.Requests)
	assert.Equal(t, uint64(5), tracker.InputTokens)
	assert.Equal(t, uint64(3), tracker.OutputTokens)
	assert.Equal(t, uint64(8), tracker.TotalTokens)
}

func TestUsageAccumulatesAcrossTurns(t *testing.T) {
	model := agentstesting.NewFakeModel(nil)
	model.SetHardcodedUsage(usage.Usage{Requests: 1, InputTokens: 10, OutputTokens: 4, TotalTokens: 14})

	agent := agents.New("test").
		WithModelInstance(model).
		WithTools(agentstesting.GetFunctionTool("foo", "result"))

	model.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Value: agentstesting.GetFunctionToolCall("foo", `{}`)},
		{Value: agentstesting.GetTextMessage("done")},
	})

	tracker := usage.NewUsage()
	ctx := usage.NewContext(context.Background(), tracker)

	_, err := agents.Run(ctx, agent, "hi")
	require.NoError(t, err)

	assert.Equal(t, uint64(2), tracker.Requests)
	assert.Equal(t, uint64(20), tracker.InputTokens)
	assert.Equal(t, uint64(8), tracker.OutputTokens)
	assert.Equal(t, uint64(28), tracker.TotalTokens)
}

func TestUsageSharedAcrossNestedRuns(t *testing.T) {
	// An outer run whose tool performs an inner run on the same context:
	// both runs should report into the same usage tracker.
	innerModel := agentstesting.NewFakeModel(&agentstesting.FakeModelTurnOutput{
		Value: agentstesting.GetTextMessage("inner_done"),
	})
	innerModel.SetHardcodedUsage(usage.Usage{Requests: 1, InputTokens: 7, OutputTokens: 2, TotalTokens: 9})
	innerAgent := agents.New("inner").WithModelInstance(innerModel)

	delegate := agents.NewFunctionTool("delegate", "",
		func(ctx context.Context, args struct{}) (string, error) {
			result, err := agents.Run(ctx, innerAgent, "go")
			if err != nil {
				return "", err
			}
			return result.FinalOutput, nil
		})

	outerModel := agentstesting.NewFakeModel(nil)
	outerModel.SetHardcodedUsage(usage.Usage{Requests: 1, InputTokens: 3, OutputTokens: 1, TotalTokens: 4})
	outerAgent := agents.New("outer").
		WithModelInstance(outerModel).
		WithTools(delegate)

	outerModel.AddMultipleTurnOutputs([]agentstesting.FakeModelTurnOutput{
		{Value: agentstesting.GetFunctionToolCall("delegate", `{}`)},
		{Value: agentstesting.GetTextMessage("outer_done")},
	})

	tracker := usage.NewUsage()
	ctx := usage.NewContext(context.Background(), tracker)

	result, err := agents.Run(ctx, outerAgent, "hi")
	require.NoError(t, err)
	assert.Equal(t, "outer_done", result.FinalOutput)

	assert.Equal(t, uint64(3), tracker.Requests, "two outer turns plus one inner turn")
	assert.Equal(t, uint64(13), tracker.InputTokens)
	assert.Equal(t, uint64(4), tracker.OutputTokens)
	assert.Equal(t, uint64(17), tracker.TotalTokens)
}
