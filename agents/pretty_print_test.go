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

func TestPrettyResult(t *testing.T) {
	model := agentstesting.NewFakeModel(&agentstesting.FakeModelTurnOutput{
		Value: agentstesting.GetTextMessage("Hi there"),
	})
	agent := &agents.Agent{
		Name:  "test_agent",
		Model: param.NewOpt(agents.NewAgentModel(model)),
	}
	result, err := agents.Runner{}.Run(testContext(t), agent, "Hello")
	require.NoError(t, err)
	require.NotNil(t, result)

	v := agents.PrettyPrintResult(*result)
	assert.Equal(t, `RunResult:
- Last agent: Agent(name="test_agent", ...)
- Final output:
    Hi there
- 1 new item(s)
- 1 raw response(s)
(See `+"`RunResult`"+` for more details)`, v)
}

func TestPrettyResultMultilineOutput(t *testing.T) {
	model := agentstesting.NewFakeModel(&agentstesting.FakeModelTurnOutput{
		Value: agentstesting.GetTextMessage("State the aim.\nRecord the result."),
	})
	agent := &agents.Agent{
		Name:  "writer",
		Model: param.NewOpt(agents.NewAgentModel(model)),
	}
	result, err := agents.Runner{}.Run(testContext(t), agent, "Write the section.")
	require.NoError(t, err)

	v := agents.PrettyPrintResult(*result)
	assert.Equal(t, `RunResult:
- Last agent: Agent(name="writer", ...)
- Final output:
    State the aim.
    Record the result.
- 1 new item(s)
- 1 raw response(s)
(See `+"`RunResult`"+` for more details)`, v)
}
