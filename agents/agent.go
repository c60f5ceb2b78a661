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
	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/openai/openai-go/packages/param"
)

// Agent is an AI agent: a model configured with instructions and tools,
// invoked as a bounded step loop by a Runner.
type Agent struct {
	// The name of the agent.
	Name string

	// The instructions for the agent. Will be used as the "system prompt"
	// when this agent is invoked.
	Instructions string

	// The model implementation to use when invoking the LLM.
	// By default, if not set, the agent will use the default model
	// resolved through the run's ModelProvider.
	Model param.Opt[AgentModel]

	// Configures model-specific tuning parameters (e.g. temperature).
	ModelSettings modelsettings.ModelSettings

	// A list of tools that the agent can use.
	Tools []Tool
}

// GetSystemPrompt returns the system prompt for the agent, if any.
func (a *Agent) GetSystemPrompt() param.Opt[string] {
	if a.Instructions == "" {
		return param.Opt[string]{}
	}
	return param.NewOpt(a.Instructions)
}

// GetTool returns the agent tool with the given name, or false when the
// agent has no such tool.
func (a *Agent) GetTool(name string) (Tool, bool) {
	for _, tool := range a.Tools {
		if tool.ToolName() == name {
			return tool, true
		}
	}
	return nil, false
}
