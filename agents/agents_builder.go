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

// New creates a new Agent with the given name.
//
// The returned Agent can be further configured using the builder methods.
func New(name string) *Agent {
	return &Agent{Name: name}
}

// WithInstructions sets the Agent instructions.
func (a *Agent) WithInstructions(instr string) *Agent {
	a.Instructions = instr
	return a
}

// WithModel sets the model to use by name.
func (a *Agent) WithModel(name string) *Agent {
	a.Model = param.NewOpt(NewAgentModelName(name))
	return a
}

// WithModelInstance sets the model using a Model implementation.
func (a *Agent) WithModelInstance(m Model) *Agent {
	a.Model = param.NewOpt(NewAgentModel(m))
	return a
}

// WithModelOpt sets the model using an AgentModel wrapped in param.Opt.
func (a *Agent) WithModelOpt(model param.Opt[AgentModel]) *Agent {
	a.Model = model
	return a
}

// WithModelSettings sets model-specific settings.
func (a *Agent) WithModelSettings(settings modelsettings.ModelSettings) *Agent {
	a.ModelSettings = settings
	return a
}

// WithTools sets the list of tools available to the agent.
func (a *Agent) WithTools(t ...Tool) *Agent {
	a.Tools = append([]Tool{}, t...)
	return a
}

// AddTool appends a tool to the agent's tool list.
func (a *Agent) AddTool(t Tool) *Agent {
	a.Tools = append(a.Tools, t)
	return a
}
