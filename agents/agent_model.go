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

// AgentModel selects the model an agent runs on: either the name of a
// model, to be resolved through a ModelProvider, or a Model implementation
// to be used as is.
type AgentModel struct {
	name  string
	model Model
}

func NewAgentModelName(name string) AgentModel {
	return AgentModel{name: name}
}

func NewAgentModel(m Model) AgentModel {
	if m == nil {
		panic("Model cannot be nil")
	}
	return AgentModel{model: m}
}

// SafeModel returns the Model held directly, if any.
func (am AgentModel) SafeModel() (Model, bool) {
	if am.model != nil {
		return am.model, true
	}
	return nil, false
}

// ModelName returns the name to resolve through a provider. It is empty
// when the AgentModel holds a Model directly.
func (am AgentModel) ModelName() string {
	return am.name
}
