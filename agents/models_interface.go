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

	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go/packages/param"
)

// Role identifies the author of a conversation Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in an agent conversation. The representation is
// provider-neutral: each Model implementation converts to and from its own
// wire types.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages in which the model requests
	// one or more tool invocations.
	ToolCalls []ToolCall

	// ToolCallID is set on tool messages and references the call the
	// message answers.
	ToolCallID string
}

// ToolCall is a model-requested invocation of a named tool, with raw JSON
// arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ModelGetResponseParams holds the parameters for Model.GetResponse.
type ModelGetResponseParams struct {
	// The system instructions to use, if any.
	SystemInstructions param.Opt[string]

	// The conversation so far: the user input followed by accumulated
	// assistant and tool messages.
	Input []Message

	// The model settings to use.
	ModelSettings modelsettings.ModelSettings

	// The tools available to the model.
	Tools []Tool
}

// ModelResponse is a single assistant turn together with its token usage.
type ModelResponse struct {
	// The assistant message produced by the model. It carries plain text,
	// tool calls, or both.
	Message Message

	// The usage information for the response.
	Usage *usage.Usage
}

// Model is the base interface for calling an LLM.
type Model interface {
	// GetResponse gets a single complete response from the model for the
	// given conversation state.
	GetResponse(ctx context.Context, params ModelGetResponseParams) (*ModelResponse, error)
}

// ModelProvider is the base interface for a model provider, which looks up
// Models by name.
type ModelProvider interface {
	GetModel(modelName string) (Model, error)
}
