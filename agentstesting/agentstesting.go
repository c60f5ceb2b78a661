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

package agentstesting

import (
	"context"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/runcontext"
)

func GetTextMessage(content string) agents.Message {
	return agents.Message{
		Role:    agents.RoleAssistant,
		Content: content,
	}
}

func GetFunctionTool(name string, returnValue string) agents.FunctionTool {
	return agents.FunctionTool{
		Name: name,
		ParamsJSONSchema: map[string]any{
			"title":                name + "_args",
			"type":                 "object",
			"required":             []string{},
			"additionalProperties": false,
			"properties":           map[string]any{},
		},
		OnInvokeTool: func(context.Context, *runcontext.Wrapper, string) (any, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) agents.FunctionTool {
	return agents.FunctionTool{
		Name: name,
		ParamsJSONSchema: map[string]any{
			"title":                name + "_args",
			"type":                 "object",
			"required":             []string{},
			"additionalProperties": false,
			"properties":           map[string]any{},
		},
		OnInvokeTool: func(context.Context, *runcontext.Wrapper, string) (any, error) {
			return nil, returnErr
		},
	}
}

func GetFunctionToolCall(name string, arguments string) agents.Message {
	return agents.Message{
		Role: agents.RoleAssistant,
		ToolCalls: []agents.ToolCall{{
			ID:        "2",
			Name:      name,
			Arguments: arguments,
		}},
	}
}

func GetFunctionToolCalls(toolCalls ...agents.ToolCall) agents.Message {
	return agents.Message{
		Role:      agents.RoleAssistant,
		ToolCalls: toolCalls,
	}
}
