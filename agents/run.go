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
	"fmt"
	"log/slog"
	"slices"

	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/nlpodyssey/labscribe/runcontext"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go/packages/param"
	"github.com/xeipuuv/gojsonschema"
)

const DefaultMaxTurns = 10

// DefaultRunner is the default Runner instance used by package-level Run
// helpers.
var DefaultRunner = Runner{}

// Runner executes agents using the configured RunConfig.
//
// The zero value is valid.
type Runner struct {
	Config RunConfig
}

// RunConfig configures settings for the entire agent run.
type RunConfig struct {
	// The model to use for the entire agent run. If set, will override the model set on the
	// agent. The ModelProvider passed in below must be able to resolve this model name.
	Model param.Opt[AgentModel]

	// Optional model provider to use when looking up string model names. Defaults to MultiProvider.
	ModelProvider ModelProvider

	// Optional global model settings. Any non-null or non-zero values will
	// override the agent-specific model settings.
	ModelSettings modelsettings.ModelSettings

	// Optional maximum number of turns to run the agent for.
	// A turn is defined as one AI invocation (including any tool calls that might occur).
	// Default (when left zero): DefaultMaxTurns.
	MaxTurns uint64
}

// RunResult contains the outcome of an agent run.
type RunResult struct {
	// The original input prompt.
	Input string

	// The items generated during the run: assistant messages and tool outputs,
	// in conversation order.
	NewItems []Message

	// The raw model responses, in the order they were received.
	RawResponses []ModelResponse

	// The text content of the final assistant message.
	FinalOutput string

	// The agent that produced the final output.
	LastAgent *Agent
}

// Run executes startingAgent with the provided input using the DefaultRunner.
func Run(ctx context.Context, startingAgent *Agent, input string) (*RunResult, error) {
	return DefaultRunner.Run(ctx, startingAgent, input)
}

// Run a workflow starting at the given agent. The agent will run in a loop until a final
// output is generated.
//
// The loop runs like so:
//  1. The agent is invoked with the given input.
//  2. If the model response contains tool calls, the tools are executed, their outputs
//     appended to the conversation, and the loop runs again.
//  3. If the model response is a plain assistant message, it is treated as the final
//     output and the loop terminates.
//
// In two cases, the agent run may return an error:
//  1. If the MaxTurns is exceeded, a MaxTurnsExceededError is returned.
//  2. If the model requests an unknown tool, or provides tool arguments that fail JSON
//     schema validation, a ModelBehaviorError is returned.
//
// A tool handler error does not abort the run: the error message is sent back to the
// model as the tool output, so it has a chance to adapt. The run is only aborted when
// the surrounding Context was canceled.
func (r Runner) Run(ctx context.Context, startingAgent *Agent, input string) (*RunResult, error) {
	if startingAgent == nil {
		return nil, fmt.Errorf("startingAgent must not be nil")
	}

	maxTurns := r.Config.MaxTurns
	if maxTurns == 0 {
		maxTurns = DefaultMaxTurns
	}

	if u, ok := usage.FromContext(ctx); !ok || u == nil {
		ctx = usage.NewContext(ctx, usage.NewUsage())
	}

	model, err := r.getModel(startingAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	modelSettings := startingAgent.ModelSettings.Resolve(r.Config.ModelSettings)

	contextWrapper := runcontext.NewWrapper(nil)

	var (
		currentTurn    uint64
		generatedItems []Message
		modelResponses []ModelResponse
	)

	conversation := []Message{{Role: RoleUser, Content: input}}

	for {
		currentTurn += 1
		if currentTurn > maxTurns {
			return nil, MaxTurnsExceededErrorf("max turns %d exceeded", maxTurns)
		}
		Logger().Debug(
			"Running agent",
			slog.String("agentName", startingAgent.Name),
			slog.Uint64("turn", currentTurn),
		)

		response, err := model.GetResponse(ctx, ModelGetResponseParams{
			SystemInstructions: startingAgent.GetSystemPrompt(),
			Input:              slices.Clone(conversation),
			ModelSettings:      modelSettings,
			Tools:              startingAgent.Tools,
		})
		if err != nil {
			return nil, err
		}

		modelResponses = append(modelResponses, *response)
		if response.Usage != nil {
			contextWrapper.Usage.Add(response.Usage)
			if contextUsage, _ := usage.FromContext(ctx); contextUsage != nil {
				contextUsage.Add(response.Usage)
			}
		}

		conversation = append(conversation, response.Message)
		generatedItems = append(generatedItems, response.Message)

		if len(response.Message.ToolCalls) == 0 {
			return &RunResult{
				Input:        input,
				NewItems:     generatedItems,
				RawResponses: modelResponses,
				FinalOutput:  response.Message.Content,
				LastAgent:    startingAgent,
			}, nil
		}

		toolOutputs, err := r.executeToolCalls(ctx, contextWrapper, startingAgent, response.Message.ToolCalls)
		if err != nil {
			return nil, err
		}
		conversation = append(conversation, toolOutputs...)
		generatedItems = append(generatedItems, toolOutputs...)
	}
}

// executeToolCalls runs each requested tool in order and returns the tool
// output messages to append to the conversation.
func (r Runner) executeToolCalls(ctx context.Context, contextWrapper *runcontext.Wrapper, agent *Agent, toolCalls []ToolCall) ([]Message, error) {
	outputs := make([]Message, 0, len(toolCalls))
	for _, toolCall := range toolCalls {
		tool, ok := agent.GetTool(toolCall.Name)
		if !ok {
			return nil, ModelBehaviorErrorf("tool %s not found in agent %s", toolCall.Name, agent.Name)
		}
		funcTool, ok := tool.(FunctionTool)
		if !ok {
			return nil, UserErrorf("tool %s is not a function tool", toolCall.Name)
		}

		if err := validateToolArguments(funcTool, toolCall.Arguments); err != nil {
			return nil, err
		}

		if DontLogModelData {
			Logger().Debug("Invoking tool", slog.String("toolName", funcTool.Name))
		} else {
			Logger().Debug(
				"Invoking tool",
				slog.String("toolName", funcTool.Name),
				slog.String("input", toolCall.Arguments),
			)
		}

		result, err := funcTool.OnInvokeTool(ctx, contextWrapper, toolCall.Arguments)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("error running tool %s: %w", funcTool.Name, err)
			}
			Logger().Warn(
				"Tool execution failed",
				slog.String("toolName", funcTool.Name),
				slog.String("error", err.Error()),
			)
			result = fmt.Sprintf("Error: %v", err)
		}

		outputs = append(outputs, Message{
			Role:       RoleTool,
			Content:    stringifyToolOutput(result),
			ToolCallID: toolCall.ID,
		})
	}
	return outputs, nil
}

func validateToolArguments(tool FunctionTool, arguments string) error {
	if !tool.StrictJSONSchema.Or(true) || tool.ParamsJSONSchema == nil {
		return nil
	}
	schemaLoader := gojsonschema.NewGoLoader(tool.ParamsJSONSchema)
	schema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		return ModelBehaviorErrorf("failed to load and compile JSON schema of tool %s: %v", tool.Name, err)
	}
	if err = ValidateJSON(schema, arguments); err != nil {
		return fmt.Errorf("invalid arguments for tool %s: %w", tool.Name, err)
	}
	return nil
}

func stringifyToolOutput(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (r Runner) getModel(agent *Agent) (Model, error) {
	modelProvider := r.Config.ModelProvider
	if modelProvider == nil {
		modelProvider = NewMultiProvider(NewMultiProviderParams{})
	}

	if r.Config.Model.Valid() {
		runConfigModel := r.Config.Model.Value
		if v, ok := runConfigModel.SafeModel(); ok {
			return v, nil
		}
		return modelProvider.GetModel(runConfigModel.ModelName())
	}

	if agent.Model.Valid() {
		agentModel := agent.Model.Value
		if v, ok := agentModel.SafeModel(); ok {
			return v, nil
		}
		return modelProvider.GetModel(agentModel.ModelName())
	}

	return modelProvider.GetModel("")
}
