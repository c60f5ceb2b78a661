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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/nlpodyssey/labscribe/types/optional"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go/packages/param"
)

// The Messages API requires an explicit output token ceiling.
const defaultAnthropicMaxTokens = 4096

type AnthropicProviderParams struct {
	// The API key to use for the Anthropic client. If not provided, we will use
	// the ANTHROPIC_API_KEY environment variable.
	APIKey param.Opt[string]

	// The base URL to use for the Anthropic client. If not provided, we will
	// use the default base URL.
	BaseURL optional.Optional[string]

	// An optional Anthropic client to use. If not provided, we will create a
	// new client using the APIKey and BaseURL.
	Client optional.Optional[anthropic.Client]
}

type AnthropicProvider struct {
	params AnthropicProviderParams
	client optional.Optional[anthropic.Client]
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(params AnthropicProviderParams) *AnthropicProvider {
	if params.Client.Present && (params.APIKey.Valid() || params.BaseURL.Present) {
		panic(errors.New("AnthropicProvider: don't provide APIKey or BaseURL if you provide Client"))
	}

	return &AnthropicProvider{
		params: params,
		client: params.Client,
	}
}

func (provider *AnthropicProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get Anthropic model without a name")
	}
	return NewAnthropicModel(anthropic.Model(modelName), provider.getClient()), nil
}

// We lazy load the client in case you never actually use AnthropicProvider.
func (provider *AnthropicProvider) getClient() anthropic.Client {
	if !provider.client.Present {
		provider.client = optional.Value(provider.newClient())
	}
	return provider.client.Value
}

func (provider *AnthropicProvider) newClient() anthropic.Client {
	var apiKey string
	if provider.params.APIKey.Valid() {
		apiKey = provider.params.APIKey.Value
	} else {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			slog.Warn("AnthropicProvider: an API key is missing")
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if v, ok := provider.params.BaseURL.Get(); ok {
		opts = append(opts, option.WithBaseURL(v))
	}
	return anthropic.NewClient(opts...)
}

type AnthropicModel struct {
	Model  anthropic.Model
	client anthropic.Client
}

func NewAnthropicModel(model anthropic.Model, client anthropic.Client) AnthropicModel {
	return AnthropicModel{
		Model:  model,
		client: client,
	}
}

func (m AnthropicModel) GetResponse(
	ctx context.Context,
	params ModelGetResponseParams,
) (*ModelResponse, error) {
	body, err := m.prepareRequest(params.SystemInstructions, params.Input, params.ModelSettings, params.Tools)
	if err != nil {
		return nil, err
	}

	msg, err := m.client.Messages.New(ctx, *body)
	if err != nil {
		return nil, err
	}

	message := anthropicMessageToMessage(msg)

	if DontLogModelData {
		slog.Debug("LLM responded")
	} else {
		slog.Debug("LLM responded", slog.String("message", SimplePrettyJSONMarshal(message)))
	}

	u := &usage.Usage{
		Requests:     1,
		InputTokens:  uint64(msg.Usage.InputTokens),
		OutputTokens: uint64(msg.Usage.OutputTokens),
		TotalTokens:  uint64(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}

	return &ModelResponse{
		Message: message,
		Usage:   u,
	}, nil
}

func (m AnthropicModel) prepareRequest(
	systemInstructions param.Opt[string],
	input []Message,
	modelSettings modelsettings.ModelSettings,
	tools []Tool,
) (*anthropic.MessageNewParams, error) {
	if tc := modelSettings.ToolChoice; tc != nil && tc != modelsettings.ToolChoiceAuto {
		return nil, UserErrorf("tool choice %v is not supported for Anthropic models", tc)
	}

	var system []anthropic.TextBlockParam
	if systemInstructions.Valid() {
		system = append(system, anthropic.TextBlockParam{Text: systemInstructions.Value})
	}

	messages, extraSystem, err := messagesToAnthropic(input)
	if err != nil {
		return nil, err
	}
	system = append(system, extraSystem...)

	convertedTools := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		v, err := toolToAnthropic(tool)
		if err != nil {
			return nil, err
		}
		convertedTools = append(convertedTools, *v)
	}

	if DontLogModelData {
		slog.Debug("Calling LLM")
	} else {
		slog.Debug(
			"Calling LLM",
			slog.String("Messages", SimplePrettyJSONMarshal(messages)),
			slog.String("Tools", SimplePrettyJSONMarshal(convertedTools)),
		)
	}

	params := &anthropic.MessageNewParams{
		Model:     m.Model,
		MaxTokens: modelSettings.MaxTokens.Or(defaultAnthropicMaxTokens),
		System:    system,
		Messages:  messages,
		Tools:     convertedTools,
	}
	if modelSettings.Temperature.Valid() {
		params.Temperature = anthropic.Float(modelSettings.Temperature.Value)
	}
	if modelSettings.TopP.Valid() {
		params.TopP = anthropic.Float(modelSettings.TopP.Value)
	}
	return params, nil
}

// messagesToAnthropic converts conversation messages to Messages API params.
//
// The Messages API has no tool or system roles: tool outputs travel as
// tool_result blocks of a user message, and consecutive tool outputs must be
// grouped into a single user message to preserve the user/assistant
// alternation the API demands. System messages are returned separately so the
// caller can fold them into the request's system blocks.
func messagesToAnthropic(messages []Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	var system []anthropic.TextBlockParam

	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})

		case RoleUser:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))

		case RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, toolCall := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    toolCall.ID,
						Name:  toolCall.Name,
						Input: json.RawMessage(toolCall.Arguments),
					},
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))

		case RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for ; i < len(messages) && messages[i].Role == RoleTool; i++ {
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
			}
			i--
			result = append(result, anthropic.NewUserMessage(blocks...))

		default:
			return nil, nil, UserErrorf("unhandled message role %q", msg.Role)
		}
	}

	return result, system, nil
}

func toolToAnthropic(tool Tool) (*anthropic.ToolUnionParam, error) {
	functionTool, ok := tool.(FunctionTool)
	if !ok {
		return nil, UserErrorf("hosted tools are not supported with the Messages API. Got tool %#v", tool)
	}

	toolParam := &anthropic.ToolParam{
		Name:        functionTool.Name,
		InputSchema: anthropicInputSchema(functionTool.ParamsJSONSchema),
	}
	if functionTool.Description != "" {
		toolParam.Description = anthropic.String(functionTool.Description)
	}

	return &anthropic.ToolUnionParam{OfTool: toolParam}, nil
}

func anthropicInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Type:       "object",
		Properties: schema["properties"],
		Required:   anthropicRequiredFields(schema),
	}
}

func anthropicRequiredFields(schema map[string]any) []string {
	req, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(req))
	for _, r := range req {
		if s, ok := r.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func anthropicMessageToMessage(msg *anthropic.Message) Message {
	message := Message{Role: RoleAssistant}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			message.Content += b.Text
		case anthropic.ToolUseBlock:
			args, _ := b.Input.MarshalJSON()
			message.ToolCalls = append(message.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(args),
			})
		}
	}
	return message
}
