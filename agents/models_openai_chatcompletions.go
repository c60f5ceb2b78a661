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
	"reflect"
	"slices"
	"strings"

	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared/constant"
)

type OpenAIChatCompletionsModel struct {
	Model  openai.ChatModel
	client OpenaiClient
}

func NewOpenAIChatCompletionsModel(model openai.ChatModel, client OpenaiClient) OpenAIChatCompletionsModel {
	return OpenAIChatCompletionsModel{
		Model:  model,
		client: client,
	}
}

func (m OpenAIChatCompletionsModel) GetResponse(
	ctx context.Context,
	params ModelGetResponseParams,
) (*ModelResponse, error) {
	body, opts, err := m.prepareRequest(
		ctx,
		params.SystemInstructions,
		params.Input,
		params.ModelSettings,
		params.Tools,
	)
	if err != nil {
		return nil, err
	}

	response, err := m.client.Chat.Completions.New(ctx, *body, opts...)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, NewModelBehaviorError("model returned an empty choice list")
	}

	if DontLogModelData {
		slog.Debug("LLM responded")
	} else {
		slog.Debug("LLM responded", slog.String("message", SimplePrettyJSONMarshal(response.Choices[0].Message)))
	}

	u := usage.NewUsage()
	if !reflect.ValueOf(response.Usage).IsZero() {
		*u = usage.Usage{
			Requests:     1,
			InputTokens:  uint64(response.Usage.PromptTokens),
			OutputTokens: uint64(response.Usage.CompletionTokens),
			TotalTokens:  uint64(response.Usage.TotalTokens),
		}
	}

	return &ModelResponse{
		Message: ChatCmplConverter().MessageFromOpenai(response.Choices[0].Message),
		Usage:   u,
	}, nil
}

func (m OpenAIChatCompletionsModel) prepareRequest(
	ctx context.Context,
	systemInstructions param.Opt[string],
	input []Message,
	modelSettings modelsettings.ModelSettings,
	tools []Tool,
) (*openai.ChatCompletionNewParams, []option.RequestOption, error) {
	convertedMessages, err := ChatCmplConverter().MessagesToOpenai(input)
	if err != nil {
		return nil, nil, err
	}

	if systemInstructions.Valid() {
		convertedMessages = slices.Insert(convertedMessages, 0, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.NewOpt(systemInstructions.Value),
				},
				Role: constant.ValueOf[constant.System](),
			},
		})
	}

	var parallelToolCalls param.Opt[bool]
	if modelSettings.ParallelToolCalls.Valid() {
		if modelSettings.ParallelToolCalls.Value && len(tools) > 0 {
			parallelToolCalls = param.NewOpt(true)
		} else if !modelSettings.ParallelToolCalls.Value {
			parallelToolCalls = param.NewOpt(false)
		}
	}

	toolChoice, err := ChatCmplConverter().ConvertToolChoice(modelSettings.ToolChoice)
	if err != nil {
		return nil, nil, err
	}

	var convertedTools []openai.ChatCompletionToolParam
	for _, tool := range tools {
		v, err := ChatCmplConverter().ToolToOpenai(tool)
		if err != nil {
			return nil, nil, err
		}
		convertedTools = append(convertedTools, *v)
	}

	if DontLogModelData {
		slog.Debug("Calling LLM")
	} else {
		slog.Debug(
			"Calling LLM",
			slog.String("Messages", SimplePrettyJSONMarshal(convertedMessages)),
			slog.String("Tools", SimplePrettyJSONMarshal(convertedTools)),
			slog.String("Tool choice", SimplePrettyJSONMarshal(toolChoice)),
		)
	}

	store := ChatCmplHelpers().GetStoreParam(m.client, modelSettings)

	params := &openai.ChatCompletionNewParams{
		Model:             m.Model,
		Messages:          convertedMessages,
		Tools:             convertedTools,
		Temperature:       modelSettings.Temperature,
		TopP:              modelSettings.TopP,
		FrequencyPenalty:  modelSettings.FrequencyPenalty,
		PresencePenalty:   modelSettings.PresencePenalty,
		MaxTokens:         modelSettings.MaxTokens,
		ToolChoice:        toolChoice,
		ParallelToolCalls: parallelToolCalls,
		Store:             store,
		Metadata:          modelSettings.Metadata,
	}

	var opts []option.RequestOption
	for k, v := range modelSettings.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	for k, v := range modelSettings.ExtraQuery {
		opts = append(opts, option.WithQuery(k, v))
	}

	if customize := modelSettings.CustomizeChatCompletionsRequest; customize != nil {
		return customize(ctx, params, opts)
	}
	return params, opts, nil
}

type chatCmplConverter struct{}

func ChatCmplConverter() chatCmplConverter { return chatCmplConverter{} }

func (chatCmplConverter) ConvertToolChoice(toolChoice modelsettings.ToolChoice) (openai.ChatCompletionToolChoiceOptionUnionParam, error) {
	switch toolChoice := toolChoice.(type) {
	case nil:
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, nil
	case modelsettings.ToolChoiceString:
		switch toolChoice {
		case "auto", "required", "none":
			return openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: param.NewOpt(toolChoice.String()),
			}, nil
		default:
			return openai.ChatCompletionToolChoiceOptionUnionParam{},
				UserErrorf("unsupported tool choice %q for Chat Completions models", toolChoice)
		}
	default:
		// This would be an unrecoverable implementation bug, so a panic is appropriate.
		panic(fmt.Errorf("unexpected ToolChoice type %T", toolChoice))
	}
}

// MessagesToOpenai converts conversation messages to Chat Completions
// message params.
func (chatCmplConverter) MessagesToOpenai(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case RoleUser:
			result = append(result, openai.UserMessage(msg.Content))
		case RoleAssistant:
			assistantMsg := &openai.ChatCompletionAssistantMessageParam{
				Role: constant.ValueOf[constant.Assistant](),
			}
			if msg.Content != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(msg.Content),
				}
			}
			for _, toolCall := range msg.ToolCalls {
				assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: toolCall.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      toolCall.Name,
						Arguments: toolCall.Arguments,
					},
					Type: constant.ValueOf[constant.Function](),
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: assistantMsg})
		case RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, UserErrorf("unhandled message role %q", msg.Role)
		}
	}

	return result, nil
}

// MessageFromOpenai converts a Chat Completions response message to a
// conversation message.
func (chatCmplConverter) MessageFromOpenai(message openai.ChatCompletionMessage) Message {
	msg := Message{
		Role:    RoleAssistant,
		Content: message.Content,
	}
	for _, toolCall := range message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: toolCall.Function.Arguments,
		})
	}
	return msg
}

func (chatCmplConverter) ToolToOpenai(tool Tool) (*openai.ChatCompletionToolParam, error) {
	functionTool, ok := tool.(FunctionTool)
	if !ok {
		return nil, UserErrorf("hosted tools are not supported with the ChatCompletions API. Got tool %#v", tool)
	}

	description := param.Null[string]()
	if functionTool.Description != "" {
		description = param.NewOpt(functionTool.Description)
	}

	return &openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        functionTool.Name,
			Description: description,
			Parameters:  functionTool.ParamsJSONSchema,
		},
		Type: constant.ValueOf[constant.Function](),
	}, nil
}

type chatCmplHelpers struct{}

func ChatCmplHelpers() chatCmplHelpers { return chatCmplHelpers{} }

func (chatCmplHelpers) IsOpenAI(client OpenaiClient) bool {
	return strings.HasPrefix(client.BaseURL.ValueOrFallback(""), "https://api.openai.com")
}

func (h chatCmplHelpers) GetStoreParam(
	client OpenaiClient,
	modelSettings modelsettings.ModelSettings,
) param.Opt[bool] {
	// Match the behavior of the hosted platform where store is true when not given
	switch {
	case modelSettings.Store.Valid():
		return modelSettings.Store
	case h.IsOpenAI(client):
		return param.NewOpt(true)
	default:
		return param.Opt[bool]{}
	}
}
