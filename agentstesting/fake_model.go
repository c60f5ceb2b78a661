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
	"reflect"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/modelsettings"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go/packages/param"
)

type FakeModel struct {
	TurnOutputs    []FakeModelTurnOutput
	LastTurnArgs   FakeModelLastTurnArgs
	HardcodedUsage *usage.Usage
}

type FakeModelTurnOutput struct {
	Value agents.Message
	Error error
}

type FakeModelLastTurnArgs struct {
	SystemInstructions param.Opt[string]
	Input              []agents.Message
	ModelSettings      modelsettings.ModelSettings
	Tools              []agents.Tool
}

func NewFakeModel(initialOutput *FakeModelTurnOutput) *FakeModel {
	var turnOutputs []FakeModelTurnOutput
	if initialOutput != nil && !reflect.ValueOf(*initialOutput).IsZero() {
		turnOutputs = []FakeModelTurnOutput{*initialOutput}
	}

	return &FakeModel{
		TurnOutputs: turnOutputs,
	}
}

func (m *FakeModel) SetHardcodedUsage(u usage.Usage) {
	m.HardcodedUsage = &u
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.TurnOutputs = append(m.TurnOutputs, output)
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.TurnOutputs = append(m.TurnOutputs, outputs...)
}

func (m *FakeModel) GetNextOutput() FakeModelTurnOutput {
	if len(m.TurnOutputs) == 0 {
		return FakeModelTurnOutput{}
	}
	v := m.TurnOutputs[0]
	m.TurnOutputs = m.TurnOutputs[1:]
	return v
}

func (m *FakeModel) GetResponse(_ context.Context, params agents.ModelGetResponseParams) (*agents.ModelResponse, error) {
	m.LastTurnArgs = FakeModelLastTurnArgs{
		SystemInstructions: params.SystemInstructions,
		Input:              params.Input,
		ModelSettings:      params.ModelSettings,
		Tools:              params.Tools,
	}

	output := m.GetNextOutput()
	if err := output.Error; err != nil {
		return nil, err
	}

	u := m.HardcodedUsage
	if u == nil {
		// A fake call still counts as one request.
		u = &usage.Usage{Requests: 1}
	}

	return &agents.ModelResponse{
		Message: output.Value,
		Usage:   u,
	}, nil
}
