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
	"slices"
	"sync/atomic"

	"github.com/nlpodyssey/labscribe/types/optional"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenaiClient pairs an OpenAI SDK client with the base URL it was built
// with, which is otherwise not recoverable from the client itself.
type OpenaiClient struct {
	openai.Client
	BaseURL optional.Optional[string]
}

func NewOpenaiClient(baseURL optional.Optional[string], opts ...option.RequestOption) OpenaiClient {
	if v, ok := baseURL.Get(); ok {
		opts = append(slices.Clone(opts), option.WithBaseURL(v))
	}
	return OpenaiClient{
		Client:  openai.NewClient(opts...),
		BaseURL: baseURL,
	}
}

var (
	defaultOpenaiKey    atomic.Pointer[string]
	defaultOpenaiClient atomic.Pointer[OpenaiClient]
)

// SetDefaultOpenaiKey sets the process-wide default OpenAI API key. It is
// only needed when the OPENAI_API_KEY environment variable is not set; a
// key provided here takes precedence over the environment.
func SetDefaultOpenaiKey(key string) {
	defaultOpenaiKey.Store(&key)
}

func GetDefaultOpenaiKey() optional.Optional[string] {
	v := defaultOpenaiKey.Load()
	if v == nil {
		return optional.None[string]()
	}
	return optional.Value(*v)
}

// SetDefaultOpenaiClient sets a process-wide default client, used by any
// provider that is not given an explicit one.
func SetDefaultOpenaiClient(client OpenaiClient) {
	defaultOpenaiClient.Store(&client)
}

func GetDefaultOpenaiClient() optional.Optional[OpenaiClient] {
	v := defaultOpenaiClient.Load()
	if v == nil {
		return optional.None[OpenaiClient]()
	}
	return optional.Value(*v)
}
