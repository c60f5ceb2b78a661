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

import "fmt"

// MaxTurnsExceededError is returned when the maximum number of turns is
// exceeded before the agent produces a final answer.
type MaxTurnsExceededError struct {
	Message string
}

func (err MaxTurnsExceededError) Error() string { return err.Message }

func NewMaxTurnsExceededError(message string) MaxTurnsExceededError {
	return MaxTurnsExceededError{Message: message}
}

func MaxTurnsExceededErrorf(format string, a ...any) MaxTurnsExceededError {
	return MaxTurnsExceededError{Message: fmt.Sprintf(format, a...)}
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. calling a tool that doesn't exist, or providing arguments that do
// not satisfy the tool's JSON schema.
type ModelBehaviorError struct {
	Message string
}

func (err ModelBehaviorError) Error() string { return err.Message }

func NewModelBehaviorError(message string) ModelBehaviorError {
	return ModelBehaviorError{Message: message}
}

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError{Message: fmt.Sprintf(format, a...)}
}

// UserError is returned when the caller misuses the package, e.g. running
// an agent with a nil model provider.
type UserError struct {
	Message string
}

func (err UserError) Error() string { return err.Message }

func NewUserError(message string) UserError {
	return UserError{Message: message}
}

func UserErrorf(format string, a ...any) UserError {
	return UserError{Message: fmt.Sprintf(format, a...)}
}

// RemoteServiceError is returned when a completion request keeps failing at
// the transport level (connection errors, authentication, rate limits)
// after the retry policy is exhausted.
type RemoteServiceError struct {
	Message string
	Err     error
}

func (err RemoteServiceError) Error() string { return err.Message }

func (err RemoteServiceError) Unwrap() error { return err.Err }

func NewRemoteServiceError(message string, cause error) RemoteServiceError {
	return RemoteServiceError{Message: message, Err: cause}
}

func RemoteServiceErrorf(format string, a ...any) RemoteServiceError {
	return RemoteServiceError{Message: fmt.Sprintf(format, a...)}
}
