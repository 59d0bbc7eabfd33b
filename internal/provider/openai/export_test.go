// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package openai

import (
	openaisdk "github.com/openai/openai-go"

	"github.com/lectern-ai/lectern/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []provider.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	return convertMessages(msgs, systemPrompt)
}

// BuildParams exposes buildParams for white-box testing.
var BuildParams = func(req provider.Request) (openaisdk.ChatCompletionNewParams, error) {
	return buildParams(req)
}

// ClassifyError exposes classifyError for white-box testing.
var ClassifyError = classifyError
