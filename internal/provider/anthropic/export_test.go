// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package anthropic

import (
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/lectern-ai/lectern/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []provider.Message) ([]anthropicsdk.MessageParam, error) {
	return convertMessages(msgs)
}

// ClassifyError exposes classifyError for white-box testing.
var ClassifyError = classifyError

// ExtractSchema exposes extractSchema for white-box testing.
var ExtractSchema = extractSchema
