package gemini

import (
	"testing"

	"essayproxy-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBuildPayloadDefaults(t *testing.T) {
	body, err := BuildPayload("Write about rivers.", config.Default().Generation)
	require.NoError(t, err)

	assert.Equal(t, "user", gjson.GetBytes(body, "contents.0.role").String())
	assert.Equal(t, "Write about rivers.", gjson.GetBytes(body, "contents.0.parts.0.text").String())
	assert.Equal(t, 1.0, gjson.GetBytes(body, "generationConfig.temperature").Float())
	assert.Equal(t, 0.9, gjson.GetBytes(body, "generationConfig.topP").Float())
	assert.Equal(t, int64(4096), gjson.GetBytes(body, "generationConfig.maxOutputTokens").Int())
	assert.False(t, gjson.GetBytes(body, "safetySettings").Exists())
}

func TestBuildPayloadSafetySettings(t *testing.T) {
	gen := config.Default().Generation
	gen.SafetySettings = "HARM_CATEGORY_HARASSMENT=BLOCK_NONE, HARM_CATEGORY_HATE_SPEECH=BLOCK_ONLY_HIGH"
	body, err := BuildPayload("p", gen)
	require.NoError(t, err)
	assert.Equal(t, "HARM_CATEGORY_HATE_SPEECH", gjson.GetBytes(body, "safetySettings.1.category").String())
	assert.Equal(t, "BLOCK_NONE", gjson.GetBytes(body, "safetySettings.0.threshold").String())

	gen.SafetySettings = "broken"
	_, err = BuildPayload("p", gen)
	assert.Error(t, err)
}

func TestBuildPayloadEscapesPrompt(t *testing.T) {
	prompt := "quote \" and\nnewline"
	body, err := BuildPayload(prompt, config.Default().Generation)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(body))
	assert.Equal(t, prompt, gjson.GetBytes(body, "contents.0.parts.0.text").String())
}
