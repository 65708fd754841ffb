package gemini

import (
	"fmt"

	"essayproxy-go/internal/config"

	"github.com/tidwall/sjson"
)

// BuildPayload assembles the generateContent request body for a single
// user prompt.
func BuildPayload(prompt string, gen config.GenerationConfig) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("contents.0.role", "user")
	set("contents.0.parts.0.text", prompt)
	set("generationConfig.temperature", gen.Temperature)
	set("generationConfig.topP", gen.TopP)
	if gen.MaxOutputTokens > 0 {
		set("generationConfig.maxOutputTokens", gen.MaxOutputTokens)
	}
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}

	settings, perr := config.ParseSafetySettings(gen.SafetySettings)
	if perr != nil {
		return nil, fmt.Errorf("build payload: %w", perr)
	}
	for i, s := range settings {
		set(fmt.Sprintf("safetySettings.%d.category", i), s.Category)
		set(fmt.Sprintf("safetySettings.%d.threshold", i), s.Threshold)
	}
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	return body, nil
}
