package essay

import (
	"fmt"
	"net/http"
	"strings"

	hcommon "essayproxy-go/internal/handlers/common"
	apperrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/prompt"
)

// MissingParamsMessage is the 400 message for an incomplete request body.
const MissingParamsMessage = "missing required parameters (topic, wordCount, structure)"

// GenerationRequest is the inbound JSON body.
type GenerationRequest struct {
	Topic      string `json:"topic" binding:"required"`
	WordCount  int    `json:"wordCount" binding:"required,gt=0,lte=20000"`
	Structure  string `json:"structure" binding:"required,oneof=classic threeline"`
	Guidelines string `json:"guidelines" binding:"max=8000"`
}

// PromptRequest converts the validated body for prompt rendering.
func (r GenerationRequest) PromptRequest() prompt.Request {
	return prompt.Request{
		Topic:      strings.TrimSpace(r.Topic),
		WordCount:  r.WordCount,
		Structure:  prompt.Structure(r.Structure),
		Guidelines: strings.TrimSpace(r.Guidelines),
	}
}

// validationError maps a binding failure onto a caller-facing 400.
// Missing fields win over other rule failures so the message matches what
// the caller most likely got wrong.
func validationError(be *hcommon.BindError) *apperrors.APIError {
	switch {
	case be.TooLarge:
		return apperrors.New(http.StatusRequestEntityTooLarge, "request_too_large", apperrors.KindValidation, "request body too large")
	case be.TypeField != "":
		return apperrors.Validation(be.Error())
	case be.Malformed:
		return apperrors.Validation("request body must be a JSON object")
	case be.HasTag("required"):
		return apperrors.Validation(MissingParamsMessage)
	case be.HasTag("oneof"):
		return apperrors.Validation(fmt.Sprintf("structure must be one of: %s", strings.Join(prompt.StructureNames(), ", ")))
	case be.HasTag("gt"), be.HasTag("lte"):
		return apperrors.Validation("wordCount must be a positive number no larger than 20000")
	case be.HasTag("max"):
		return apperrors.Validation("guidelines too long")
	}
	return apperrors.New(http.StatusBadRequest, "invalid_request", apperrors.KindValidation, be.Error())
}
