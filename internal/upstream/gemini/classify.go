package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apierrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/upstream"

	"github.com/tidwall/gjson"
)

// blockingFinishReasons end a candidate without usable text.
var blockingFinishReasons = map[string]struct{}{
	"SAFETY":             {},
	"PROHIBITED_CONTENT": {},
	"BLOCKLIST":          {},
	"SPII":               {},
	"RECITATION":         {},
}

// Classify turns one upstream exchange into an Outcome. It is the only
// place that knows the generateContent response schema.
//
// err is the transport error, if any. parentErr is ctx.Err() of the context
// the attempt ran under: Canceled means the caller went away, an expired
// deadline is reported as NetworkFailure("timeout").
func Classify(status int, body []byte, err error, parentErr error) upstream.Outcome {
	if err != nil {
		switch {
		case errors.Is(parentErr, context.Canceled):
			return upstream.Canceled()
		case errors.Is(parentErr, context.DeadlineExceeded):
			return upstream.NetworkFailure("timeout")
		}
		reason := apierrors.NetworkReason(err)
		if reason == "canceled" {
			return upstream.Canceled()
		}
		return upstream.NetworkFailure(reason)
	}

	switch {
	case status >= 200 && status < 300:
		return classifySuccess(body)
	case status == http.StatusTooManyRequests:
		return upstream.RateLimited(status)
	case status >= 500 && status <= 599:
		return upstream.ServerError(status)
	case status >= 400 && status < 500:
		apiErr := apierrors.MapHTTPError(status, body)
		return upstream.ClientError(apiErr.HTTPStatus, apiErr.Message)
	}
	return upstream.NetworkFailure("unexpected_status")
}

func classifySuccess(body []byte) upstream.Outcome {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return upstream.NetworkFailure("invalid_json")
	}
	root := gjson.ParseBytes(body)
	// tolerate the {response: {...}} envelope some proxies add
	if r := root.Get("response"); r.IsObject() {
		root = r
	}

	if reason := root.Get("promptFeedback.blockReason").String(); reason != "" {
		return upstream.Blocked(reason)
	}

	cand := root.Get("candidates.0")
	if !cand.Exists() {
		return upstream.Blocked("no_candidates")
	}
	finish := cand.Get("finishReason").String()
	text := candidateText(cand)

	// a safety cutoff invalidates whatever partial text came back
	if _, blocked := blockingFinishReasons[finish]; blocked {
		return upstream.Blocked(finish)
	}
	if strings.TrimSpace(text) == "" {
		return upstream.Blocked("empty")
	}

	usage := upstream.Usage{
		PromptTokens:     root.Get("usageMetadata.promptTokenCount").Int(),
		CandidatesTokens: root.Get("usageMetadata.candidatesTokenCount").Int(),
		TotalTokens:      root.Get("usageMetadata.totalTokenCount").Int(),
	}
	return upstream.Success(text, finish, usage)
}

// candidateText concatenates text parts, skipping thought summaries.
func candidateText(cand gjson.Result) string {
	var b strings.Builder
	cand.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		b.WriteString(part.Get("text").String())
		return true
	})
	return b.String()
}
