package core

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/tidwall/gjson"
)

// Markers the API uses to signal a stop that is not a failure.
const (
	quotaReasonPhrase = "Quota exceeded"
	quotaReason       = "quotaExceeded"
	disabledMessage   = "disabled comments"
	disabledReason    = "commentsDisabled"
)

// Extractor reads items, continuation tokens and error details out of
// raw response bodies.
type Extractor struct {
	ItemsPath string
	TokenPath string
}

// NewExtractor returns an Extractor for "items" / "nextPageToken" payloads.
func NewExtractor() *Extractor {
	return &Extractor{ItemsPath: "items", TokenPath: "nextPageToken"}
}

// Decode parses a successful page body. A body with no items field is an
// empty page, not an error. Items that are not objects are dropped.
func (e *Extractor) Decode(body []byte) ([]map[string]interface{}, string, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", errors.WrapError(
			fmt.Errorf("response is not valid JSON"),
			errors.ErrHTTPResponse,
			"decode page",
		)
	}

	root := gjson.ParseBytes(body)

	var items gjson.Result
	switch {
	case root.IsArray():
		// Handle array at root level
		items = root
	case e.ItemsPath != "":
		items = root.Get(e.ItemsPath)
	}

	if items.Exists() && items.Type != gjson.Null && !items.IsArray() {
		return nil, "", errors.WrapError(
			fmt.Errorf("items path '%s' is not an array", e.ItemsPath),
			errors.ErrExtraction,
			"decode page",
		)
	}

	out := make([]map[string]interface{}, 0, len(items.Array()))
	for _, item := range items.Array() {
		if m, ok := item.Value().(map[string]interface{}); ok {
			out = append(out, m)
		}
	}

	var token string
	if e.TokenPath != "" && !root.IsArray() {
		token = root.Get(e.TokenPath).String()
	}

	return out, token, nil
}

// Halt classifies a 403 as a sentinel stop, or HaltNone if it is an
// ordinary failure.
func (e *Extractor) Halt(resp *http.Response, body []byte) Halt {
	if resp.StatusCode != http.StatusForbidden {
		return HaltNone
	}
	if reasonPhrase(resp) == quotaReasonPhrase {
		return HaltQuota
	}

	reasons := e.reasons(body)
	for _, r := range reasons {
		if r == quotaReason {
			return HaltQuota
		}
	}
	if strings.Contains(e.Message(body), disabledMessage) {
		return HaltDisabled
	}
	for _, r := range reasons {
		if r == disabledReason {
			return HaltDisabled
		}
	}
	return HaltNone
}

// Message returns error.message from an API error body, if any.
func (e *Extractor) Message(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error.message").String()
}

func (e *Extractor) reasons(body []byte) []string {
	if !gjson.ValidBytes(body) {
		return nil
	}
	var out []string
	for _, r := range gjson.GetBytes(body, "error.errors.#.reason").Array() {
		out = append(out, r.String())
	}
	return out
}

// reasonPhrase strips the status code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
