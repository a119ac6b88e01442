package video

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The provider has answered with several shapes over time. Paths are tried in
// order and the first non-empty value wins.
var (
	videoIDPaths  = []string{"data.video_id", "video_id", "data.id"}
	urlFields     = []string{"video_url", "url", "result_url"}
	errorPaths    = []string{"error.message", "message", "error"}
	statusPayload = "data"
)

func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := doc.Get(p)
		if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func parseVideoID(body []byte) string {
	return firstString(gjson.ParseBytes(body), videoIDPaths...)
}

// statusDocument returns the object holding status and url: the "data"
// envelope when present, the root otherwise.
func statusDocument(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if inner := root.Get(statusPayload); inner.IsObject() {
		return inner
	}
	return root
}

func parseStatus(body []byte) (status, videoURL, message string) {
	doc := statusDocument(body)
	status = strings.ToLower(firstString(doc, "status"))
	videoURL = firstString(doc, urlFields...)
	message = firstString(doc, errorPaths...)
	return status, videoURL, message
}

func parseErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := firstString(gjson.ParseBytes(body), errorPaths...); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}

func normalizeStatus(raw string) PollStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed":
		return PollCompleted
	case "failed", "error":
		return PollFailed
	default:
		return PollPending
	}
}
