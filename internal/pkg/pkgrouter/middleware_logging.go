package pkgrouter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxLoggedBodyBytes = 64 * 1024

//nolint:gochecknoglobals // read-only lookup table
var sensitiveKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"api_key":             {},
	"apikey":              {},
	"x-api-key":           {},
}

func isSensitive(key string) bool {
	_, found := sensitiveKeys[strings.ToLower(key)]
	return found
}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if isSensitive(key) {
			result.Set(key, "***")
		}
	}
	return result
}

func maskData(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if isSensitive(k) {
				masked[k] = "***"
				continue
			}
			masked[k] = maskData(v2)
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = maskData(v2)
		}
		return res
	default:
		return v
	}
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "multipart/")
}

// isDataUpload matches raw dataset bodies (CSV or spreadsheet), which are
// never copied into logs.
func isDataUpload(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/csv" ||
		mt == "application/vnd.ms-excel" ||
		strings.HasPrefix(mt, "application/vnd.openxmlformats-officedocument.spreadsheetml")
}

// parseAndMaskBody turns a request body prefix into something loggable.
func parseAndMaskBody(contentType string, body []byte) any {
	switch {
	case len(body) == 0:
		return nil
	case isMultipart(contentType):
		return "<multipart body omitted>"
	case isDataUpload(contentType):
		return fmt.Sprintf("<dataset body omitted, %d+ bytes>", len(body))
	}

	var jsonBody any
	if err := json.Unmarshal(body, &jsonBody); err == nil {
		return maskData(jsonBody)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...(truncated)"
	}
	return string(body)
}

// peekBody reads at most maxLoggedBodyBytes+1 bytes of r.Body for logging and
// puts them back in front of the unread remainder.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody || isMultipart(r.Header.Get("Content-Type")) {
		return nil
	}
	//nolint:errcheck // best effort for logging only
	prefix, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(prefix), r.Body), r.Body}
	return prefix
}

func responseBody(rec *statusRecorder) any {
	if !rec.capture || rec.body.Len() == 0 {
		return nil
	}

	var body any
	var parsed any
	if err := json.Unmarshal(rec.body.Bytes(), &parsed); err == nil {
		body = maskData(parsed)
	} else if utf8.Valid(rec.body.Bytes()) {
		body = rec.body.String()
	} else {
		body = "<binary body omitted>"
	}

	if rec.capped {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}

func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()
		contentType := r.Header.Get("Content-Type")

		var reqBody any
		if isMultipart(contentType) {
			reqBody = "<multipart body omitted>"
		} else {
			reqBody = parseAndMaskBody(contentType, peekBody(r))
		}

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"headers", maskHeaders(r.Header),
			"body", reqBody,
		)

		rec := &statusRecorder{ResponseWriter: w, capture: true}
		next.ServeHTTP(rec, r)

		slog.InfoContext(r.Context(), "response sent",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", rec.Status(),
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
			"body", responseBody(rec),
		)
	})
}
