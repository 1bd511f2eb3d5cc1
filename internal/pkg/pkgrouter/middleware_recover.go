package pkgrouter

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgerror"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
)

// middlewareRecoverer turns a handler panic into a 500 error envelope.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			route := matchedRoutePath(r)
			pkgmetrics.PanicRecovered(route)
			slog.ErrorContext(r.Context(), "panic while serving request",
				"route", route,
				"because", rvr,
				"stack", appFrames(debug.Stack()),
			)

			writeJSON(w, errorResponse{
				Message: "Internal server error",
				Error:   map[string]string{"code": pkgerror.CodeInternal.String()},
			}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// appFrames keeps the file:line entries of a stack dump that point into this
// module's internal/ tree, relative to it.
func appFrames(stack []byte) []string {
	var frames []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}
		frame := line[idx+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		frames = append(frames, frame)
	}
	return frames
}
