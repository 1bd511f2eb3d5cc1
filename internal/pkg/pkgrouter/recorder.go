package pkgrouter

import (
	"bytes"
	"mime"
	"net/http"
)

// statusRecorder remembers the status and size of a response and, when
// capture is on, keeps up to maxLoggedBodyBytes of JSON or text bodies.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	capture bool
	body    bytes.Buffer
	capped  bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		if w.capture && !loggableMediaType(w.Header().Get("Content-Type")) {
			w.capture = false
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	if w.capture && !w.capped {
		if room := maxLoggedBodyBytes - w.body.Len(); len(p) > room {
			w.body.Write(p[:room])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// Status is the response status, defaulting to 200 when the handler never
// wrote anything.
func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// loggableMediaType reports whether a body of this type is worth keeping in
// a log line. Chart images and spreadsheets are not.
func loggableMediaType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/json", "application/problem+json", "text/plain":
		return true
	}
	return false
}
