package pkgrouter

import (
	"net/http"
	"strings"

	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkglog"
)

// Generator produces fresh correlation IDs.
type Generator interface {
	Generate() string
}

const (
	// HeaderCorrelationID carries the correlation ID in both directions.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is read as a fallback when a proxy already tagged the request.
	HeaderRequestID = "X-Request-ID"

	maxCIDLen = 128
)

// normalizeCID trims v and caps it at maxCIDLen bytes. Values holding
// anything but visible ASCII are rejected so they never reach log lines or
// response headers verbatim.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	for i := 0; i < len(v); i++ {
		if v[i] < '!' || v[i] > '~' {
			return ""
		}
	}
	if len(v) > maxCIDLen {
		v = v[:maxCIDLen]
	}
	return v
}

func incomingCID(r *http.Request) string {
	if cid := normalizeCID(r.Header.Get(HeaderCorrelationID)); cid != "" {
		return cid
	}
	return normalizeCID(r.Header.Get(HeaderRequestID))
}

func middlewareCorrelationID(gen Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(pkglog.WithCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
