package pkgrouter

import (
	"net/http"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
)

func middlewareMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		pkgmetrics.ObserveHTTP(r.Method, matchedRoutePath(r), rec.Status(), time.Since(start))
	})
}
