package inbound

import (
	"context"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/summary"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/usecase"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadResult, error)
	Ask(ctx context.Context, id, question string) (usecase.AskResult, error)
	Summary(ctx context.Context, id string) (summary.Summary, error)
	Delete(ctx context.Context, id string) error
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/upload_csv", end.UploadCSV) // multipart "file", or raw body with ?filename=
	r.POST("/ask/:file_id", end.Ask)

	r.GET("/datasets/:file_id/summary", end.Summary)
	r.DELETE("/datasets/:file_id", end.Delete)
}
