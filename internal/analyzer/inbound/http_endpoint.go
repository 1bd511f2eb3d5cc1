package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/usecase"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgerror"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgrouter"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkguid"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) UploadCSV(ctx context.Context, r *http.Request) (any, error) {
	reader, filename, cleanup, err := extractUpload(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := h.uc.Upload(ctx, usecase.UploadInput{Filename: filename, Body: reader})
	if err != nil {
		return nil, err
	}

	graphs := result.GraphPaths
	if graphs == nil {
		graphs = []string{}
	}

	return UploadResponse{
		FileID:          result.FileID,
		Explanation:     result.Explanation,
		ExplanationHTML: result.ExplanationHTML,
		GraphPaths:      graphs,
		Columns:         result.Columns,
	}, nil
}

func (h *HTTPEndpoint) Ask(ctx context.Context, r *http.Request) (any, error) {
	fileID, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}

	var req AskRequest
	if r.Body == nil {
		return nil, pkgerror.NewBadRequest("question is required")
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pkgerror.NewBadRequest("question is required")
		}
		return nil, pkgerror.NewBadRequest("request body must be a JSON object with a question")
	}

	result, err := h.uc.Ask(ctx, fileID, req.Question)
	if err != nil {
		return nil, err
	}

	return AskResponse{FileID: result.FileID, Answer: result.Answer}, nil
}

func (h *HTTPEndpoint) Summary(ctx context.Context, r *http.Request) (any, error) {
	fileID, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}

	sum, err := h.uc.Summary(ctx, fileID)
	if err != nil {
		return nil, err
	}

	return SummaryResponse{FileID: fileID, Summary: sum}, nil
}

func (h *HTTPEndpoint) Delete(ctx context.Context, r *http.Request) (any, error) {
	fileID, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.uc.Delete(ctx, fileID); err != nil {
		return nil, err
	}

	return DeleteResponse{}, nil
}

// datasetID reads the file_id route parameter. Values that cannot have been
// issued by upload are reported as not found without touching the store;
// blank ones are left to the usecase.
func datasetID(ctx context.Context) (string, error) {
	id := pkgrouter.PathParam(ctx, "file_id")
	if id != "" && !pkguid.Valid(id) {
		return "", pkgerror.NewBusiness("dataset not found", pkgerror.CodeNotFound)
	}
	return id, nil
}

func extractUpload(r *http.Request) (io.Reader, string, func(), error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && strings.EqualFold(mediaType, "multipart/form-data") {
			return extractMultipartFile(r)
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return nil, "", func() {}, pkgerror.NewBadRequest("file is required")
	}

	return r.Body, r.URL.Query().Get("filename"), func() {}, nil
}

func extractMultipartFile(r *http.Request) (io.Reader, string, func(), error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", func() {}, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", func() {}, pkgerror.NewBadRequest("file is required")
			}
			return nil, "", func() {}, pkgerror.NewInvalidFormat()
		}

		if part.FormName() == "file" {
			return part, part.FileName(), func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}
