package inbound

import (
	"net/http"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/summary"
)

type UploadResponse struct {
	FileID          string   `json:"file_id"`
	Explanation     string   `json:"explanation"`
	ExplanationHTML string   `json:"explanation_html"`
	GraphPaths      []string `json:"graph_paths"`
	Columns         []string `json:"columns"`
}

func (UploadResponse) StatusCode() int {
	return http.StatusCreated
}

func (UploadResponse) Message() string {
	return "file uploaded and analyzed"
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	FileID string `json:"file_id"`
	Answer string `json:"answer"`
}

type SummaryResponse struct {
	FileID string `json:"file_id"`
	summary.Summary
}

type DeleteResponse struct{}

func (DeleteResponse) StatusCode() int {
	return http.StatusNoContent
}
