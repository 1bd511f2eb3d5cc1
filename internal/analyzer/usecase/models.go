package usecase

import "io"

type UploadInput struct {
	Filename string
	Body     io.Reader
}

type UploadResult struct {
	FileID          string
	Explanation     string
	ExplanationHTML string
	GraphPaths      []string
	Columns         []string
}

type AskResult struct {
	FileID string
	Answer string
}
