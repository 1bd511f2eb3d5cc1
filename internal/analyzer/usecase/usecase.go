package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/summary"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/table"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgerror"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkguid"
)

const DefaultMaxUploadBytes int64 = 32 << 20

type Store interface {
	Put(ctx context.Context, ds entity.Dataset) error
	Get(ctx context.Context, id string) (entity.Dataset, error)
	Commit(ctx context.Context, id string, paths []string) error
	Evict(ctx context.Context, id string) (entity.DatasetMeta, error)
}

type Files interface {
	SaveUpload(id, ext string, data []byte) (string, error)
	Remove(paths ...string) error
}

type Charts interface {
	Generate(ctx context.Context, datasetID string, t *entity.Table) ([]string, error)
}

type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.DatasetEvent) error
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store   Store
	Files   Files
	Charts  Charts
	LLM     LLM
	Events  EventPublisher
	Clock   Clock
	ID      pkguid.StringID
	EventID pkguid.NumberID

	// MaxUploadBytes caps the payload size; zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// GraphURLPrefix is prepended to chart file names in responses.
	GraphURLPrefix string
}

type Usecase struct {
	store          Store
	files          Files
	charts         Charts
	llm            LLM
	events         EventPublisher
	clock          Clock
	id             pkguid.StringID
	eventID        pkguid.NumberID
	maxUploadBytes int64
	graphURLPrefix string
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	maxBytes := dep.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	prefix := dep.GraphURLPrefix
	if prefix == "" {
		prefix = "/graphs"
	}

	return &Usecase{
		store:          dep.Store,
		files:          dep.Files,
		charts:         dep.Charts,
		llm:            dep.LLM,
		events:         dep.Events,
		clock:          clock,
		id:             dep.ID,
		eventID:        dep.EventID,
		maxUploadBytes: maxBytes,
		graphURLPrefix: strings.TrimRight(prefix, "/"),
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Upload stores the payload, parses and summarizes it, asks the LLM to
// explain the summary and renders charts. If the LLM call fails the dataset
// is rolled back so no id is left behind that the caller never received.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if u.store == nil || u.files == nil || u.llm == nil || u.id == nil {
		return UploadResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if in.Body == nil {
		return UploadResult{}, pkgerror.NewBadRequest("file is required")
	}

	data, err := u.readLimited(in.Body)
	if err != nil {
		return UploadResult{}, err
	}

	id := u.id.Generate()
	format := table.FormatFromFilename(in.Filename)

	rawPath, err := u.files.SaveUpload(id, string(format), data)
	if err != nil {
		return UploadResult{}, pkgerror.NewServer(err)
	}

	tbl, err := table.Parse(ctx, format, bytes.NewReader(data))
	if err != nil {
		u.removeFiles(ctx, id, rawPath)
		return UploadResult{}, pkgerror.NewInvalidInputMsg(err, "could not parse uploaded file: "+err.Error())
	}

	if err := u.store.Put(ctx, entity.Dataset{
		ID:         id,
		Filename:   in.Filename,
		Format:     format,
		RawPath:    rawPath,
		UploadedAt: u.clock.Now(),
		Table:      tbl,
	}); err != nil {
		u.removeFiles(ctx, id, rawPath)
		return UploadResult{}, normalizeErr(err)
	}

	sum := summary.Summarize(tbl)

	explanation, err := u.llm.Complete(ctx, explainPrompt(sum))
	if err != nil {
		slog.ErrorContext(ctx, "llm explanation failed", "dataset_id", id, "error", err)
		u.rollback(ctx, id)
		return UploadResult{}, pkgerror.NewUpstream(err, "failed to get explanation from language model")
	}

	var graphs []string
	if u.charts != nil {
		graphs, err = u.charts.Generate(ctx, id, tbl)
		if err != nil {
			slog.WarnContext(ctx, "chart generation failed", "dataset_id", id, "error", err)
			graphs = nil
		}
	}

	if err := u.store.Commit(ctx, id, graphs); err != nil {
		// evicted while the upload was running; nothing else knows these files
		slog.WarnContext(ctx, "dataset vanished before upload finished", "dataset_id", id, "error", err)
		u.removeFiles(ctx, id, append([]string{rawPath}, graphs...)...)
		return UploadResult{}, mapStoreErr(err)
	}

	u.publish(ctx, id, entity.EventUploaded)

	return UploadResult{
		FileID:          id,
		Explanation:     explanation,
		ExplanationHTML: renderMarkdown(explanation),
		GraphPaths:      u.graphURLs(graphs),
		Columns:         tbl.ColumnNames(),
	}, nil
}

// Ask answers a free-form question about a stored dataset.
func (u *Usecase) Ask(ctx context.Context, id, question string) (AskResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return AskResult{}, pkgerror.NewBadRequest("file_id is required")
	}

	ds, err := u.store.Get(ctx, id)
	if err != nil {
		return AskResult{}, mapStoreErr(err)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{}, pkgerror.NewBadRequest("question is required")
	}

	answer, err := u.llm.Complete(ctx, askPrompt(summary.Summarize(ds.Table), question))
	if err != nil {
		slog.ErrorContext(ctx, "llm answer failed", "dataset_id", id, "error", err)
		return AskResult{}, pkgerror.NewUpstream(err, "failed to get answer from language model")
	}

	return AskResult{FileID: id, Answer: answer}, nil
}

// Summary recomputes the summary of a stored dataset.
func (u *Usecase) Summary(ctx context.Context, id string) (summary.Summary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return summary.Summary{}, pkgerror.NewBadRequest("file_id is required")
	}

	ds, err := u.store.Get(ctx, id)
	if err != nil {
		return summary.Summary{}, mapStoreErr(err)
	}

	return summary.Summarize(ds.Table), nil
}

// Delete evicts a dataset and removes its files.
func (u *Usecase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerror.NewBadRequest("file_id is required")
	}

	ds, err := u.store.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if !ds.Ready {
		return pkgerror.NewBusiness("dataset upload is still in progress", pkgerror.CodeConflict)
	}

	meta, err := u.store.Evict(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	pkgmetrics.DatasetEvicted("delete")

	u.removeFiles(ctx, id, append([]string{meta.RawPath}, meta.GraphPaths...)...)
	u.publish(ctx, id, entity.EventDeleted)

	return nil
}

func (u *Usecase) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxUploadBytes+1))
	if err != nil {
		return nil, pkgerror.NewInvalidInputMsg(err, "failed to read uploaded file")
	}
	if int64(len(data)) > u.maxUploadBytes {
		return nil, tooLarge(u.maxUploadBytes)
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return pkgerror.NewBusiness(fmt.Sprintf("file exceeds the %d byte upload limit", limit), pkgerror.CodeTooLarge)
}

func (u *Usecase) rollback(ctx context.Context, id string) {
	meta, err := u.store.Evict(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to roll back dataset", "dataset_id", id, "error", err)
		return
	}
	pkgmetrics.DatasetEvicted("rollback")
	u.removeFiles(ctx, id, meta.RawPath)
}

func (u *Usecase) removeFiles(ctx context.Context, id string, paths ...string) {
	if err := u.files.Remove(paths...); err != nil {
		slog.WarnContext(ctx, "failed to remove dataset files", "dataset_id", id, "error", err)
	}
}

func (u *Usecase) publish(ctx context.Context, id string, kind entity.EventKind) {
	if u.events == nil {
		return
	}

	event := entity.DatasetEvent{DatasetID: id, Kind: kind}
	if u.eventID != nil {
		event.EventID = u.eventID.Generate()
	}

	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "dataset_id", id, "event_id", event.EventID, "error", err)
	}
}

func (u *Usecase) graphURLs(paths []string) []string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, path.Join(u.graphURLPrefix, filepath.Base(p)))
	}
	return urls
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("dataset not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
