package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/chart"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/event"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/files"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/llm"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/retention"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/store"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/usecase"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgrouter"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkguid"
)

type envelope[T any] struct {
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Error   map[string]string `json:"error"`
}

type testServer struct {
	router   http.Handler
	disk     *files.Disk
	storage  *store.InMemoryStore
	llmFails atomic.Bool
	prompts  atomic.Int32
}

func newTestServer(t *testing.T, policy retention.Policy) *testServer {
	t.Helper()

	ts := &testServer{}

	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.prompts.Add(1)
		if ts.llmFails.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"overloaded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"The dataset has **2** columns."}}]}`))
	}))
	t.Cleanup(llmSrv.Close)

	root := t.TempDir()
	disk, err := files.NewDisk(filepath.Join(root, "uploads"), filepath.Join(root, "graphs"))
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}

	storage := store.NewInMemoryStore()
	enforcer := retention.NewEnforcer(storage, disk, policy)

	bus := event.NewBus(16)
	consumer := event.NewConsumer(bus, enforcer, event.ConsumerConfig{Workers: 1, BaseBackoff: time.Millisecond})
	consumer.Start()
	t.Cleanup(func() { _ = consumer.Stop(context.Background()) })

	snowflake, err := pkguid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	uc := usecase.New(usecase.Dependency{
		Store:   storage,
		Files:   disk,
		Charts:  chart.NewGenerator(chart.Config{Dir: disk.GraphDir(), Width: 400, Height: 300, Concurrency: 2}),
		LLM:     llm.NewClient(llm.Config{Endpoint: llmSrv.URL, APIKey: "test-key", Timeout: 5 * time.Second}),
		Events:  bus,
		ID:      pkguid.NewUUID(),
		EventID: snowflake,
	})

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc)
	router.Static("/graphs", disk.GraphDir())

	ts.router = router
	ts.disk = disk
	ts.storage = storage
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload_csv", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return env
}

func askRequest(fileID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ask/"+fileID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadAskSummaryDelete(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, multipartUpload(t, "sales.csv", "n,color\n1,red\n2,blue\n3,red\n"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected upload status: %d body=%s", rec.Code, rec.Body.String())
	}

	up := decode[UploadResponse](t, rec).Data
	if up.FileID == "" {
		t.Fatal("file id is empty")
	}
	if up.Explanation != "The dataset has **2** columns." {
		t.Fatalf("unexpected explanation: %q", up.Explanation)
	}
	if !strings.Contains(up.ExplanationHTML, "<strong>2</strong>") {
		t.Fatalf("unexpected explanation html: %q", up.ExplanationHTML)
	}
	wantGraphs := []string{
		"/graphs/" + up.FileID + "_n_hist.png",
		"/graphs/" + up.FileID + "_color_pie.png",
	}
	if fmt.Sprint(up.GraphPaths) != fmt.Sprint(wantGraphs) {
		t.Fatalf("unexpected graph paths: %v", up.GraphPaths)
	}

	graph := ts.do(t, httptest.NewRequest(http.MethodGet, up.GraphPaths[0], nil))
	if graph.Code != http.StatusOK || !bytes.HasPrefix(graph.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("graph not served: status=%d", graph.Code)
	}

	rec = ts.do(t, askRequest(up.FileID, `{"question":"What is the mean of n?"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected ask status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[AskResponse](t, rec).Data.Answer; got == "" {
		t.Fatal("empty answer")
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/datasets/"+up.FileID+"/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected summary status: %d", rec.Code)
	}
	var sum envelope[struct {
		FileID        string                    `json:"file_id"`
		Rows          int                       `json:"rows"`
		MissingValues map[string]int            `json:"missing_values"`
		Stats         map[string]map[string]any `json:"stats"`
	}]
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Data.Rows != 3 || sum.Data.MissingValues["n"] != 0 || sum.Data.MissingValues["color"] != 0 {
		t.Fatalf("unexpected summary: %+v", sum.Data)
	}
	if sum.Data.Stats["n"]["mean"] != 2.0 {
		t.Fatalf("unexpected mean: %v", sum.Data.Stats["n"]["mean"])
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/datasets/"+up.FileID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected delete status: %d", rec.Code)
	}

	entries, err := os.ReadDir(ts.disk.GraphDir())
	if err != nil {
		t.Fatalf("read graph dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("graphs not removed: %d left", len(entries))
	}

	rec = ts.do(t, askRequest(up.FileID, `{"question":"still there?"}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestAskErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, multipartUpload(t, "data.csv", "a\n1\n"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected upload status: %d", rec.Code)
	}
	fileID := decode[UploadResponse](t, rec).Data.FileID

	tests := []struct {
		name   string
		fileID string
		body   string
		status int
		code   string
	}{
		{name: "unknown id", fileID: "does-not-exist", body: `{"question":"hi"}`, status: http.StatusNotFound, code: "ERROR_CODE_NOT_FOUND"},
		{name: "empty question", fileID: fileID, body: `{"question":"   "}`, status: http.StatusBadRequest, code: "ERROR_CODE_BAD_REQUEST"},
		{name: "missing question", fileID: fileID, body: `{}`, status: http.StatusBadRequest, code: "ERROR_CODE_BAD_REQUEST"},
		{name: "malformed json", fileID: fileID, body: `{"question":`, status: http.StatusBadRequest, code: "ERROR_CODE_BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, askRequest(tt.fileID, tt.body))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode[any](t, rec).Error["code"]; got != tt.code {
				t.Fatalf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestUploadSkipsWideCategoricalColumn(t *testing.T) {
	ts := newTestServer(t, nil)

	var b strings.Builder
	b.WriteString("city,n\n")
	for i := 0; i < 11; i++ {
		fmt.Fprintf(&b, "city-%d,%d\n", i, i)
	}

	rec := ts.do(t, multipartUpload(t, "cities.csv", b.String()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected upload status: %d", rec.Code)
	}

	up := decode[UploadResponse](t, rec).Data
	if len(up.GraphPaths) != 1 || !strings.HasSuffix(up.GraphPaths[0], "_n_hist.png") {
		t.Fatalf("unexpected graph paths: %v", up.GraphPaths)
	}
}

func TestUploadFailures(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("unparsable file", func(t *testing.T) {
		rec := ts.do(t, multipartUpload(t, "bad.csv", "a,b\n1,2,3\n"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	})

	t.Run("missing file part", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		_ = writer.WriteField("other", "x")
		_ = writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/upload_csv", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if rec := ts.do(t, req); rec.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	})

	t.Run("llm failure rolls back", func(t *testing.T) {
		ts.llmFails.Store(true)
		defer ts.llmFails.Store(false)

		rec := ts.do(t, multipartUpload(t, "data.csv", "a\n1\n"))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("unexpected status: %d", rec.Code)
		}

		list, err := ts.storage.List(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected no datasets after rollback, got %d", len(list))
		}

		entries, err := os.ReadDir(ts.disk.UploadDir())
		if err != nil {
			t.Fatalf("read upload dir: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("raw files left behind: %d", len(entries))
		}
	})
}

func TestRawBodyUpload(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/upload_csv?filename=data.csv", strings.NewReader("x,y\n1,a\n2,b\n"))
	req.Header.Set("Content-Type", "text/csv")

	rec := ts.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if cols := decode[UploadResponse](t, rec).Data.Columns; fmt.Sprint(cols) != "[x y]" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestRetentionEvictsOnUpload(t *testing.T) {
	ts := newTestServer(t, retention.MaxCount{Count: 1})

	first := decode[UploadResponse](t, ts.do(t, multipartUpload(t, "a.csv", "a\n1\n"))).Data
	second := decode[UploadResponse](t, ts.do(t, multipartUpload(t, "b.csv", "b\n2\n"))).Data

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		list, _ := ts.storage.List(context.Background())
		if len(list) == 1 && list[0].ID == second.FileID {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/datasets/"+first.FileID+"/summary", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected first dataset evicted, got %d", rec.Code)
	}
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/datasets/"+second.FileID+"/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected second dataset kept, got %d", rec.Code)
	}
}
