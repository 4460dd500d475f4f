package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/models"
	"github.com/dukapos/export-worker/internal/repository"
	"github.com/dukapos/export-worker/internal/service"
)

type mockExportService struct {
	enqueueFunc func(ctx context.Context, req service.CreateJobRequest) (*models.ExportJob, error)
	runFunc     func(ctx context.Context, jobID string, ack string) (*models.ExportJob, error)
	listFunc    func(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error)
	getFunc     func(ctx context.Context, jobID string) (*models.ExportJob, error)
	resultFunc  func(ctx context.Context, jobID string) (*models.JobMetadata, error)
	statusFunc  func(ctx context.Context) (*service.WorkerStatus, error)
}

func (m *mockExportService) Enqueue(ctx context.Context, req service.CreateJobRequest) (*models.ExportJob, error) {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, req)
	}
	return &models.ExportJob{ID: "job-1", Type: req.Type, Status: models.ExportStatusPending}, nil
}

func (m *mockExportService) Run(ctx context.Context, jobID string, ack string) (*models.ExportJob, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, jobID, ack)
	}
	return &models.ExportJob{ID: jobID, Status: models.ExportStatusCompleted}, nil
}

func (m *mockExportService) ListJobs(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockExportService) GetJob(ctx context.Context, jobID string) (*models.ExportJob, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, jobID)
	}
	return &models.ExportJob{ID: jobID}, nil
}

func (m *mockExportService) Result(ctx context.Context, jobID string) (*models.JobMetadata, error) {
	if m.resultFunc != nil {
		return m.resultFunc(ctx, jobID)
	}
	return &models.JobMetadata{Filename: "stock.csv", CSV: "a\n1"}, nil
}

func (m *mockExportService) Status(ctx context.Context) (*service.WorkerStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &service.WorkerStatus{}, nil
}

func newTestServer(svc ExportService) *httptest.Server {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	router := chi.NewRouter()
	RegisterRoutes(router, &App{Exports: svc, Log: log})
	return httptest.NewServer(router)
}

func TestCreateExport(t *testing.T) {
	var captured service.CreateJobRequest
	svc := &mockExportService{
		enqueueFunc: func(ctx context.Context, req service.CreateJobRequest) (*models.ExportJob, error) {
			captured = req
			return &models.ExportJob{ID: "job-1", Type: req.Type, Status: models.ExportStatusPending}, nil
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	body := `{"businessId":"biz-1","type":"STOCK","requestedByUserId":"user-1"}`
	resp, err := http.Post(server.URL+"/exports", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if captured.BusinessID != "biz-1" || captured.Type != models.ExportTypeStock {
		t.Errorf("unexpected enqueue request %+v", captured)
	}

	var job models.ExportJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if job.ID != "job-1" {
		t.Errorf("expected job-1, got %s", job.ID)
	}
}

func TestCreateExport_MissingBusinessID(t *testing.T) {
	server := newTestServer(&mockExportService{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/exports", "application/json", bytes.NewBufferString(`{"type":"STOCK"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateExport_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unsupported type", service.ErrUnsupportedType, http.StatusBadRequest},
		{"missing acknowledgement", service.ErrAcknowledgementRequired, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockExportService{
				enqueueFunc: func(ctx context.Context, req service.CreateJobRequest) (*models.ExportJob, error) {
					return nil, tt.err
				},
			}
			server := newTestServer(svc)
			defer server.Close()

			body := `{"businessId":"biz-1","type":"AUDIT_LOGS"}`
			resp, err := http.Post(server.URL+"/exports", "application/json", bytes.NewBufferString(body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestRunExport_NotFound(t *testing.T) {
	svc := &mockExportService{
		runFunc: func(ctx context.Context, jobID string, ack string) (*models.ExportJob, error) {
			return nil, service.ErrJobNotFound
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Post(server.URL+"/exports/missing/run", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRunExport_PassesAcknowledgement(t *testing.T) {
	var gotAck string
	svc := &mockExportService{
		runFunc: func(ctx context.Context, jobID string, ack string) (*models.ExportJob, error) {
			gotAck = ack
			return &models.ExportJob{ID: jobID, Status: models.ExportStatusCompleted}, nil
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	body := `{"acknowledgement":"EXPORT_AUDIT_LOGS_CONFIRMED"}`
	resp, err := http.Post(server.URL+"/exports/job-1/run", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotAck != "EXPORT_AUDIT_LOGS_CONFIRMED" {
		t.Errorf("expected acknowledgement forwarded, got %q", gotAck)
	}
}

func TestListExports_Filters(t *testing.T) {
	var captured repository.ListFilter
	svc := &mockExportService{
		listFunc: func(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error) {
			captured = filter
			return []models.ExportJob{{ID: "job-1"}}, nil
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/exports?status=FAILED&type=STOCK&businessId=biz-1&from=2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if captured.Status != models.ExportStatusFailed || captured.Type != models.ExportTypeStock {
		t.Errorf("unexpected filter %+v", captured)
	}
	if captured.From == nil {
		t.Error("expected from filter parsed")
	}
}

func TestListExports_InvalidTimestamp(t *testing.T) {
	server := newTestServer(&mockExportService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/exports?from=yesterday")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestExportResult_NotReady(t *testing.T) {
	svc := &mockExportService{
		resultFunc: func(ctx context.Context, jobID string) (*models.JobMetadata, error) {
			return nil, service.ErrResultNotReady
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/exports/job-1/result")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestWorkerStatus(t *testing.T) {
	svc := &mockExportService{
		statusFunc: func(ctx context.Context) (*service.WorkerStatus, error) {
			return &service.WorkerStatus{Pending: 4, Running: 1, Failed: 2}, nil
		},
	}
	server := newTestServer(svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/worker/status")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var status service.WorkerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if status.Pending != 4 || status.Running != 1 || status.Failed != 2 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(&mockExportService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
