package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"store-monitor-backend/config"
	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/report"
	"store-monitor-backend/internal/store"
	"store-monitor-backend/internal/uptime"
)

type fakeReports struct {
	nextID  string
	jobs    map[string]report.Status
	results map[string]*uptime.Report
	pollErr error
}

func newFakeReports() *fakeReports {
	return &fakeReports{
		nextID:  "0123456789abcdef0123456789abcdef",
		jobs:    make(map[string]report.Status),
		results: make(map[string]*uptime.Report),
	}
}

func (f *fakeReports) Trigger() string {
	f.jobs[f.nextID] = report.StatusRunning
	return f.nextID
}

func (f *fakeReports) Poll(id string) (report.PollResult, error) {
	if id == "" {
		return report.PollResult{}, report.ErrMissingID
	}
	status, ok := f.jobs[id]
	if !ok {
		return report.PollResult{}, report.ErrNotFound
	}
	res := report.PollResult{ReportID: id, Status: status}
	if f.pollErr != nil {
		return res, f.pollErr
	}
	if status == report.StatusComplete {
		res.ArtifactPath = "report_data/report_" + id + ".csv"
	}
	return res, nil
}

func (f *fakeReports) Status(id string) (report.Status, error) {
	status, ok := f.jobs[id]
	if !ok {
		return "", report.ErrNotFound
	}
	return status, nil
}

func (f *fakeReports) Report(id string) (*uptime.Report, error) {
	status, ok := f.jobs[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	if status != report.StatusComplete {
		return nil, report.ErrNotComplete
	}
	return f.results[id], nil
}

type fakeStore struct {
	subs    []model.ReportSubscription
	saveErr error
	onSave  func()
}

func (s *fakeStore) LoadSnapshot(ctx context.Context) (*uptime.Snapshot, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) ReplaceStatuses(ctx context.Context, rows []model.StoreStatus) error {
	return nil
}

func (s *fakeStore) ReplaceHours(ctx context.Context, rows []model.StoreHours) error {
	return nil
}

func (s *fakeStore) ReplaceTimezones(ctx context.Context, rows []model.StoreTimezone) error {
	return nil
}

func (s *fakeStore) CountRows(ctx context.Context, table store.Table) (int64, error) {
	return 0, nil
}

func (s *fakeStore) SaveSubscription(ctx context.Context, sub *model.ReportSubscription) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.subs = append(s.subs, *sub)
	if s.onSave != nil {
		s.onSave()
	}
	return nil
}

func (s *fakeStore) DeleteSubscription(ctx context.Context, reportID, endpoint string) error {
	kept := s.subs[:0]
	for _, sub := range s.subs {
		if sub.ReportID != reportID || sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	s.subs = kept
	return nil
}

func (s *fakeStore) DB() *gorm.DB {
	return nil
}

var testWebpush = &webpush.Options{VAPIDPublicKey: "public-key", VAPIDPrivateKey: "private-key"}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	}
}

func setupRouter(reports *fakeReports, s *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(testServerConfig(), s, reports, testWebpush)
}

func doRequest(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func completedReport() *uptime.Report {
	return &uptime.Report{
		GeneratedAt: time.Date(2023, 1, 23, 10, 0, 0, 0, time.UTC),
		Rows: []uptime.Row{{
			StoreID:          7,
			UptimeLastHour:   45 * time.Minute,
			UptimeLastDay:    2 * time.Hour,
			UptimeLastWeek:   2 * time.Hour,
			DowntimeLastHour: 15 * time.Minute,
			DowntimeLastDay:  22 * time.Hour,
			DowntimeLastWeek: 166 * time.Hour,
		}},
	}
}

func TestTriggerReport(t *testing.T) {
	reports := newFakeReports()
	router := setupRouter(reports, &fakeStore{})

	w := doRequest(router, http.MethodPost, "/api/trigger_report", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"report_id":"0123456789abcdef0123456789abcdef"}`, w.Body.String())
	assert.Equal(t, report.StatusRunning, reports.jobs[reports.nextID])
}

func TestGetReport(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["running"] = report.StatusRunning
	reports.jobs["failed"] = report.StatusFailed
	reports.jobs["done"] = report.StatusComplete
	router := setupRouter(reports, &fakeStore{})

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{"missing id", "/api/get_report", http.StatusBadRequest, `{"error":"report_id is required"}`},
		{"unknown id", "/api/get_report?report_id=nope", http.StatusNotFound, `{"error":"invalid report_id"}`},
		{"running", "/api/get_report?report_id=running", http.StatusOK, `{"status":"Running"}`},
		{"failed", "/api/get_report?report_id=failed", http.StatusOK, `{"status":"Failed"}`},
		{
			"complete", "/api/get_report?report_id=done", http.StatusOK,
			`{"status":"Complete","report_file":"report_data/report_done.csv","download_url":"/api/reports/done/download"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestGetReportWriteFailure(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["done"] = report.StatusComplete
	reports.pollErr = errors.New("disk full")
	router := setupRouter(reports, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/get_report?report_id=done", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk full")
}

func TestDownloadReportCSV(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["done"] = report.StatusComplete
	reports.results["done"] = completedReport()
	router := setupRouter(reports, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/reports/done/download", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="report_done.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "7,45,2,2,15,22,166", lines[1])

	w = doRequest(router, http.MethodGet, "/api/reports/done/download", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestDownloadReportXLSX(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["done"] = report.StatusComplete
	reports.results["done"] = completedReport()
	router := setupRouter(reports, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/reports/done/download?format=xlsx", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	// xlsx files are zip archives.
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestDownloadReportErrors(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["running"] = report.StatusRunning
	router := setupRouter(reports, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/reports/nope/download", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/reports/running/download", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodGet, "/api/reports/running/download?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutSubscription(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["running"] = report.StatusRunning
	reports.jobs["done"] = report.StatusComplete
	s := &fakeStore{}
	router := setupRouter(reports, s)
	body := `{"endpoint":"https://push.example/1","p256dh":"key","auth":"secret"}`

	w := doRequest(router, http.MethodPut, "/api/reports/running/subscription", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	w = doRequest(router, http.MethodPut, "/api/reports/nope/subscription", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodPut, "/api/reports/done/subscription", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPut, "/api/reports/running/subscription", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, s.subs, 1)
	assert.Equal(t, model.ReportSubscription{
		ReportID: "running",
		Endpoint: "https://push.example/1",
		P256DH:   "key",
		Auth:     "secret",
	}, s.subs[0])
}

func TestPutSubscriptionReportFinishesWhileSaving(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["racing"] = report.StatusRunning
	s := &fakeStore{}
	s.onSave = func() { reports.jobs["racing"] = report.StatusComplete }
	router := setupRouter(reports, s)

	w := doRequest(router, http.MethodPut, "/api/reports/racing/subscription",
		`{"endpoint":"https://push.example/1","p256dh":"key","auth":"secret"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"report already finished","status":"Complete"}`, w.Body.String())
	assert.Empty(t, s.subs, "a subscription nobody will notify is not kept")
}

func TestPutSubscriptionStoreError(t *testing.T) {
	reports := newFakeReports()
	reports.jobs["running"] = report.StatusRunning
	router := setupRouter(reports, &fakeStore{saveErr: errors.New("db down")})

	w := doRequest(router, http.MethodPut, "/api/reports/running/subscription",
		`{"endpoint":"https://push.example/1","p256dh":"key","auth":"secret"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router := setupRouter(newFakeReports(), &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/vapid_public_key", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())
}

func TestPushDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := newFakeReports()
	reports.jobs["running"] = report.StatusRunning
	router := NewRouter(testServerConfig(), &fakeStore{}, reports, nil)

	w := doRequest(router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"report push notifications are disabled"}`, w.Body.String())

	w = doRequest(router, http.MethodPut, "/api/reports/running/subscription",
		`{"endpoint":"https://push.example/1","p256dh":"key","auth":"secret"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouterRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testServerConfig()
	cfg.RateLimitPerSec = 0.001
	cfg.RateLimitBurst = 1
	router := NewRouter(cfg, &fakeStore{}, newFakeReports(), testWebpush)

	w := doRequest(router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
