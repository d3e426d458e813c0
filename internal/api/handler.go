package api

import (
	"store-monitor-backend/internal/report"
	"store-monitor-backend/internal/store"
	"store-monitor-backend/internal/uptime"

	"github.com/SherClockHolmes/webpush-go"
)

// ReportService is the job control surface the handlers drive.
type ReportService interface {
	Trigger() string
	Poll(id string) (report.PollResult, error)
	Status(id string) (report.Status, error)
	Report(id string) (*uptime.Report, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	reports ReportService
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, reports ReportService, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		reports: reports,
		webpush: webpushOptions,
	}
}
