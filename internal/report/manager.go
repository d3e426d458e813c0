package report

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"store-monitor-backend/internal/uptime"
)

// Generator computes a full uptime report.
type Generator interface {
	Generate(ctx context.Context) (*uptime.Report, error)
}

// ArtifactWriter persists a finished report and returns where it was written.
type ArtifactWriter interface {
	Write(reportID string, report *uptime.Report) (string, error)
}

// Notifier is told about every job that reaches a terminal status.
type Notifier interface {
	Dispatch(reportID string, status string)
}

// PollResult is what a client learns when polling a job.
type PollResult struct {
	ReportID     string
	Status       Status
	ArtifactPath string // set only when Status is Complete
}

// Manager triggers report jobs and answers polls about them.
type Manager struct {
	ctx       context.Context
	jobs      JobStore
	exec      Executor
	gen       Generator
	artifacts ArtifactWriter
	notifier  Notifier
	newID     func() string

	mu      sync.Mutex
	futures map[string]*Future

	artifactMu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNotifier registers a Notifier for finished jobs.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithIDGenerator replaces the report id generator.
func WithIDGenerator(newID func() string) ManagerOption {
	return func(m *Manager) {
		m.newID = newID
	}
}

// WithContext sets the context every job runs under. Cancelling it aborts
// running jobs, which then end as Failed.
func WithContext(ctx context.Context) ManagerOption {
	return func(m *Manager) {
		m.ctx = ctx
	}
}

// NewManager creates a Manager.
func NewManager(jobs JobStore, exec Executor, gen Generator, artifacts ArtifactWriter, opts ...ManagerOption) *Manager {
	m := &Manager{
		ctx:       context.Background(),
		jobs:      jobs,
		exec:      exec,
		gen:       gen,
		artifacts: artifacts,
		newID:     newReportID,
		futures:   make(map[string]*Future),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// newReportID returns 32 lowercase hex characters.
func newReportID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Trigger registers a new Running job, starts it in the background and
// returns its id without waiting.
func (m *Manager) Trigger() string {
	id := m.newID()
	m.jobs.Put(Job{ID: id, Status: StatusRunning, CreatedAt: time.Now().UTC()})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.futures[id] = m.exec.Submit(m.ctx, m.gen.Generate, func(r *uptime.Report, err error) {
		m.finish(id, r, err)
	})

	log.Printf("Report %s triggered", id)
	return id
}

// finish records the outcome of job id. It runs on the job's goroutine.
func (m *Manager) finish(id string, r *uptime.Report, err error) {
	status := StatusComplete
	if err != nil {
		status = StatusFailed
		log.Printf("Error generating report %s: %v", id, err)
		r = nil
	}

	if !m.jobs.CompareAndSetStatus(id, StatusRunning, status, r) {
		log.Printf("Report %s was no longer running; %s outcome dropped", id, status)
	} else if status == StatusComplete {
		log.Printf("Report generated successfully for report_id: %s (%d stores)", id, len(r.Rows))
	}

	if m.notifier != nil {
		m.notifier.Dispatch(id, string(status))
	}

	m.mu.Lock()
	delete(m.futures, id)
	m.mu.Unlock()
}

// Poll returns the job's status. The first poll that finds the job Complete
// writes its artifact; later polls reuse it.
func (m *Manager) Poll(id string) (PollResult, error) {
	if id == "" {
		return PollResult{}, ErrMissingID
	}
	job, ok := m.jobs.Get(id)
	if !ok {
		return PollResult{}, ErrNotFound
	}

	res := PollResult{ReportID: id, Status: job.Status}
	if job.Status != StatusComplete {
		return res, nil
	}

	path, err := m.persist(job)
	if err != nil {
		return res, fmt.Errorf("failed to write report %s: %w", id, err)
	}
	res.ArtifactPath = path
	return res, nil
}

func (m *Manager) persist(job Job) (string, error) {
	if job.ArtifactPath != "" {
		return job.ArtifactPath, nil
	}

	m.artifactMu.Lock()
	defer m.artifactMu.Unlock()

	// Another poll may have written it while we waited for the lock.
	if current, ok := m.jobs.Get(job.ID); ok && current.ArtifactPath != "" {
		return current.ArtifactPath, nil
	}
	path, err := m.artifacts.Write(job.ID, job.Result)
	if err != nil {
		return "", err
	}
	if !m.jobs.SetArtifactPath(job.ID, path) {
		log.Printf("Report %s expired before its artifact path was recorded", job.ID)
	}
	log.Printf("Report %s written to %s", job.ID, path)
	return path, nil
}

// Report returns the result of a Complete job.
func (m *Manager) Report(id string) (*uptime.Report, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	job, ok := m.jobs.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if job.Status != StatusComplete {
		return nil, ErrNotComplete
	}
	return job.Result, nil
}

// Status returns the current status of job id.
func (m *Manager) Status(id string) (Status, error) {
	if id == "" {
		return "", ErrMissingID
	}
	job, ok := m.jobs.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	return job.Status, nil
}

// Wait blocks until job id has left the Running state or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Status, error) {
	m.mu.Lock()
	fut := m.futures[id]
	m.mu.Unlock()

	if fut != nil {
		select {
		case <-fut.Done():
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	job, ok := m.jobs.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	return job.Status, nil
}
