package report

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"store-monitor-backend/internal/uptime"
)

// JobStore keeps job state shared between job execution and polling.
type JobStore interface {
	Put(job Job)
	Get(id string) (Job, bool)
	// CompareAndSetStatus moves the job from one status to another and attaches
	// result, but only if the job is currently in status from.
	CompareAndSetStatus(id string, from, to Status, result *uptime.Report) bool
	// SetArtifactPath records where a Complete job's artifact was written.
	SetArtifactPath(id, path string) bool
}

// CacheJobStore is an in-memory JobStore. With a positive retention, jobs are
// forgotten that long after reaching a terminal status; otherwise they live as
// long as the process. Running jobs never expire.
type CacheJobStore struct {
	mu        sync.Mutex
	jobs      *cache.Cache
	retention time.Duration
}

// NewCacheJobStore creates an in-memory job store.
func NewCacheJobStore(retention time.Duration) *CacheJobStore {
	cleanup := time.Duration(0)
	if retention > 0 {
		cleanup = retention / 2
	} else {
		retention = 0
	}
	return &CacheJobStore{
		jobs:      cache.New(cache.NoExpiration, cleanup),
		retention: retention,
	}
}

// expiration is how long job may stay in the cache from now on.
func (s *CacheJobStore) expiration(job Job) time.Duration {
	if s.retention > 0 && job.Status.Terminal() {
		return s.retention
	}
	return cache.NoExpiration
}

func (s *CacheJobStore) Put(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs.Set(job.ID, job, s.expiration(job))
}

func (s *CacheJobStore) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.jobs.Get(id)
	if !ok {
		return Job{}, false
	}
	return v.(Job), true
}

func (s *CacheJobStore) CompareAndSetStatus(id string, from, to Status, result *uptime.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.jobs.Get(id)
	if !ok {
		return false
	}
	job := v.(Job)
	if job.Status != from {
		return false
	}
	job.Status = to
	job.Result = result
	if to.Terminal() {
		job.FinishedAt = time.Now().UTC()
	}
	s.jobs.Set(id, job, s.expiration(job))
	return true
}

func (s *CacheJobStore) SetArtifactPath(id, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, expiresAt, ok := s.jobs.GetWithExpiration(id)
	if !ok {
		return false
	}
	job := v.(Job)
	if job.Status != StatusComplete {
		return false
	}
	job.ArtifactPath = path
	// Keep the expiry set at completion.
	expiration := cache.NoExpiration
	if !expiresAt.IsZero() {
		expiration = max(time.Until(expiresAt), time.Nanosecond)
	}
	s.jobs.Set(id, job, expiration)
	return true
}
