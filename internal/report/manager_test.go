package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-monitor-backend/internal/uptime"
)

// gatedGenerator blocks every Generate call until release is closed.
type gatedGenerator struct {
	release chan struct{}
	report  *uptime.Report
	err     error
}

func (g *gatedGenerator) Generate(ctx context.Context) (*uptime.Report, error) {
	<-g.release
	return g.report, g.err
}

// countingWriter records every artifact write.
type countingWriter struct {
	mu     sync.Mutex
	writes map[string]int
	err    error
}

func (w *countingWriter) Write(reportID string, r *uptime.Report) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	if w.writes == nil {
		w.writes = make(map[string]int)
	}
	w.writes[reportID]++
	return fmt.Sprintf("/tmp/report_%s.csv", reportID), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Dispatch(reportID string, status string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, reportID+":"+status)
}

func waitFor(t *testing.T, m *Manager, id string) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := m.Wait(ctx, id)
	require.NoError(t, err)
	return status
}

func TestManager_TriggerAndPoll(t *testing.T) {
	gen := &gatedGenerator{
		release: make(chan struct{}),
		report:  &uptime.Report{Rows: []uptime.Row{uptime.FullUptimeRow(1)}},
	}
	writer := &countingWriter{}
	notifier := &recordingNotifier{}
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, writer, WithNotifier(notifier))

	first := m.Trigger()
	second := m.Trigger()
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 32)

	for _, id := range []string{first, second} {
		res, err := m.Poll(id)
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, res.Status)
		assert.Empty(t, res.ArtifactPath)
	}

	close(gen.release)
	assert.Equal(t, StatusComplete, waitFor(t, m, first))
	assert.Equal(t, StatusComplete, waitFor(t, m, second))

	for i := 0; i < 3; i++ {
		res, err := m.Poll(first)
		require.NoError(t, err)
		assert.Equal(t, StatusComplete, res.Status)
		assert.Equal(t, "/tmp/report_"+first+".csv", res.ArtifactPath)
	}
	assert.Equal(t, 1, writer.writes[first], "artifact is written once per job")
	assert.Equal(t, 0, writer.writes[second], "artifact is written on poll only")

	notifier.mu.Lock()
	assert.ElementsMatch(t, []string{first + ":Complete", second + ":Complete"}, notifier.events)
	notifier.mu.Unlock()
}

func TestManager_LongJobOutlivesRetention(t *testing.T) {
	gen := &gatedGenerator{
		release: make(chan struct{}),
		report:  &uptime.Report{Rows: []uptime.Row{uptime.FullUptimeRow(1)}},
	}
	writer := &countingWriter{}
	m := NewManager(NewCacheJobStore(200*time.Millisecond), NewGoExecutor(), gen, writer)

	id := m.Trigger()
	time.Sleep(500 * time.Millisecond)

	res, err := m.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, res.Status)

	close(gen.release)
	assert.Equal(t, StatusComplete, waitFor(t, m, id))

	res, err = m.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, "/tmp/report_"+id+".csv", res.ArtifactPath)

	// The finished job is forgotten once the retention has passed.
	assert.Eventually(t, func() bool {
		_, err := m.Poll(id)
		return errors.Is(err, ErrNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestManager_ArtifactPathIsKeptOnTheJob(t *testing.T) {
	gen := &gatedGenerator{
		release: make(chan struct{}),
		report:  &uptime.Report{Rows: []uptime.Row{uptime.FullUptimeRow(1)}},
	}
	close(gen.release)
	jobs := NewCacheJobStore(0)
	writer := &countingWriter{}
	m := NewManager(jobs, NewGoExecutor(), gen, writer)

	id := m.Trigger()
	require.Equal(t, StatusComplete, waitFor(t, m, id))

	job, _ := jobs.Get(id)
	assert.Empty(t, job.ArtifactPath)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Poll(id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	job, _ = jobs.Get(id)
	assert.Equal(t, "/tmp/report_"+id+".csv", job.ArtifactPath)
	assert.Equal(t, 1, writer.writes[id])
}

func TestManager_FailedJob(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{}), err: errors.New("relation \"store_statuses\" does not exist")}
	close(gen.release)
	writer := &countingWriter{}
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, writer)

	id := m.Trigger()
	assert.Equal(t, StatusFailed, waitFor(t, m, id))

	res, err := m.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.ArtifactPath)
	assert.Empty(t, writer.writes)

	_, err = m.Report(id)
	assert.ErrorIs(t, err, ErrNotComplete)
}

func TestManager_PollUnknownAndMissing(t *testing.T) {
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), &gatedGenerator{}, &countingWriter{})

	_, err := m.Poll("never-triggered")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Poll("")
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = m.Report("never-triggered")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Status("never-triggered")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Wait(context.Background(), "never-triggered")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_ArtifactWriteFailureIsRetried(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{}), report: &uptime.Report{}}
	close(gen.release)
	writer := &countingWriter{err: errors.New("read-only file system")}
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, writer)

	id := m.Trigger()
	waitFor(t, m, id)

	res, err := m.Poll(id)
	assert.Error(t, err)
	assert.Equal(t, StatusComplete, res.Status)

	writer.mu.Lock()
	writer.err = nil
	writer.mu.Unlock()

	res, err = m.Poll(id)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ArtifactPath)
	assert.Equal(t, 1, writer.writes[id])
}

func TestManager_Report(t *testing.T) {
	want := &uptime.Report{Rows: []uptime.Row{uptime.NoDataRow(3)}}
	gen := &gatedGenerator{release: make(chan struct{}), report: want}
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, &countingWriter{}, WithIDGenerator(func() string { return "fixed" }))

	id := m.Trigger()
	assert.Equal(t, "fixed", id)

	status, err := m.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)

	_, err = m.Report(id)
	assert.ErrorIs(t, err, ErrNotComplete)

	close(gen.release)
	waitFor(t, m, id)

	got, err := m.Report(id)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestManager_CancelledContextFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &ctxGenerator{}
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, &countingWriter{}, WithContext(ctx))

	id := m.Trigger()
	cancel()
	assert.Equal(t, StatusFailed, waitFor(t, m, id))
}

type ctxGenerator struct{}

func (ctxGenerator) Generate(ctx context.Context) (*uptime.Report, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestManager_WaitHonoursContext(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	defer close(gen.release)
	m := NewManager(NewCacheJobStore(0), NewGoExecutor(), gen, &countingWriter{})

	id := m.Trigger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Wait(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
