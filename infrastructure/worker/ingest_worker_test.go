package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facefolio/domain/services"
	"facefolio/infrastructure/queue"
)

// chanQueue feeds the worker from an in-memory channel.
type chanQueue struct {
	tasks chan queue.IngestTask
}

func newChanQueue() *chanQueue {
	return &chanQueue{tasks: make(chan queue.IngestTask, 16)}
}

func (q *chanQueue) Enqueue(ctx context.Context, task queue.IngestTask) error {
	q.tasks <- task
	return nil
}

func (q *chanQueue) Dequeue(ctx context.Context, timeout time.Duration) (*queue.IngestTask, error) {
	select {
	case <-ctx.Done():
		return nil, context.Canceled
	case task := <-q.tasks:
		return &task, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

func (q *chanQueue) Length(ctx context.Context) (int64, error) {
	return int64(len(q.tasks)), nil
}

// recordingIngest records the order tasks arrive in and signals each one.
type recordingIngest struct {
	mu        sync.Mutex
	processed []string
	done      chan struct{}
	err       error
}

func newRecordingIngest() *recordingIngest {
	return &recordingIngest{done: make(chan struct{}, 16)}
}

func (r *recordingIngest) IngestPhoto(ctx context.Context, userID uuid.UUID, photoURL string) (*services.IngestResult, error) {
	r.mu.Lock()
	r.processed = append(r.processed, photoURL)
	r.mu.Unlock()
	r.done <- struct{}{}
	if r.err != nil {
		return nil, r.err
	}
	return &services.IngestResult{PhotoID: uuid.New()}, nil
}

func (r *recordingIngest) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.processed...)
}

func waitProcessed(t *testing.T, r *recordingIngest, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for task %d of %d", i+1, n)
		}
	}
}

func TestIngestWorker_ProcessesTasksInOrder(t *testing.T) {
	q := newChanQueue()
	svc := newRecordingIngest()
	w := NewIngestWorker(q, svc)

	userID := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), queue.IngestTask{UserID: userID, PhotoURL: "first.jpg"}))
	require.NoError(t, q.Enqueue(context.Background(), queue.IngestTask{UserID: userID, PhotoURL: "second.jpg"}))
	require.NoError(t, q.Enqueue(context.Background(), queue.IngestTask{UserID: userID, PhotoURL: "third.jpg"}))

	w.Start()
	defer w.Stop()

	waitProcessed(t, svc, 3)
	assert.Equal(t, []string{"first.jpg", "second.jpg", "third.jpg"}, svc.order())
}

func TestIngestWorker_SurvivesFailedTask(t *testing.T) {
	q := newChanQueue()
	svc := newRecordingIngest()
	svc.err = errors.New("pipeline failed")
	w := NewIngestWorker(q, svc)

	require.NoError(t, q.Enqueue(context.Background(), queue.IngestTask{UserID: uuid.New(), PhotoURL: "bad.jpg"}))
	require.NoError(t, q.Enqueue(context.Background(), queue.IngestTask{UserID: uuid.New(), PhotoURL: "next.jpg"}))

	w.Start()
	defer w.Stop()

	// Both tasks are attempted; a failure never kills the loop.
	waitProcessed(t, svc, 2)
	assert.Len(t, svc.order(), 2)
}

func TestIngestWorker_StartStop(t *testing.T) {
	w := NewIngestWorker(newChanQueue(), newRecordingIngest())

	assert.False(t, w.IsRunning())
	w.Start()
	assert.True(t, w.IsRunning())
	// Second Start is a no-op.
	w.Start()

	w.Stop()
	assert.False(t, w.IsRunning())
	// Second Stop is a no-op.
	w.Stop()
}
