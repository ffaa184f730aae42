package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"facefolio/domain/services"
	"facefolio/infrastructure/queue"
	"facefolio/infrastructure/websocket"
	"facefolio/pkg/logger"
)

// IngestWorker drains the upload queue one task at a time. Uploads must be
// processed strictly sequentially so that face matching sees every face the
// previous upload created.
type IngestWorker struct {
	queue         queue.IngestQueue
	ingestService services.IngestService

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex

	popTimeout time.Duration
	errorDelay time.Duration
}

func NewIngestWorker(q queue.IngestQueue, ingestService services.IngestService) *IngestWorker {
	return &IngestWorker{
		queue:         q,
		ingestService: ingestService,
		popTimeout:    5 * time.Second,
		errorDelay:    2 * time.Second,
	}
}

// Start starts the ingest worker
func (w *IngestWorker) Start() {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	log.Println("✓ Ingest worker started")
}

// Stop stops the ingest worker gracefully
func (w *IngestWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	log.Println("✓ Ingest worker stopped")
}

// IsRunning returns whether the worker is running
func (w *IngestWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *IngestWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		task, err := w.queue.Dequeue(w.ctx, w.popTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.IngestError("dequeue", "Failed to dequeue task", err, nil)
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(w.errorDelay):
			}
			continue
		}
		if task == nil {
			continue
		}

		w.process(task)
	}
}

func (w *IngestWorker) process(task *queue.IngestTask) {
	logger.Ingest("task_started", "Processing upload", map[string]interface{}{
		"user_id":   task.UserID.String(),
		"photo_url": task.PhotoURL,
	})

	result, err := w.ingestService.IngestPhoto(w.ctx, task.UserID, task.PhotoURL)
	if err != nil {
		logger.IngestError("task_failed", "Upload processing failed", err, map[string]interface{}{
			"user_id":   task.UserID.String(),
			"photo_url": task.PhotoURL,
		})
		websocket.Manager.BroadcastToUser(task.UserID, "photo:failed", map[string]interface{}{
			"photoUrl": task.PhotoURL,
			"error":    err.Error(),
		})
		return
	}

	logger.Ingest("task_completed", "Upload processed", map[string]interface{}{
		"user_id":        task.UserID.String(),
		"photo_id":       result.PhotoID.String(),
		"faces_detected": result.FacesDetected,
		"faces_created":  len(result.CreatedFaces),
		"faces_linked":   len(result.LinkedFaces),
	})
	websocket.Manager.BroadcastToUser(task.UserID, "photo:processed", map[string]interface{}{
		"photoId":       result.PhotoID.String(),
		"facesDetected": result.FacesDetected,
		"facesCreated":  len(result.CreatedFaces),
		"facesLinked":   len(result.LinkedFaces),
	})
}
