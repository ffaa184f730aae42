package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facefolio/infrastructure/faceapi"
	"facefolio/infrastructure/queue"
	"facefolio/infrastructure/worker"
)

type HealthHandler struct {
	faceClient   *faceapi.FaceClient
	ingestWorker *worker.IngestWorker
	ingestQueue  queue.IngestQueue
}

func NewHealthHandler(faceClient *faceapi.FaceClient, ingestWorker *worker.IngestWorker, ingestQueue queue.IngestQueue) *HealthHandler {
	return &HealthHandler{
		faceClient:   faceClient,
		ingestWorker: ingestWorker,
		ingestQueue:  ingestQueue,
	}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	queueLength := int64(-1)
	if length, err := h.ingestQueue.Length(c.Context()); err == nil {
		queueLength = length
	}

	return c.JSON(fiber.Map{
		"status":             "ok",
		"face_api_available": h.faceClient.IsAvailable(c.Context()),
		"worker_running":     h.ingestWorker.IsRunning(),
		"queue_length":       queueLength,
	})
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    "facefolio",
		"message": "API is running",
	})
}
