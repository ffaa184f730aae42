package handlers

import (
	"github.com/go-playground/validator/v10"

	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/faceapi"
	"facefolio/infrastructure/queue"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/worker"
	"facefolio/pkg/config"
)

// validate is shared by all handlers for request DTO validation.
var validate = validator.New()

// Services contains all the services needed for handlers
type Services struct {
	IngestService    services.IngestService
	LifecycleService services.LifecycleService
	CascadeService   services.CascadeService
	GalleryService   services.GalleryService
	SweepService     services.SweepService
}

// Collaborators are the infrastructure pieces handlers touch directly:
// the object store for uploads, the queue feeding the worker, and the
// face client plus worker for health reporting.
type Collaborators struct {
	UserRepository repositories.UserRepository
	ObjectStorage  storage.ObjectStorage
	IngestQueue    queue.IngestQueue
	FaceClient     *faceapi.FaceClient
	IngestWorker   *worker.IngestWorker
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Photo  *PhotoHandler
	Face   *FaceHandler
	User   *UserHandler
	Health *HealthHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(svcs *Services, collab *Collaborators, cfg *config.Config) *Handlers {
	return &Handlers{
		Photo: NewPhotoHandler(
			svcs.GalleryService,
			svcs.CascadeService,
			collab.UserRepository,
			collab.ObjectStorage,
			collab.IngestQueue,
			cfg.Bunny.RootFolder,
		),
		Face:   NewFaceHandler(svcs.GalleryService, svcs.LifecycleService, svcs.CascadeService),
		User:   NewUserHandler(collab.UserRepository, svcs.CascadeService),
		Health: NewHealthHandler(collab.FaceClient, collab.IngestWorker, collab.IngestQueue),
	}
}
