package di

import (
	"facefolio/application/serviceimpl"
	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/faceapi"
	"facefolio/infrastructure/postgres"
	"facefolio/infrastructure/queue"
	"facefolio/infrastructure/redis"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
	"facefolio/infrastructure/worker"
	"facefolio/interfaces/api/handlers"
	"facefolio/pkg/config"
	"facefolio/pkg/logger"
	"facefolio/pkg/scheduler"

	"context"

	"gorm.io/gorm"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redis.RedisClient
	ObjectStorage  storage.ObjectStorage
	VectorIndex    vectorindex.VectorIndex
	FaceClient     *faceapi.FaceClient
	IngestQueue    queue.IngestQueue
	EventScheduler scheduler.EventScheduler

	// Repositories
	UserRepository    repositories.UserRepository
	PhotoRepository   repositories.PhotoRepository
	FaceRepository    repositories.FaceRepository
	GalleryRepository repositories.GalleryRepository

	// Services
	FaceMatcher      services.FaceMatcher
	IngestService    services.IngestService
	LifecycleService services.LifecycleService
	CascadeService   services.CascadeService
	GalleryService   services.GalleryService
	SweepService     services.SweepService

	// Workers
	IngestWorker *worker.IngestWorker
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initWorkers(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", nil)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Initialize Database
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	// Run migrations
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	// Initialize Redis (backs the ingest queue)
	redisClient, err := redis.NewRedisClient(c.Config)
	if err != nil {
		return err
	}
	c.RedisClient = redisClient
	c.IngestQueue = queue.NewRedisIngestQueue(redisClient.Client)
	logger.Startup("redis_connected", "Redis connected", nil)

	// Initialize Bunny Storage
	c.ObjectStorage = storage.NewBunnyStorage(storage.BunnyConfig{
		StorageZone: c.Config.Bunny.StorageZone,
		AccessKey:   c.Config.Bunny.AccessKey,
		BaseURL:     c.Config.Bunny.BaseURL,
		CDNUrl:      c.Config.Bunny.CDNUrl,
	})
	logger.Startup("bunny_storage_initialized", "Bunny Storage initialized", nil)

	// Initialize Vector Index
	c.VectorIndex = vectorindex.NewPgVectorIndex(db, c.Config.Matcher.EmbeddingDim)
	logger.Startup("vector_index_initialized", "Vector index initialized", nil)

	// Initialize Face Client
	c.FaceClient = faceapi.NewFaceClient(c.Config.FaceAPI.BaseURL, c.Config.Matcher.MaxFacesPerImage)
	if !c.FaceClient.IsAvailable(context.Background()) {
		logger.StartupWarn("face_api_unavailable", "Face API is not reachable, ingest will fail until it is", nil)
	} else {
		logger.Startup("face_api_ready", "Face API reachable", nil)
	}

	return nil
}

func (c *Container) initRepositories() error {
	c.UserRepository = postgres.NewUserRepository(c.DB)
	c.PhotoRepository = postgres.NewPhotoRepository(c.DB)
	c.FaceRepository = postgres.NewFaceRepository(c.DB)
	c.GalleryRepository = postgres.NewGalleryRepository(c.DB)
	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	c.FaceMatcher = serviceimpl.NewFaceMatcher(c.VectorIndex, c.Config.Matcher.Threshold)

	c.IngestService = serviceimpl.NewIngestService(
		c.UserRepository,
		c.PhotoRepository,
		c.FaceRepository,
		c.GalleryRepository,
		c.ObjectStorage,
		c.VectorIndex,
		c.FaceClient,
		c.FaceMatcher,
		c.Config.Bunny.RootFolder,
	)

	c.LifecycleService = serviceimpl.NewLifecycleService(
		c.PhotoRepository,
		c.FaceRepository,
		c.GalleryRepository,
		c.ObjectStorage,
		c.VectorIndex,
	)

	c.CascadeService = serviceimpl.NewCascadeService(
		c.UserRepository,
		c.GalleryRepository,
		c.ObjectStorage,
		c.VectorIndex,
	)

	c.GalleryService = serviceimpl.NewGalleryService(c.PhotoRepository, c.FaceRepository)

	c.SweepService = serviceimpl.NewSweepService(
		c.UserRepository,
		c.PhotoRepository,
		c.FaceRepository,
		c.GalleryRepository,
		c.ObjectStorage,
		c.VectorIndex,
		c.Config.Bunny.RootFolder,
	)

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initWorkers() error {
	c.IngestWorker = worker.NewIngestWorker(c.IngestQueue, c.IngestService)
	c.IngestWorker.Start()
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()
	c.EventScheduler.Start()

	if !c.Config.Sweep.Enabled {
		logger.Startup("sweep_disabled", "Consistency sweep is disabled", nil)
		return nil
	}

	err := c.EventScheduler.AddJob("consistency-sweep", c.Config.Sweep.CronExpr, func() {
		if _, err := c.SweepService.Sweep(context.Background()); err != nil {
			logger.SweepError("run", "Consistency sweep failed", err, nil)
		}
	})
	if err != nil {
		logger.StartupWarn("sweep_schedule_failed", "Failed to schedule consistency sweep", map[string]interface{}{"error": err.Error()})
		return nil
	}

	logger.Startup("sweep_scheduled", "Consistency sweep scheduled", map[string]interface{}{"cron": c.Config.Sweep.CronExpr})
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		IngestService:    c.IngestService,
		LifecycleService: c.LifecycleService,
		CascadeService:   c.CascadeService,
		GalleryService:   c.GalleryService,
		SweepService:     c.SweepService,
	}
}

func (c *Container) GetHandlerCollaborators() *handlers.Collaborators {
	return &handlers.Collaborators{
		UserRepository: c.UserRepository,
		ObjectStorage:  c.ObjectStorage,
		IngestQueue:    c.IngestQueue,
		FaceClient:     c.FaceClient,
		IngestWorker:   c.IngestWorker,
	}
}

// Cleanup releases everything the container started, workers first so no
// task is mid-flight when connections close.
func (c *Container) Cleanup() error {
	if c.IngestWorker != nil {
		c.IngestWorker.Stop()
	}

	if c.EventScheduler != nil {
		c.EventScheduler.Stop()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis client", map[string]interface{}{"error": err.Error()})
		}
	}

	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return nil
}
