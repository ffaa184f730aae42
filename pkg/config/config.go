package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Bunny     BunnyConfig
	FaceAPI   FaceAPIConfig
	Matcher   MatcherConfig
	Sweep     SweepConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type BunnyConfig struct {
	StorageZone string
	AccessKey   string
	BaseURL     string
	CDNUrl      string
	RootFolder  string // top-level folder when the zone hosts multiple projects
}

type FaceAPIConfig struct {
	BaseURL string // Base URL of the face detection service
	Enabled bool   // Enable/disable face processing
}

type MatcherConfig struct {
	// Threshold on the normalized similarity scale; the nearest neighbor
	// must exceed it to count as a match.
	Threshold float64
	// MaxFacesPerImage bounds how many detections one upload may produce.
	MaxFacesPerImage int
	// EmbeddingDim is the detector's vector length.
	EmbeddingDim int
}

type SweepConfig struct {
	Enabled  bool
	CronExpr string
}

type RateLimitConfig struct {
	Enabled             bool
	MaxRequests         int
	WindowSeconds       int
	UploadMaxRequests   int
	UploadWindowSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	threshold, _ := strconv.ParseFloat(getEnv("FACE_MATCH_THRESHOLD", "0.5"), 64)
	maxFaces, _ := strconv.Atoi(getEnv("FACE_MAX_PER_IMAGE", "10"))
	embeddingDim, _ := strconv.Atoi(getEnv("FACE_EMBEDDING_DIM", "512"))
	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	uploadMax, _ := strconv.Atoi(getEnv("UPLOAD_RATE_LIMIT_MAX", "20"))
	uploadWindow, _ := strconv.Atoi(getEnv("UPLOAD_RATE_LIMIT_WINDOW_SECONDS", "60"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Facefolio"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "facefolio"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Bunny: BunnyConfig{
			StorageZone: getEnv("BUNNY_STORAGE_ZONE", ""),
			AccessKey:   getEnv("BUNNY_ACCESS_KEY", ""),
			BaseURL:     getEnv("BUNNY_BASE_URL", "https://storage.bunnycdn.com"),
			CDNUrl:      getEnv("BUNNY_CDN_URL", ""),
			RootFolder:  getEnv("BUNNY_ROOT_FOLDER", "facefolio"),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL: getEnv("FACE_API_URL", "http://localhost:5000"),
			Enabled: getEnv("FACE_API_ENABLED", "true") == "true",
		},
		Matcher: MatcherConfig{
			Threshold:        threshold,
			MaxFacesPerImage: maxFaces,
			EmbeddingDim:     embeddingDim,
		},
		Sweep: SweepConfig{
			Enabled:  getEnv("SWEEP_ENABLED", "true") == "true",
			CronExpr: getEnv("SWEEP_CRON", "0 * * * *"),
		},
		RateLimit: RateLimitConfig{
			Enabled:             getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests:         rateMax,
			WindowSeconds:       rateWindow,
			UploadMaxRequests:   uploadMax,
			UploadWindowSeconds: uploadWindow,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
