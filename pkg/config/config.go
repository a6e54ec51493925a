package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string

	// Postgres (credential store)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// MongoDB (document store: profiles, videos, moderation audit)
	MongoURI      string
	MongoDatabase string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// JWT
	JWTSecret string

	// Media storage
	StorageDriver       string // "cloudinary" or "s3"
	CloudinaryURL       string
	CloudinaryCloud     string
	CloudinaryPreset    string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3BucketName       string
	S3UseSSL           string

	// Moderation service
	ModerationEndpoint  string
	ModerationAPIUser   string
	ModerationAPISecret string

	// Reverse geocoding
	GeocodeEndpoint  string
	GeocodeUserAgent string

	// Services URLs
	AuthServiceURL  string
	VideoServiceURL string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "clipway"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "clipway"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		StorageDriver:       getEnv("STORAGE_DRIVER", "cloudinary"),
		CloudinaryURL:       getEnv("CLOUDINARY_URL", "https://api.cloudinary.com/v1_1"),
		CloudinaryCloud:     getEnv("CLOUDINARY_CLOUD", ""),
		CloudinaryPreset:    getEnv("CLOUDINARY_PRESET", "ml_default"),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "clipway-content"),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),

		ModerationEndpoint:  getEnv("MODERATION_ENDPOINT", "https://api.sightengine.com/1.0/video/check-sync.json"),
		ModerationAPIUser:   getEnv("MODERATION_API_USER", ""),
		ModerationAPISecret: getEnv("MODERATION_API_SECRET", ""),

		GeocodeEndpoint:  getEnv("GEOCODE_ENDPOINT", "https://nominatim.openstreetmap.org/reverse"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "clipway/1.0 (ops@clipway.dev)"),

		AuthServiceURL:  getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),
		VideoServiceURL: getEnv("VIDEO_SERVICE_URL", "http://localhost:8002"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
