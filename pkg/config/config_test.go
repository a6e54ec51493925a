package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Set test environment variables
	os.Setenv("SERVER_PORT", "8080")
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_NAME", "testdb")
	os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	os.Setenv("MONGO_DATABASE", "testdocs")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("MODERATION_API_USER", "mod-user")
	os.Setenv("MODERATION_API_SECRET", "mod-secret")

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Assertions
	assert.NotNil(t, cfg)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "testuser", cfg.DBUser)
	assert.Equal(t, "testpass", cfg.DBPassword)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "testdocs", cfg.MongoDatabase)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "mod-user", cfg.ModerationAPIUser)
	assert.Equal(t, "mod-secret", cfg.ModerationAPISecret)

	// Cleanup
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("DB_HOST")
	os.Unsetenv("DB_PORT")
	os.Unsetenv("DB_USER")
	os.Unsetenv("DB_PASSWORD")
	os.Unsetenv("DB_NAME")
	os.Unsetenv("MONGO_URI")
	os.Unsetenv("MONGO_DATABASE")
	os.Unsetenv("REDIS_HOST")
	os.Unsetenv("REDIS_PORT")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("MODERATION_API_USER")
	os.Unsetenv("MODERATION_API_SECRET")
}

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("STORAGE_DRIVER")
	os.Unsetenv("MODERATION_ENDPOINT")
	os.Unsetenv("GEOCODE_ENDPOINT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, "cloudinary", cfg.StorageDriver)
	assert.Equal(t, "https://api.sightengine.com/1.0/video/check-sync.json", cfg.ModerationEndpoint)
	assert.Equal(t, "https://nominatim.openstreetmap.org/reverse", cfg.GeocodeEndpoint)
	assert.NotEmpty(t, cfg.GeocodeUserAgent)
}
