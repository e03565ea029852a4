package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr            string
	GoogleAPIKey        string
	GeminiBaseURL       string
	GeminiModel         string
	EmbeddingsURL       string
	EmbeddingsAPIKey    string
	EmbeddingsModel     string
	EmbeddingVectorSize int
	QdrantHost          string
	QdrantPort          string
	QdrantCollection    string
	DBPath              string
	DataDir             string
	LogLevel            string
	LogFormat           string
	SchemesConfig       string
	PromptsConfig       string
	ScrapeDelay         time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env file
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		EmbeddingsURL:    getEnv("EMBEDDINGS_URL", "http://localhost:8081"),
		EmbeddingsAPIKey: getEnv("EMBEDDINGS_API_KEY", "dummy-key"),
		EmbeddingsModel:  getEnv("EMBEDDINGS_MODEL", "granite-embedding-278m-multilingual"),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnv("QDRANT_PORT", "6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "hdfc_mutual_funds"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		DBPath:           getEnv("DB_PATH", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		SchemesConfig:    getEnv("SCHEMES_CONFIG", "config/schemes.yaml"),
		PromptsConfig:    getEnv("PROMPTS_CONFIG", "config/prompts.yaml"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "fundfacts.db")
	}

	// Parse EMBEDDING_VECTOR_SIZE
	// This must match the output vector size of the embeddings model; if it
	// changes, the Qdrant collection must be recreated.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	// Parse SCRAPE_DELAY
	delayStr := getEnv("SCRAPE_DELAY", "2s")
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return nil, fmt.Errorf("SCRAPE_DELAY must be a valid duration: %w", err)
	}
	if delay < 0 {
		return nil, fmt.Errorf("SCRAPE_DELAY must not be negative")
	}
	cfg.ScrapeDelay = delay

	// Create the data directory and the DB file's directory if they don't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	return cfg, nil
}

// QdrantURL renders the HTTP endpoint the vector store client connects to.
func (c *Config) QdrantURL() string {
	return fmt.Sprintf("http://%s:%s", c.QdrantHost, c.QdrantPort)
}

// SlogLevel maps the configured log level onto a slog.Level, defaulting to
// info for unknown values.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
