package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Ai     AIConfig
	Vector VectorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type AIConfig struct {
	OllamaBaseURL    string
	ChatModel        string
	EmbeddingModel   string
	GenerateTimeout  time.Duration
	EmbeddingTimeout time.Duration
}

type VectorConfig struct {
	QdrantURL        string
	Collection       string
	APIKey           string
	Dimension        int
	RetrievalTimeout time.Duration
	DefaultTopK      int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "gateway.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Ai: AIConfig{
			OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			ChatModel:        getEnv("OLLAMA_MODEL", "llama3"),
			EmbeddingModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GenerateTimeout:  getEnvAsSeconds("GENERATE_TIMEOUT_SECONDS", 60),
			EmbeddingTimeout: getEnvAsSeconds("EMBEDDING_TIMEOUT_SECONDS", 30),
		},
		Vector: VectorConfig{
			QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			Collection:       getEnv("QDRANT_COLLECTION", "doc-embeddings"),
			APIKey:           getEnv("QDRANT_API_KEY", ""),
			Dimension:        getEnvAsInt("EMBEDDING_DIMENSION", 768),
			RetrievalTimeout: getEnvAsSeconds("RETRIEVAL_TIMEOUT_SECONDS", 30),
			DefaultTopK:      getEnvAsInt("RAG_DEFAULT_TOP_K", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
