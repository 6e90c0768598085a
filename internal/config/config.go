package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Character detector backends.
const (
	BackendYOLO      = "yolo"
	BackendTesseract = "tesseract"
)

type Config struct {
	Port     int
	Password string // empty disables the login page

	RawDirectory   string
	CarDirectory   string
	PlateDirectory string
	CharDirectory  string

	CarModelPath   string
	PlateModelPath string
	CharModelPath  string
	CharLabelsPath string
	CharBackend    string

	CarConfidence   float64
	PlateConfidence float64
	CharConfidence  float64
	NMSThreshold    float64
	InputSize       int
	MinPlateWidth   int
	PlateSize       int

	DatabasePath string
	LogDirectory string
	RunQueueSize int
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			// variables already set in the environment win over the file
			_ = godotenv.Load(f)
		}
	}

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", ""),

		RawDirectory:   getEnv("RAW_DIR", filepath.Join(".", "raw_images")),
		CarDirectory:   getEnv("CAR_DIR", filepath.Join(".", "b_crop_car")),
		PlateDirectory: getEnv("PLATE_DIR", filepath.Join(".", "d_crop_plate")),
		CharDirectory:  getEnv("CHAR_DIR", filepath.Join(".", "e_characters")),

		CarModelPath:   getEnv("CAR_MODEL", filepath.Join(".", "models", "best.onnx")),
		PlateModelPath: getEnv("PLATE_MODEL", filepath.Join(".", "models", "plate.onnx")),
		CharModelPath:  getEnv("CHAR_MODEL", filepath.Join(".", "models", "characters.onnx")),
		CharLabelsPath: getEnv("CHAR_LABELS", filepath.Join(".", "models", "characters.names")),
		CharBackend:    getEnv("CHAR_BACKEND", BackendYOLO),

		CarConfidence:   getEnvAsFloat("CAR_CONFIDENCE", 0.8),
		PlateConfidence: getEnvAsFloat("PLATE_CONFIDENCE", 0.8),
		CharConfidence:  getEnvAsFloat("CHAR_CONFIDENCE", 0.25),
		NMSThreshold:    getEnvAsFloat("NMS_IOU", 0.7),
		InputSize:       getEnvAsInt("INPUT_SIZE", 640),
		MinPlateWidth:   getEnvAsInt("MIN_PLATE_WIDTH", 60),
		PlateSize:       getEnvAsInt("PLATE_SIZE", 416),

		DatabasePath: getEnv("DB_PATH", filepath.Join(".", "data", "plates.db")),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		RunQueueSize: getEnvAsInt("RUN_QUEUE", 4),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
