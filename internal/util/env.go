package util

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	return value
}

func GetEnvNumeric(key string, defaultValue int) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return float64(defaultValue)
	}
	returnValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return float64(defaultValue)
	}

	return returnValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// DefaultDataFile is the dataset loaded when no path is given.
const DefaultDataFile = "./data/interactions.json"

// DataFile returns DATA_FILE, the dataset every binary loads by default.
func DataFile() string {
	return GetEnvString("DATA_FILE", DefaultDataFile)
}

// DataDir returns DATA_DIR, the only local directory load requests may read
// from. It defaults to the directory of DataFile.
func DataDir() string {
	return GetEnvString("DATA_DIR", filepath.Dir(DataFile()))
}
