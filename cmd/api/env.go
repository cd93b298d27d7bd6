package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv loads environment variables from .env, or from the file named
// by CALC_ENV_FILE, when present. Existing process environment variables are
// not overridden.
func loadDotEnv() error {
	path := os.Getenv("CALC_ENV_FILE")
	if path == "" {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) && os.Getenv("CALC_ENV_FILE") == "" {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}
