package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// loadEnvFile sets the variables of the given .env file that are not already
// in the environment. A missing file is not an error.
func loadEnvFile(filename string) error {
	err := godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
