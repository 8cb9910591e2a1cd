package config

import (
	"os"

	"github.com/subosito/gotenv"
)

// LoadEnvFile loads environment variables from a .env file. Variables that
// already have a non-empty value win over the file. A malformed line is an
// error rather than being skipped.
func LoadEnvFile(filename string) error {
	env, err := gotenv.Read(filename)
	if err != nil {
		return err
	}

	for key, value := range env {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return nil
}
