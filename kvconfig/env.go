package kvconfig

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file in the working directory into
// the process environment, the same as bifrost's test harness does. A
// missing .env file is not an error: kvsbench may run purely off
// already-exported environment variables.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}
