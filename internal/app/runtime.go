package app

import "os"

const testModeEnv = "ANIMES_TEST_MODE"

// InTestMode reports whether the process runs under go test. Commands return
// before opening connections and the router skips request logging.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
