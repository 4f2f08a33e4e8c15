// Package testing is imported for its side effect by tests that build
// commands or routers: it switches the application into test mode.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	setTestEnv()
}

func setTestEnv() {
	_ = os.Setenv("ANIMES_TEST_MODE", "1")
	for key, value := range map[string]string{"APP_ENV": "test", "LOG_LEVEL": "error"} {
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// TestMain can be aliased by packages that need an explicit entry point.
func TestMain(m *stdtesting.M) {
	setTestEnv()
	os.Exit(m.Run())
}
