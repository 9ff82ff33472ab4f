// Package testing switches the service into test mode for any test binary
// that imports it. Import it for its side effect only.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		_ = os.Setenv("PUSHPERM_TEST_MODE", "1")
		if os.Getenv("ROLE_STORE") == "" {
			_ = os.Setenv("ROLE_STORE", "memory")
		}
	})
}
