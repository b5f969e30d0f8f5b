// Package guard flips the binaries into test mode when imported by a test, so
// their main functions return before touching Redis or the network.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DESK_TEST_MODE") == "" {
			_ = os.Setenv("DESK_TEST_MODE", "1")
		}
	})
}
