package store_test

import (
	"os"
	"testing"

	"github.com/greenleaf-nursery/nursery-api/testutil"
)

// TestMain runs before all tests in the store package
// It ensures GO_ENV is set to "test" to prevent accidental data loss
func TestMain(m *testing.M) {
	if code := testutil.SafetyCheck(); code != 0 {
		os.Exit(code)
	}

	os.Exit(m.Run())
}
