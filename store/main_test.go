package store_test

import (
	"os"
	"testing"

	"github.com/soundforge/soundforge/utils/dotenv"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}
