package alert

import (
	"os"
	"testing"

	"github.com/weldtech/weldwatch/internal/log"
)

func TestMain(m *testing.M) {
	if err := log.Init(false); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
