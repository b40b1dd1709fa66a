package db

import (
	"testing"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("logger.New: %v", err)
	}
	return log
}
