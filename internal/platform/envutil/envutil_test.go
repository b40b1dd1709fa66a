package envutil

import (
	"testing"
	"time"
)

func TestCSV(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	got := CSV("CORS_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("CSV: got=%v", got)
	}

	t.Setenv("CORS_ORIGINS", " , ")
	def := []string{"http://localhost:3000"}
	if got := CSV("CORS_ORIGINS", def); len(got) != 1 || got[0] != def[0] {
		t.Fatalf("CSV default: got=%v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("FLAG", "on")
	if !Bool("FLAG", false) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("FLAG", "garbage")
	if !Bool("FLAG", true) {
		t.Fatalf("Bool fallback: want=true")
	}
	t.Setenv("NUM", "x")
	if got := Int("NUM", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}

func TestMinutes(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT_MINUTES", "0")
	if got := Minutes("LOCK_TIMEOUT_MINUTES", time.Hour); got != 0 {
		t.Fatalf("Minutes zero: got=%v", got)
	}
	t.Setenv("LOCK_TIMEOUT_MINUTES", "-5")
	if got := Minutes("LOCK_TIMEOUT_MINUTES", time.Hour); got != time.Hour {
		t.Fatalf("Minutes negative: got=%v", got)
	}
}
