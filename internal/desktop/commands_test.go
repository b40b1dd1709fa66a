package desktop

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const testToken = "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1c2VyLTEifQ.c2ln"

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	t.Setenv("OCEANML_API_URL", "")
	path := filepath.Join(t.TempDir(), "desktop.toml")
	body := "api_base_url = \"" + apiURL + "\"\n" +
		"timeout_seconds = 5\n" +
		"lease_minutes = 45\n" +
		"log_mode = \"test\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestParseCommandValidLink(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:8000")
	out, _, err := runCLI(t, []string{"parse", "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got parseOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Action != "annotate" || got.VideoID == nil || *got.VideoID != "vid-1" || !got.TokenPresent || !got.Valid {
		t.Fatalf("parse output: got=%+v", got)
	}
	if strings.Contains(out, testToken) {
		t.Fatalf("token leaked into output: %q", out)
	}
}

func TestParseCommandMissingToken(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:8000")
	out, _, err := runCLI(t, []string{"parse", "oceanml://annotate?video=vid-1"}, cfgPath)
	if !errors.Is(err, errInvalidHandoff) {
		t.Fatalf("err: want=%v got=%v", errInvalidHandoff, err)
	}
	requireContains(t, out, `"token_present": false`)
	requireContains(t, out, `"valid": false`)
}

func TestParseCommandWrongScheme(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:8000")
	_, _, err := runCLI(t, []string{"parse", "http://example.com"}, cfgPath)
	if err == nil {
		t.Fatalf("expected protocol error")
	}
	requireContains(t, err.Error(), "oceanml://")
}

func TestOpenCommandGranted(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"video_id":"vid-1","locked_by":"user-1","locked_until":"2025-06-01T10:00:00Z","download_url":"http://cdn.test/videos/vid-1.mp4"}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, srv.URL)
	out, _, err := runCLI(t, []string{"open", "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if gotAuth != "Bearer "+testToken {
		t.Fatalf("authorization: got=%q", gotAuth)
	}
	if gotPath != "/api/annotations/annotate/vid-1" || gotQuery != "timeout_minutes=45" {
		t.Fatalf("request: path=%q query=%q", gotPath, gotQuery)
	}
	requireContains(t, out, "Lease granted for video vid-1")
	requireContains(t, out, "http://cdn.test/videos/vid-1.mp4")
}

func TestOpenCommandDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"video_id":"vid-1","locked_by":"user-2","locked_until":"2025-06-01T10:00:00Z","message":"busy"}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, srv.URL)
	out, _, err := runCLI(t, []string{"open", "--lease-minutes", "10", "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath)
	if err == nil {
		t.Fatalf("expected denial error")
	}
	requireContains(t, out, "locked by user-2")
}

func TestOpenCommandRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"video_id":"vid-1"}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, srv.URL)
	if _, _, err := runCLI(t, []string{"open", "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls: want=2 got=%d", got)
	}
}

func TestOpenCommandUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"token expired","code":"unauthorized"}}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, srv.URL)
	_, _, err := runCLI(t, []string{"open", "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath)
	if !IsUnauthorized(err) {
		t.Fatalf("err: want unauthorized got=%v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls: want=1 got=%d", got)
	}
}

func TestOpenCommandRejectsOutOfRangeLeaseFlag(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"success":true,"video_id":"vid-1"}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, srv.URL)
	for _, minutes := range []string{"-5", "307445735"} {
		_, _, err := runCLI(t, []string{"open", "--lease-minutes=" + minutes, "oceanml://annotate?video=vid-1&token=" + testToken}, cfgPath)
		if err == nil {
			t.Fatalf("--lease-minutes %s: expected error", minutes)
		}
		requireContains(t, err.Error(), "--lease-minutes")
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("calls: want=0 got=%d", got)
	}
}
