package testutil

import (
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/pipeflow/server"
	"github.com/kbukum/pipeflow/testutil"
)

func TestEndToEnd(t *testing.T) {
	srv := Start(t, testutil.Calculator(t), server.Config{})

	resp := srv.PostCSV(t, "/v1/compute?format=csv", testutil.TrialCSV(testutil.Reference, testutil.Large, testutil.Stalled))
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}
	if resp.Header.Get("X-Run-Id") != testutil.RunID || resp.Header.Get("X-Row-Faults") != "1" {
		t.Errorf("unexpected headers %v", resp.Header)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("request id middleware not applied")
	}
	lines := strings.Split(strings.TrimSpace(resp.Body), "\n")
	if len(lines) != 4 || !strings.HasSuffix(lines[0], "dRe/Re,dFe/Fe") {
		t.Errorf("unexpected CSV:\n%s", resp.Body)
	}

	if health := srv.Do(t, http.MethodGet, "/health", ""); health.Status != http.StatusOK {
		t.Errorf("health: %d %s", health.Status, health.Body)
	}
}

func TestBodyLimitThroughMiddleware(t *testing.T) {
	srv := Start(t, testutil.Calculator(t), server.Config{MaxBodySize: "1KB"})
	big := testutil.TrialCSV(make([]testutil.Trial, 100)...)
	if resp := srv.PostCSV(t, "/v1/compute", big); resp.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d: %s", resp.Status, resp.Body)
	}
}
