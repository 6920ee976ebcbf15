package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Server is a running test server. It is closed when the test ends.
type Server struct {
	*httptest.Server
	Srv *server.Server
}

// Start serves calc with every default endpoint registered.
func Start(t testing.TB, calc *flow.Calculator, cfg server.Config) *Server {
	t.Helper()
	cfg.Host = "127.0.0.1"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("server config: %v", err)
	}

	srv := server.New(cfg, logger.Nop())
	srv.ApplyDefaults("pipeflow-test", calc, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &Server{Server: ts, Srv: srv}
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

// Do sends a request and reads the whole response.
func (s *Server) Do(t testing.TB, method, path, body string, header ...string) Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: string(data)}
}

// PostCSV posts a CSV body.
func (s *Server) PostCSV(t testing.TB, path, body string, header ...string) Response {
	t.Helper()
	return s.Do(t, http.MethodPost, path, body, append([]string{"Content-Type", "text/csv"}, header...)...)
}
