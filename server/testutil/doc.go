// Package testutil runs the full HTTP server, middleware included, on an
// httptest.Server for end-to-end tests.
//
//	srv := testutil.Start(t, calc, server.Config{})
//	resp := srv.PostCSV(t, "/v1/compute", body)
package testutil
