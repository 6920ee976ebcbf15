// Package resilience provides admission control for compute runs.
//
// A Bulkhead caps the number of runs in flight so that a burst of large
// tables cannot starve the process, and a RateLimiter meters how often a
// client may start one. Both reject with retryable application errors
// (SERVICE_UNAVAILABLE and RATE_LIMITED) that the HTTP layer maps to 503
// and 429.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "compute", MaxConcurrent: 4})
//	res, err := resilience.ExecuteWithResult(bh, ctx, func() (*flow.Result, error) {
//	    return calc.Run(ctx, in)
//	})
package resilience
