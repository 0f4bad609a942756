// Package health serves the liveness, readiness and version endpoints of the
// switchboard HTTP API.
//
// Liveness only reports that the process is up. Readiness runs every
// registered check concurrently, each under its own timeout, and answers 503
// when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("providers", func(ctx context.Context) error {
//	    if len(router.Adapters()) == 0 {
//	        return errors.New("no providers registered")
//	    }
//	    return nil
//	})
//	r.Get("/healthz", checker.LivenessHandler())
//	r.Get("/readyz", checker.ReadinessHandler())
package health
