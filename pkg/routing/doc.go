// Package routing maps task labels to provider/model routes and dispatches
// prompts along them.
//
// A Table holds "task → provider,model" routes. Resolve never fails: an
// unknown task uses the "default" route, and a table without one uses the
// first registered provider and its first model.
//
// A Router owns a Table and a provider registry. Dispatch walks
// resolve → lookup → build request → send → normalize and always returns a
// providers.Result; provider failures arrive as simulated results, and a
// route to an unregistered provider is served by the first provider.
//
//	router, err := routing.New(cfg, routing.WithLogger(logger))
//	if err != nil {
//	    logger.Warn("some providers were skipped", "error", err)
//	}
//	res := router.Dispatch(ctx, "coding", "Write a binary search in Go")
//	fmt.Println(res.Text)
package routing
