// Package catalog keeps provider model catalogs current.
//
// Adapters that can discover their models (see providers.ModelRefresher)
// are refreshed in parallel, either on demand with RefreshAll or on a cron
// schedule with Start. A failed refresh keeps the adapter's previous catalog,
// so GetModels never blocks on the network.
//
//	r := catalog.NewRefresher(router, cfg.Catalog,
//	    catalog.WithLogger(logger),
//	    catalog.WithObserver(collector),
//	)
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop()
package catalog
