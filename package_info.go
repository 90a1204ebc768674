// Package ffclient is the main package of the feature flag synchronization engine.
//
// An [Engine] keeps an in-memory copy of an environment's feature flags and target segments up to date
// by polling the configuration service on a fixed delay. It tells the application, through an
// [interfaces.Notifier], when the first complete refresh has succeeded and whenever a later refresh
// fails. The cached data is read through [Engine.Query].
//
//	engine, err := ffclient.New(ffclient.Config{
//	    Environment: "production",
//	    Headers:     http.Header{"Authorization": {"Bearer " + token}},
//	}, interfaces.NotifierFuncs{
//	    Ready: func() { log.Println("flags loaded") },
//	    Error: func(msg string) { log.Println("refresh failed:", msg) },
//	})
//	if err != nil {
//	    return err
//	}
//	engine.Start()
//	defer engine.Close()
//
// Flag evaluation is not part of this module; the engine only maintains the data that an evaluator
// would read.
package ffclient
