/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

/*
Package evalcache provides a bounded, persisted, per-user cache of feature gate, dynamic config
and layer evaluation results fetched from a remote evaluation service.

A ValueSet is an immutable snapshot of everything fetched for one user at one point in time.
A Store keeps ValueSets of up to Options.MaxUsers users (5 by default), evicts the oldest snapshot
by creation time when the limit is exceeded and persists the whole cache into a storage.Storage
as a single blob that maps user keys to raw server payloads.

Names are looked up in their hashed form (SHA-256, standard base64) first and then as is,
so payloads keyed by either form are supported.

Store performs no locking. Callers that use it from several goroutines must serialize access.

Example:

	st, err := backends.Open(storageCfg)
	if err != nil {
		return err
	}
	store, err := evalcache.Open(st, evalcache.Options{Logger: logger})
	if err != nil {
		return err
	}
	if _, err = evalcache.Refresh(ctx, store, evalcache.NewUser("user-42"), fetcher, cfg.RefreshPolicy()); err != nil {
		logger.Warn("refresh failed, serving cached values", log.Error(err))
	}
	if gate, ok := store.CheckGate(evalcache.NewUser("user-42"), "new_checkout"); ok && gate.Value {
		// ...
	}
*/
package evalcache
