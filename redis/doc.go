// Package redis wraps go-redis with the service's logging and lifecycle
// conventions. It backs the shared JWKS key cache so several instances
// fetch a provider's key set once per TTL instead of once each.
//
//	client, err := redis.New(cfg, log)
//	keys := redis.NewTypedStore[jwks.CachedSet](client, "jwks")
//	set, err := keys.Load(ctx, url) // (nil, nil) when absent
package redis
