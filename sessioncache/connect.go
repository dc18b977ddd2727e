package sessioncache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/splunkd/splunkd"
)

// Connect builds a logged-in Service for host, reusing a cached session key
// from cacheFile when one exists and logging in (and caching the new key)
// otherwise. An empty cacheFile disables caching. A stale cached key
// surfaces as an auth failure on the first request; deleting it from the
// cache recovers.
func Connect(ctx context.Context, host string, port int, scheme, user, pass, cacheFile string) (*splunkd.Service, error) {
	opts := []splunkd.ServiceOption{
		splunkd.WithPort(port),
		splunkd.WithScheme(scheme),
	}
	var cache *Cache
	if cacheFile != "" {
		var err error
		cache, err = Open(cacheFile)
		if err != nil {
			return nil, errors.Wrap(err, "opening session cache")
		}
		defer cache.Close()
		if key, err := cache.Get(host, user); err == nil && key != "" {
			opts = append(opts, splunkd.WithSessionKey(key))
		}
	}
	svc := splunkd.NewService(host, opts...)
	if svc.SessionKey == "" {
		if err := svc.Login(ctx, user, pass); err != nil {
			return nil, errors.Wrap(err, "logging in")
		}
		if cache != nil {
			if err := cache.Put(host, user, svc.SessionKey); err != nil {
				return nil, errors.Wrap(err, "caching session key")
			}
		}
	}
	return svc, nil
}
