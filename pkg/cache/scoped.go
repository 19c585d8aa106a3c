package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several knowledge sources
// or releases can share one backend without their entries colliding.
//
//	sckan := NewScopedKeyer(NewDefaultKeyer(), "sckan-scigraph:")
//	sparc := NewScopedKeyer(NewDefaultKeyer(), "sparc-scigraph:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}

// QueryKey generates a prefixed key for query results.
func (k *ScopedKeyer) QueryKey(release, cypher string, params map[string]string) string {
	return k.prefix + k.inner.QueryKey(release, cypher, params)
}
