package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
)

// Keyer builds cache keys. Implementations must return equal keys for equal
// inputs and distinct keys otherwise.
type Keyer interface {
	// HTTPKey names a raw response fetched from url within namespace.
	HTTPKey(namespace, url string) string

	// QueryKey names the result of a Cypher query against a release.
	QueryKey(release, cypher string, params map[string]string) string
}

// DefaultKeyer is the standard [Keyer]. Query keys hash their inputs, the
// other keys are readable.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<url>".
func (DefaultKeyer) HTTPKey(namespace, url string) string {
	return "http:" + namespace + ":" + url
}

// QueryKey returns "query:<sha256>" over the release, the query text and the
// parameters in key order.
func (DefaultKeyer) QueryKey(release, cypher string, params map[string]string) string {
	var kv []string
	for _, k := range slices.Sorted(maps.Keys(params)) {
		kv = append(kv, k, params[k])
	}
	return hashKey("query", release, cypher, kv)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data. FileCache uses it to name entry
// files, so keys holding IRIs or Cypher text stay valid file names.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<sha256>" over parts encoded as one JSON array.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}
