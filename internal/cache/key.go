package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key addresses a cache entry by resource type plus filter parameters.
// Keys with the same resource and parameters always produce the same
// fingerprint regardless of parameter insertion order.
type Key struct {
	Resource string
	Params   map[string]string
}

// NewKey builds a key for a resource with optional name/value parameter
// pairs. Odd trailing names are ignored.
func NewKey(resource string, pairs ...string) Key {
	params := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		params[pairs[i]] = pairs[i+1]
	}
	return Key{Resource: resource, Params: params}
}

// KeyFromValues builds a key from encoded query parameters, so a list
// request and its cache entry share one canonical description.
func KeyFromValues(resource string, values url.Values) Key {
	params := make(map[string]string, len(values))
	for name := range values {
		params[name] = values.Get(name)
	}
	return Key{Resource: resource, Params: params}
}

// Fingerprint returns the canonical identifier for the key: the resource
// name followed by sorted parameters. Prefix invalidation targets all
// fingerprints that share a resource.
func (k Key) Fingerprint() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		if k.Params[name] == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(k.Resource)
	sep := "?"
	for _, name := range names {
		b.WriteString(sep)
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(k.Params[name])
		sep = "&"
	}
	return b.String()
}
