// Package querystate maps list view filters to and from URL query strings.
// Decoding never fails: anything unparseable falls back to the field default.
package querystate

import (
	"net/url"
	"slices"
	"strconv"
)

// AllValue is the sentinel of every enum field and is never written to the URL.
const AllValue = "all"

func positiveInt(q url.Values, key string, fallback int) int {
	raw := q.Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func str(q url.Values, key, fallback string) string {
	if !q.Has(key) {
		return fallback
	}
	return q.Get(key)
}

func enum(q url.Values, key string, allowed []string) string {
	v := q.Get(key)
	if slices.Contains(allowed, v) {
		return v
	}
	return AllValue
}

func clone(prev url.Values) url.Values {
	next := make(url.Values, len(prev)+4)
	for k, v := range prev {
		next[k] = slices.Clone(v)
	}
	return next
}

func setInt(q url.Values, key string, n int) {
	q.Set(key, strconv.Itoa(n))
}

func setOrDelete(q url.Values, key, value string) {
	if value == "" {
		q.Del(key)
		return
	}
	q.Set(key, value)
}

func setEnum(q url.Values, key, value string) {
	if value == "" || value == AllValue {
		q.Del(key)
		return
	}
	q.Set(key, value)
}
