// Package pathutil maps request paths to bounded metric labels.
package pathutil

import "strings"

// OtherPath labels every path outside the route table.
const OtherPath = "other"

// routes lists the paths served by the API. Query values never appear in
// labels, so the table is static.
var routes = map[string]struct{}{
	"/api/popular-posts": {},
	"/api/posts":         {},
	"/api/v1/blogs":      {},
	"/api/v1/stats":      {},
	"/api/all-series":    {},
	"/api/rss":           {},
	"/api/views":         {},
	"/api/reactions":     {},
	"/api/related-posts": {},
	"/api/chat":          {},
	"/api/rag-status":    {},
	"/health":            {},
	"/ready":             {},
	"/live":              {},
	"/metrics":           {},
}

// NormalizePath returns path without query or trailing slash when it is a
// known route and OtherPath otherwise, so scanners cannot grow label sets.
//
//	NormalizePath("/api/views?slug=x")   // "/api/views"
//	NormalizePath("/api/posts/")         // "/api/posts"
//	NormalizePath("/wp-login.php")       // "other"
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return OtherPath
}

// Cardinality is the number of distinct labels NormalizePath can produce.
func Cardinality() int {
	return len(routes) + 1
}
