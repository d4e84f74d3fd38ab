// Package resolver locates logging configuration files.
//
// A Resolver turns a possibly-relative file name into a concrete path by
// probing an ordered list of base directories. Both the directory list and
// the existence check are injected, so resolution is deterministic in tests:
//
//	r := resolver.New(resolver.StaticEnvironment{"/etc/nlog"}, func(p string) bool {
//	    return p == "/etc/nlog/nlog.yaml"
//	})
//	path := r.Resolve("nlog.yaml") // "/etc/nlog/nlog.yaml"
//
// Rooted paths are trusted as-is. When nothing matches, the original name is
// returned unchanged so the caller can fail with its own, clearer error.
package resolver
