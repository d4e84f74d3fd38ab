package resolver

import (
	"path/filepath"
	"strings"
)

// ExistsFunc reports whether a candidate path exists.
type ExistsFunc func(path string) bool

// Resolver finds the first usable configuration file path.
//
// Thread Safety:
//   - A Resolver is immutable after construction and safe for concurrent use
//     provided its Environment and ExistsFunc are.
type Resolver struct {
	env    Environment
	exists ExistsFunc
}

// New creates a Resolver. A nil env uses OSEnvironment{} and a nil exists
// uses FileExists.
func New(env Environment, exists ExistsFunc) *Resolver {
	if env == nil {
		env = OSEnvironment{}
	}
	if exists == nil {
		exists = FileExists
	}
	return &Resolver{env: env, exists: exists}
}

// Resolve returns the path to use for name.
//
// Rooted names are returned unchanged without an existence check. Relative
// names are joined with each base directory in order and the first
// candidate accepted by the existence check is returned. If none is, name is
// returned unchanged.
func (r *Resolver) Resolve(name string) string {
	if name == "" || IsRooted(name) {
		return name
	}

	for _, candidate := range r.Candidates(name) {
		if r.exists(candidate) {
			return candidate
		}
	}
	return name
}

// Discover returns the first existing candidate for any of names, trying
// every base directory for the first name before moving on to the next.
// Rooted names are checked directly.
func (r *Resolver) Discover(names ...string) (string, bool) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if IsRooted(name) {
			if r.exists(name) {
				return name, true
			}
			continue
		}
		for _, candidate := range r.Candidates(name) {
			if r.exists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// Candidates lists the paths Resolve would probe for a relative name, in
// order.
func (r *Resolver) Candidates(name string) []string {
	bases := r.env.BaseDirectories()
	out := make([]string, 0, len(bases))
	for _, base := range bases {
		if base == "" {
			continue
		}
		out = append(out, joinPath(base, name))
	}
	return out
}

// IsRooted reports whether p is an absolute or rooted path on any platform:
// POSIX "/x", Windows drive paths "C:\x" or "C:/x", rooted "\x" and UNC
// "\\server\share".
func IsRooted(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return true
	}
	return len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// joinPath joins base and name with the separator base already uses, so
// Windows-style bases stay Windows-style when tests run on other platforms.
func joinPath(base, name string) string {
	if strings.Contains(base, `\`) && !strings.Contains(base, "/") {
		return strings.TrimRight(base, `\`) + `\` + name
	}
	return filepath.Join(base, name)
}
