package lifecycle

import (
	"fmt"
	"reflect"
)

// Configuration is a logging configuration snapshot.
//
// Implementations are treated as immutable while installed and are compared
// by identity, so they should be pointer types.
type Configuration interface {
	// Reload builds a fresh snapshot from the same source. It returns
	// (nil, nil) when there is nothing to replace the receiver with.
	Reload() (Configuration, error)
}

// isNil reports whether c is nil, including a typed nil pointer stored in
// the interface.
func isNil(c Configuration) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// normalize maps typed nils to a plain nil interface.
func normalize(c Configuration) Configuration {
	if isNil(c) {
		return nil
	}
	return c
}

// sameConfiguration compares two snapshots by identity.
// Values of non-comparable dynamic types are never considered the same.
func sameConfiguration(a, b Configuration) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Describe returns a short human-readable label for c: its String method
// when it has one, otherwise its dynamic type. Nil yields "".
func Describe(c Configuration) string {
	c = normalize(c)
	if c == nil {
		return ""
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
