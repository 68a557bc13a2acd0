package config

import (
	"strings"
	"time"
)

// Config is a decoded configuration document with typed accessors.
// Keys may be dotted paths ("journal.driver") that walk nested sections.
// Accessors return the supplied default when a key is missing or holds a
// value of the wrong type.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup resolves key, first as a literal top-level key and then as a
// dotted path through nested maps.
func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var cur any = c.data
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asMap accepts the map shapes produced by the YAML, JSON and TOML decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// Sub returns the nested section at key as its own Config.
// Missing or non-map sections yield an empty Config.
func (c Config) Sub(key string) Config {
	v, ok := c.lookup(key)
	if !ok {
		return New(nil)
	}
	m, ok := asMap(v)
	if !ok {
		return New(nil)
	}
	return New(m)
}

// get converts the value at key with conv, falling back to defaultVal when
// the key is missing or conv rejects the value.
func get[T any](c Config, key string, defaultVal T, conv func(any) (T, bool)) T {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	if out, ok := conv(v); ok {
		return out
	}
	return defaultVal
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	return get(c, key, defaultVal, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

// Duration returns the duration at key, or defaultVal. Strings use
// time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	return get(c, key, defaultVal, toDuration)
}

// Bool returns the boolean at key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	return get(c, key, defaultVal, func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	})
}

// Int returns the integer at key, or defaultVal. A float64 converts only
// when it has no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	return get(c, key, defaultVal, toInt)
}

// StringSlice returns the list of strings at key, or defaultVal when any
// element is not a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	return get(c, key, defaultVal, toStrings)
}

func toDuration(v any) (time.Duration, bool) {
	switch val := v.(type) {
	case time.Duration:
		return val, true
	case string:
		d, err := time.ParseDuration(val)
		return d, err == nil
	case float64:
		return time.Duration(val * float64(time.Second)), true
	case int64:
		return time.Duration(val) * time.Second, true
	case int:
		return time.Duration(val) * time.Second, true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		n := int(val)
		return n, float64(n) == val
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Has reports whether key resolves to a value.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Raw returns the decoded document. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
