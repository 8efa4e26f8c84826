package storage

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Options carries backend-specific extras from the pipeline's storage
// section. Getters perform only minimal type coercion and return the provided
// default when a key is absent or of an unexpected type.
//
// Keys read by the bundled backends:
//
//	mongo:    database (string), ordered (bool)
//	postgres: max_conns (int)
//	console:  color (auto|always|never), header (bool)
type Options map[string]any

// String returns the non-empty string value for key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64 and yaml.v3 as int, so both are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// UnmarshalJSON decodes a missing or null options object to a non-nil, empty
// Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the yaml.v3 counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
