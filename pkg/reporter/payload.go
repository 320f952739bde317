package reporter

// Payload is the raw per-host result mapping produced by the execution
// engine for one executed action. Keys are arbitrary; well-known ones
// include "failed", "rc", "msg", "stdout", "stderr", "changed",
// "invocation", "ansible_facts", "start" and "end".
type Payload map[string]interface{}

// Copy creates a shallow copy of the payload.
func (p Payload) Copy() Payload {
	if p == nil {
		return nil
	}
	copied := make(Payload, len(p))
	for key, value := range p {
		copied[key] = value
	}
	return copied
}

// getString returns the string value for key, or fallback if the key is
// absent or not a string.
func (p Payload) getString(key, fallback string) string {
	if value, ok := p[key].(string); ok {
		return value
	}
	return fallback
}

// getBool returns the bool value for key, or false if the key is absent
// or not a bool.
func (p Payload) getBool(key string) bool {
	value, ok := p[key].(bool)
	return ok && value
}

// getInt returns the integer value for key. The second return value is
// false when the key is absent, the third when the value is present but
// not numeric. JSON decoding yields float64 for all numbers, so both
// native ints and floats are accepted.
func (p Payload) getInt(key string) (int, bool, bool) {
	value, ok := p[key]
	if !ok {
		return 0, false, true
	}
	switch v := value.(type) {
	case int:
		return v, true, true
	case int64:
		return int(v), true, true
	case float64:
		return int(v), true, true
	}
	return 0, true, false
}

// getMap returns the nested mapping for key, or nil if the key is absent
// or not a mapping.
func (p Payload) getMap(key string) Payload {
	switch v := p[key].(type) {
	case Payload:
		return v
	case map[string]interface{}:
		return Payload(v)
	}
	return nil
}

// has reports whether key is present in the payload, regardless of value.
func (p Payload) has(key string) bool {
	_, ok := p[key]
	return ok
}
