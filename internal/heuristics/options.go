package heuristics

// Option readers. Config options arrive as a free-form map that has usually
// been through a JSON round trip, so numeric values may be float64, int or
// json-decoded int64. Unknown or malformed keys fall back to the default so
// stored preferences from older catalog versions keep working.

func floatOption(opts map[string]any, key string, def float64) float64 {
	v, ok := opts[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

func intOption(opts map[string]any, key string, def int) int {
	v, ok := opts[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func stringOption(opts map[string]any, key string, def string) string {
	if s, ok := opts[key].(string); ok {
		return s
	}
	return def
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
