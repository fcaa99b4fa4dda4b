package scopus

import "encoding/json"

// envelopeRules are the known nested error-envelope shapes the Scopus API
// uses, in precedence order. Each rule is a key path descended as far as
// it matches; a partial match keeps the deepest value reached, matching
// the observed vendor behavior where either envelope may be truncated.
var envelopeRules = [][]string{
	{"service-error", "status", "statusText"},
	{"error-response", "error-message"},
}

// extractErrorMessage pulls a human-readable message out of a non-200
// response body. Unstructured or unparseable bodies degrade to the raw
// text; this function never fails.
func extractErrorMessage(body []byte) string {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return string(body)
	}

	for _, rule := range envelopeRules {
		doc = descend(doc, rule)
	}

	switch v := doc.(type) {
	case string:
		return v
	default:
		// Still structured after unwrapping: show it as compact JSON.
		out, err := json.Marshal(v)
		if err != nil {
			return string(body)
		}
		return string(out)
	}
}

// descend follows a key path through nested objects, stopping at the
// deepest key that exists.
func descend(doc interface{}, path []string) interface{} {
	cur := doc
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			break
		}
		val, ok := obj[key]
		if !ok {
			break
		}
		cur = val
	}
	return cur
}
