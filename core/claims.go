package core

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
)

// maxNumericDate bounds NumericDate claims to values time.Unix represents
// exactly.
const maxNumericDate = 1 << 62

// Claims holds the payload of a token. Numbers are kept as json.Number when
// the payload was decoded with UseNumber.
type Claims map[string]any

// StringValue returns the named claim if it is a string.
func (c Claims) StringValue(name string) (string, bool) {
	s, ok := c[name].(string)
	return s, ok
}

// Subject returns the sub claim.
func (c Claims) Subject() string {
	s, _ := c.StringValue("sub")
	return s
}

// Issuer returns the iss claim.
func (c Claims) Issuer() string {
	s, _ := c.StringValue("iss")
	return s
}

// Audience returns the aud claim, which may be a single string or an array.
// The result is a copy callers may append to.
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Time reads a NumericDate claim such as exp, nbf or iat. The boolean is
// false when the claim is absent.
func (c Claims) Time(name string) (time.Time, bool, error) {
	raw, ok := c[name]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}

	var seconds float64
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, true, fmt.Errorf("claim %q is not a number: %w", name, err)
		}
		seconds = f
	case float64:
		seconds = v
	case int64:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	default:
		return time.Time{}, true, fmt.Errorf("claim %q has type %T, expected a number", name, raw)
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, true, fmt.Errorf("claim %q is not a finite number", name)
	}
	if seconds > maxNumericDate || seconds < -maxNumericDate {
		return time.Time{}, true, fmt.Errorf("claim %q is out of range", name)
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)), true, nil
}
