package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Verdict keys returned by the reviewer model.
const (
	KeyIsRealBreed              = "is_real_breed"
	KeyConfidenceScore          = "confidence_score"
	KeyReasoning                = "reasoning"
	KeyIsAppropriate            = "is_appropriate"
	KeyAppropriatenessReasoning = "appropriateness_reasoning"
	KeyCorrectedInfo            = "corrected_info"
	KeyShortReasoning           = "short_reasoning"
)

// Verdict is the reviewer model's parsed JSON object. The model's output
// is untyped, so values are read through accessors that apply defaults
// instead of assuming a shape.
type Verdict map[string]any

// Bool reads a boolean flag. Missing or unrecognized values are false.
// String values such as "true" are accepted, and the number 1 counts as
// true.
func (v Verdict) Bool(key string) bool {
	switch b := v[key].(type) {
	case bool:
		return b
	case float64:
		return b == 1
	case int:
		return b == 1
	case int64:
		return b == 1
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	default:
		return false
	}
}

// Float reads a number. Missing or non-numeric values are 0. The value is
// not clamped to any range.
func (v Verdict) Float(key string) float64 {
	switch f := v[key].(type) {
	case float64:
		return f
	case int:
		return float64(f)
	case int64:
		return float64(f)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// String reads a text value. Missing and null values are empty; other
// non-string values are formatted.
func (v Verdict) String(key string) string {
	switch s := v[key].(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// Correction returns the suggested replacement for field. The boolean is
// false when corrected_info is missing, is not an object, or holds no
// non-null value for field.
func (v Verdict) Correction(field string) (any, bool) {
	info, ok := v[KeyCorrectedInfo].(map[string]any)
	if !ok {
		return nil, false
	}
	if val := info[field]; val != nil {
		return val, true
	}
	for legacy, canon := range legacyHeaders {
		if canon != field {
			continue
		}
		if val := info[legacy]; val != nil {
			return val, true
		}
	}
	return nil, false
}
