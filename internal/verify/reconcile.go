package verify

import (
	"fmt"
	"strings"

	"github.com/qwex/breedcheck/internal/model"
)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// CollapseNewlines replaces every line break with a single space.
func CollapseNewlines(s string) string {
	return newlines.Replace(s)
}

// FirstSentence returns the text before the first ". ", trimmed and ending
// in a period. It splits naively, so abbreviations and decimals followed
// by a space end the sentence early.
func FirstSentence(s string) string {
	first, _, _ := strings.Cut(s, ". ")
	first = strings.TrimSpace(first)
	if first == "" {
		return ""
	}
	if !strings.HasSuffix(first, ".") {
		first += "."
	}
	return first
}

// ShortReasoning joins the first sentence of reasoning with the first
// sentence of appropriateness when the latter is present and differs.
func ShortReasoning(reasoning, appropriateness string) string {
	short := ""
	if reasoning != "" {
		short = FirstSentence(reasoning)
	}
	if appropriateness != "" && appropriateness != reasoning {
		second := FirstSentence(appropriateness)
		if short != "" && second != "" {
			short += " "
		}
		short += second
	}
	return short
}

// Reconcile merges the verdict's corrections into the record. Each tracked
// field takes the non-null correction if one was given and the original
// value otherwise. String values have line breaks collapsed and nested
// corrections are flattened to compact JSON.
func Reconcile(rec model.BreedRecord, v model.Verdict) *model.ReconciledRecord {
	fields := &model.Row{}
	for _, f := range model.TrackedFields {
		fields.Set(f, normalize(resolveField(rec, v, f)))
	}

	reasoning := CollapseNewlines(v.String(model.KeyReasoning))
	appropriateness := CollapseNewlines(v.String(model.KeyAppropriatenessReasoning))

	return &model.ReconciledRecord{
		Index:                    rec.Index,
		Fields:                   fields,
		IsRealBreed:              v.Bool(model.KeyIsRealBreed),
		ConfidenceScore:          v.Float(model.KeyConfidenceScore),
		Reasoning:                reasoning,
		IsAppropriate:            v.Bool(model.KeyIsAppropriate),
		AppropriatenessReasoning: appropriateness,
		ShortReasoning:           ShortReasoning(reasoning, appropriateness),
	}
}

// Degrade builds the error record for a failed extraction. Diagnostic
// text is kept on one line; the original field values are untouched.
func Degrade(rec model.BreedRecord, xerr *ExtractionError) *model.ErrorRecord {
	raw := CollapseNewlines(xerr.Raw)
	if xerr.Failure == ExtractNoResponse {
		raw = model.NoResponseText
	}
	return model.NewErrorRecord(rec, xerr.Failure.ErrorKind(), raw, CollapseNewlines(xerr.Extracted))
}

func resolveField(rec model.BreedRecord, v model.Verdict, field string) any {
	if corrected, ok := v.Correction(field); ok {
		return corrected
	}
	if orig, ok := rec.Value(field); ok {
		return orig
	}
	if field == model.FieldEggNumber {
		return nil
	}
	return ""
}

// normalize keeps a field value on one line. Nested corrections are
// flattened to compact JSON.
func normalize(v any) any {
	switch x := v.(type) {
	case string:
		return CollapseNewlines(x)
	case map[string]any, []any:
		b, err := model.MarshalNoEscape(collapseNested(x))
		if err != nil {
			return CollapseNewlines(fmt.Sprint(x))
		}
		return CollapseNewlines(string(b))
	default:
		return v
	}
}

func collapseNested(v any) any {
	switch x := v.(type) {
	case string:
		return CollapseNewlines(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[CollapseNewlines(k)] = collapseNested(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = collapseNested(e)
		}
		return out
	default:
		return v
	}
}
