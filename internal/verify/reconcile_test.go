package verify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwex/breedcheck/internal/model"
)

func sampleRecord() model.BreedRecord {
	return model.NewBreedRecord(7,
		[]string{"name", "origin", "eggColor", "eggSize", "eggNumber", "temperment", "description", "imageUrl"},
		[]string{"Rhode Island Red", "USA", "Brown", "Large", "250", "Docile", "A dual-purpose breed.", "http://example.com/rir.jpg"},
	)
}

func fieldValue(t *testing.T, r *model.ReconciledRecord, field string) any {
	t.Helper()
	v, ok := r.Fields.Get(field)
	require.True(t, ok, "field %s missing", field)
	return v
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A. B.", "A."},
		{"Single sentence", "Single sentence."},
		{"Ends with period.", "Ends with period."},
		{"  padded . rest", "padded."},
		{"", ""},
		{"   ", ""},
		{"Lays 2.5 eggs. Daily", "Lays 2.5 eggs."},
		{"Dr. Smith bred it. Later", "Dr."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstSentence(tt.in))
		})
	}
}

func TestShortReasoning(t *testing.T) {
	tests := []struct {
		name                       string
		reasoning, appropriateness string
		want                       string
	}{
		{"both distinct", "A. B.", "C. D.", "A. C."},
		{"identical", "A. B.", "A. B.", "A."},
		{"no appropriateness", "A. B.", "", "A."},
		{"no reasoning", "", "C. D.", "C."},
		{"neither", "", "", ""},
		{"adds missing periods", "Known breed", "Suitable", "Known breed. Suitable."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortReasoning(tt.reasoning, tt.appropriateness))
		})
	}
}

func TestReconcile_FallsBackToOriginal(t *testing.T) {
	rec := sampleRecord()
	v := model.Verdict{
		model.KeyIsRealBreed:   true,
		model.KeyIsAppropriate: true,
		model.KeyCorrectedInfo: map[string]any{
			"name":        nil,
			"origin":      "Rhode Island, USA",
			"description": "A dual-purpose\nheritage breed.",
		},
	}

	r := Reconcile(rec, v)

	assert.Equal(t, 7, r.Index)
	assert.Equal(t, model.TrackedFields, r.Fields.Keys())
	assert.Equal(t, "Rhode Island Red", fieldValue(t, r, model.FieldName))
	assert.Equal(t, "Rhode Island, USA", fieldValue(t, r, model.FieldOrigin))
	assert.Equal(t, "Brown", fieldValue(t, r, model.FieldEggColor))
	assert.Equal(t, int64(250), fieldValue(t, r, model.FieldEggNumber))
	assert.Equal(t, "Docile", fieldValue(t, r, model.FieldTemperament))
	assert.Equal(t, "A dual-purpose heritage breed.", fieldValue(t, r, model.FieldDescription))
	assert.True(t, r.Verified())
}

func TestReconcile_EveryFieldFallsBackWhenCorrectionsAbsent(t *testing.T) {
	rec := sampleRecord()
	r := Reconcile(rec, model.Verdict{})

	for _, f := range model.TrackedFields {
		want, _ := rec.Value(f)
		assert.Equal(t, want, fieldValue(t, r, f), f)
	}
}

func TestReconcile_MissingOriginalFields(t *testing.T) {
	rec := model.NewBreedRecord(0, []string{"name"}, []string{"Silkie"})
	r := Reconcile(rec, model.Verdict{})

	assert.Equal(t, "", fieldValue(t, r, model.FieldOrigin))
	assert.Nil(t, fieldValue(t, r, model.FieldEggNumber))
	assert.Equal(t, "", fieldValue(t, r, model.FieldImageURL))
}

func TestReconcile_NumericCorrectionPassesThrough(t *testing.T) {
	rec := sampleRecord()
	r := Reconcile(rec, model.Verdict{model.KeyCorrectedInfo: map[string]any{"eggNumber": 200.0}})
	assert.Equal(t, 200.0, fieldValue(t, r, model.FieldEggNumber))

	r = Reconcile(rec, model.Verdict{model.KeyCorrectedInfo: map[string]any{"eggNumber": "200-250"}})
	assert.Equal(t, "200-250", fieldValue(t, r, model.FieldEggNumber))
}

func TestReconcile_Defaults(t *testing.T) {
	r := Reconcile(sampleRecord(), model.Verdict{})

	assert.False(t, r.IsRealBreed)
	assert.False(t, r.IsAppropriate)
	assert.Zero(t, r.ConfidenceScore)
	assert.Empty(t, r.Reasoning)
	assert.Empty(t, r.ShortReasoning)
	assert.False(t, r.Verified())
}

func TestReconcile_ConfidenceIsNotClamped(t *testing.T) {
	r := Reconcile(sampleRecord(), model.Verdict{model.KeyConfidenceScore: 1.4})
	assert.InDelta(t, 1.4, r.ConfidenceScore, 1e-9)
}

func TestReconcile_CollapsesNewlinesEverywhere(t *testing.T) {
	rec := model.NewBreedRecord(0,
		[]string{"name", "description"},
		[]string{"Line\nBreak", "Multi\r\nline"},
	)
	v := model.Verdict{
		model.KeyReasoning:                "Real breed.\nWell documented. More.",
		model.KeyAppropriatenessReasoning: "Fine\nfor all.",
		model.KeyCorrectedInfo:            map[string]any{"origin": "Somewhere\nelse"},
	}

	r := Reconcile(rec, v)
	for _, c := range r.Row().Cells() {
		if s, ok := c.Value.(string); ok {
			assert.False(t, strings.ContainsAny(s, "\r\n"), "column %s has a line break", c.Key)
		}
	}
	assert.Equal(t, "Real breed. Well documented. More.", r.Reasoning)
	assert.Equal(t, "Real breed. Fine for all.", r.ShortReasoning)
}

func TestReconcile_NestedCorrectionIsFlattened(t *testing.T) {
	v := model.Verdict{
		model.KeyIsRealBreed:   true,
		model.KeyIsAppropriate: true,
		model.KeyCorrectedInfo: map[string]any{
			"description": map[string]any{"text": "line1\nline2 & <more>"},
			"eggColor":    []any{"Brown", "Tinted\r\nCream"},
		},
	}

	r := Reconcile(sampleRecord(), v)

	assert.Equal(t, `{"text":"line1 line2 & <more>"}`, fieldValue(t, r, model.FieldDescription))
	assert.Equal(t, `["Brown","Tinted Cream"]`, fieldValue(t, r, model.FieldEggColor))
	for _, c := range r.Row().Cells() {
		if s, ok := c.Value.(string); ok {
			assert.False(t, strings.ContainsAny(s, "\r\n"), "column %s has a line break", c.Key)
		}
	}
}

func TestReconcile_ImaginaryChicken(t *testing.T) {
	rec := model.NewBreedRecord(2,
		[]string{"name", "origin", "eggColor", "eggNumber"},
		[]string{"Imaginary Chicken", "Mars", "Green", "10"},
	)
	v := model.Verdict{
		model.KeyIsRealBreed:              false,
		model.KeyConfidenceScore:          0.98,
		model.KeyReasoning:                "There is no chicken breed from Mars. Eggs are not green.",
		model.KeyIsAppropriate:            true,
		model.KeyAppropriatenessReasoning: "Harmless but fictional.",
	}

	r := Reconcile(rec, v)
	assert.False(t, r.Verified())
	got, _ := r.Row().Get(model.KeyIsRealBreed)
	assert.Equal(t, false, got)
	assert.Equal(t, "There is no chicken breed from Mars. Harmless but fictional.", r.ShortReasoning)
}

func TestDegrade(t *testing.T) {
	rec := sampleRecord()

	tests := []struct {
		name          string
		xerr          *ExtractionError
		wantKind      model.ErrorKind
		wantRaw       string
		wantExtracted bool
	}{
		{
			name:     "no response",
			xerr:     &ExtractionError{Failure: ExtractNoResponse},
			wantKind: model.ErrorKindAPICall,
			wantRaw:  model.NoResponseText,
		},
		{
			name:     "block missing",
			xerr:     &ExtractionError{Failure: ExtractBlockNotFound, Raw: "prose\nonly"},
			wantKind: model.ErrorKindBlockMissing,
			wantRaw:  "prose only",
		},
		{
			name:          "parse failure",
			xerr:          &ExtractionError{Failure: ExtractParseFailure, Raw: "```json\n{bad\n```", Extracted: "{bad\n"},
			wantKind:      model.ErrorKindParse,
			wantRaw:       "```json {bad ```",
			wantExtracted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Degrade(rec, tt.xerr)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantRaw, e.RawResponse)
			assert.False(t, e.Verified())

			row := e.Row()
			for _, f := range rec.Fields.Keys() {
				want, _ := rec.Value(f)
				got, ok := row.Get(f)
				require.True(t, ok)
				assert.Equal(t, want, got, "original %s preserved", f)
			}
			_, hasExtracted := row.Get(model.ColumnExtractedJSON)
			assert.Equal(t, tt.wantExtracted, hasExtracted)
		})
	}
}
