package model

// ErrorKind tags a record whose verdict could not be obtained.
type ErrorKind string

const (
	ErrorKindAPICall      ErrorKind = "API call failed"
	ErrorKindBlockMissing ErrorKind = "JSON markdown not found"
	ErrorKindParse        ErrorKind = "JSON parsing failed"
)

// Diagnostic columns added to error records.
const (
	ColumnError         = "ollama_error"
	ColumnRawResponse   = "raw_ollama_response"
	ColumnExtractedJSON = "extracted_json"
)

// NoResponseText is the diagnostic text stored when the model could not
// be queried.
const NoResponseText = "No response from Ollama API"

// OutputOnlyColumns are written by a previous run and are not part of a
// submitted breed record.
var OutputOnlyColumns = []string{
	KeyIsRealBreed,
	KeyConfidenceScore,
	KeyReasoning,
	KeyIsAppropriate,
	KeyAppropriatenessReasoning,
	KeyShortReasoning,
	ColumnError,
	ColumnRawResponse,
	ColumnExtractedJSON,
}

// Outcome is the result of verifying one breed record: either a
// *ReconciledRecord or an *ErrorRecord.
type Outcome interface {
	// RowIndex is the zero-based position of the source record.
	RowIndex() int
	// Verified reports whether the record passed both verdict flags.
	Verified() bool
	// Row renders the outcome as an output row.
	Row() *Row
}

// ReconciledRecord is a breed record merged with the reviewer's
// corrections and flags.
type ReconciledRecord struct {
	Index                    int
	Fields                   *Row // tracked fields, in TrackedFields order
	IsRealBreed              bool
	ConfidenceScore          float64
	Reasoning                string
	IsAppropriate            bool
	AppropriatenessReasoning string
	ShortReasoning           string
}

func (r *ReconciledRecord) RowIndex() int { return r.Index }

func (r *ReconciledRecord) Verified() bool { return r.IsRealBreed && r.IsAppropriate }

func (r *ReconciledRecord) Row() *Row {
	row := r.Fields.Clone()
	row.Set(KeyIsRealBreed, r.IsRealBreed)
	row.Set(KeyConfidenceScore, r.ConfidenceScore)
	row.Set(KeyReasoning, r.Reasoning)
	row.Set(KeyIsAppropriate, r.IsAppropriate)
	row.Set(KeyAppropriatenessReasoning, r.AppropriatenessReasoning)
	row.Set(KeyShortReasoning, r.ShortReasoning)
	return row
}

// ErrorRecord carries the original record when no verdict was obtained.
type ErrorRecord struct {
	Index         int
	Original      *Row
	Kind          ErrorKind
	RawResponse   string
	ExtractedJSON string
}

// NewErrorRecord builds an error record from the untouched source record.
func NewErrorRecord(rec BreedRecord, kind ErrorKind, raw, extracted string) *ErrorRecord {
	return &ErrorRecord{
		Index:         rec.Index,
		Original:      rec.Fields.Clone(),
		Kind:          kind,
		RawResponse:   raw,
		ExtractedJSON: extracted,
	}
}

func (e *ErrorRecord) RowIndex() int { return e.Index }

// Verified is always false: an error record carries no verdict.
func (e *ErrorRecord) Verified() bool { return false }

func (e *ErrorRecord) Row() *Row {
	row := e.Original.Clone()
	row.Set(ColumnError, string(e.Kind))
	row.Set(ColumnRawResponse, e.RawResponse)
	if e.Kind == ErrorKindParse {
		row.Set(ColumnExtractedJSON, e.ExtractedJSON)
	}
	return row
}
