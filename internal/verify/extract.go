package verify

import (
	"encoding/json"
	"regexp"

	"github.com/qwex/breedcheck/internal/model"
)

// ExtractFailure identifies why a verdict could not be read from a
// model response.
type ExtractFailure int

const (
	ExtractNoResponse ExtractFailure = iota + 1
	ExtractBlockNotFound
	ExtractParseFailure
)

func (f ExtractFailure) String() string {
	switch f {
	case ExtractNoResponse:
		return "no response"
	case ExtractBlockNotFound:
		return "JSON block not found"
	case ExtractParseFailure:
		return "JSON parse failure"
	default:
		return "unknown"
	}
}

// ErrorKind maps the failure to the tag written on the error record.
func (f ExtractFailure) ErrorKind() model.ErrorKind {
	switch f {
	case ExtractBlockNotFound:
		return model.ErrorKindBlockMissing
	case ExtractParseFailure:
		return model.ErrorKindParse
	default:
		return model.ErrorKindAPICall
	}
}

// ExtractionError keeps the raw material needed to debug a failed
// extraction without querying the model again.
type ExtractionError struct {
	Failure   ExtractFailure
	Raw       string // full model response
	Extracted string // fenced block contents, set for parse failures
	Err       error  // JSON decoder error, set for parse failures
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return "extract: " + e.Failure.String() + ": " + e.Err.Error()
	}
	return "extract: " + e.Failure.String()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// jsonFence matches a fenced block tagged json. The tag must be followed
// by a line break; the block ends at the next fence.
var jsonFence = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)```")

// FindJSONBlock returns the contents of the first ```json fenced block in
// text, ignoring any prose around it.
func FindJSONBlock(text string) (string, bool) {
	m := jsonFence.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractVerdict parses the verdict object embedded in a model response.
// Only JSON validity is checked; missing keys are left for the reconciler.
func ExtractVerdict(text string) (model.Verdict, *ExtractionError) {
	if text == "" {
		return nil, &ExtractionError{Failure: ExtractNoResponse, Raw: text}
	}

	block, ok := FindJSONBlock(text)
	if !ok {
		return nil, &ExtractionError{Failure: ExtractBlockNotFound, Raw: text}
	}

	var verdict model.Verdict
	if err := json.Unmarshal([]byte(block), &verdict); err != nil {
		return nil, &ExtractionError{Failure: ExtractParseFailure, Raw: text, Extracted: block, Err: err}
	}
	if verdict == nil {
		// A bare null decodes without error but is not an object.
		return nil, &ExtractionError{Failure: ExtractParseFailure, Raw: text, Extracted: block}
	}
	return verdict, nil
}
