package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the current state of a verification run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the verifier, as kept in run history.
type Run struct {
	ID        string     `json:"id" yaml:"id"`
	InputPath string     `json:"input_path" yaml:"input_path"`
	Model     string     `json:"model" yaml:"model"`
	Status    RunStatus  `json:"status" yaml:"status"`
	Result    *RunResult `json:"result,omitempty" yaml:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

// RunResult holds the counts of a finished run.
type RunResult struct {
	Total      int               `json:"total" yaml:"total"`
	Verified   int               `json:"verified" yaml:"verified"`
	Failed     int               `json:"failed" yaml:"failed"`
	ErrorKinds map[ErrorKind]int `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// VerificationEntry is the stored result of one record within a run.
type VerificationEntry struct {
	RunID    string    `json:"run_id"`
	RowIndex int       `json:"row_index"`
	Name     string    `json:"name"`
	Verified bool      `json:"verified"`
	Error    ErrorKind `json:"error,omitempty"`
	// Data is the output row as a JSON object in column order.
	Data json.RawMessage `json:"data"`
}

// NewVerificationEntry summarizes an outcome for run history.
func NewVerificationEntry(runID string, o Outcome) (VerificationEntry, error) {
	row := o.Row()
	data, err := row.MarshalJSON()
	if err != nil {
		return VerificationEntry{}, err
	}
	e := VerificationEntry{
		RunID:    runID,
		RowIndex: o.RowIndex(),
		Verified: o.Verified(),
		Data:     data,
	}
	if v, _ := row.Get(FieldName); v != nil {
		if name, ok := v.(string); ok {
			e.Name = name
		}
	}
	if er, ok := o.(*ErrorRecord); ok {
		e.Error = er.Kind
	}
	return e, nil
}
