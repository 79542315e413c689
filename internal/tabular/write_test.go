package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwex/breedcheck/internal/model"
)

func TestColumns_UnionInFirstAppearanceOrder(t *testing.T) {
	rows := []*model.Row{
		model.NewRow(model.Cell{Key: "name", Value: "A"}, model.Cell{Key: "is_real_breed", Value: false}),
		model.NewRow(model.Cell{Key: "name", Value: "B"}, model.Cell{Key: "ollama_error", Value: "API call failed"}),
		model.NewRow(model.Cell{Key: "is_real_breed", Value: true}, model.Cell{Key: "origin", Value: "X"}),
	}

	assert.Equal(t, []string{"name", "is_real_breed", "ollama_error", "origin"}, Columns(rows))
	assert.Empty(t, Columns(nil))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Docile", "Docile"},
		{"true", true, "True"},
		{"false", false, "False"},
		{"float", 0.95, "0.95"},
		{"whole float", 250.0, "250"},
		{"zero float", 0.0, "0"},
		{"unclamped float", 1.5, "1.5"},
		{"int64", int64(180), "180"},
		{"int", 7, "7"},
		{"other", []string{"a"}, "[a]"},
		{"object", map[string]any{"text": "a & b"}, `{"text":"a & b"}`},
		{"list", []any{"x", 1.0}, `["x",1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := []*model.Row{
		model.NewRow(model.Cell{Key: "name", Value: "Silkie"}, model.Cell{Key: "eggNumber", Value: int64(100)}),
		model.NewRow(model.Cell{Key: "name", Value: "Mystery, the bird"}, model.Cell{Key: "ollama_error", Value: "JSON parsing failed"}),
	}

	require.NoError(t, WriteCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "eggNumber", "ollama_error"},
		{"Silkie", "100", ""},
		{"Mystery, the bird", "", "JSON parsing failed"},
	}, records)
}

func TestWriteCSV_BadPath(t *testing.T) {
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create file")
}
