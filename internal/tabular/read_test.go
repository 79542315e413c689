package tabular

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwex/breedcheck/internal/model"
)

const sampleCSV = `name,origin,eggColor,eggSize,eggNumber,temperment,description,imageUrl
Rhode Island Red,USA,Brown,Large,250,Docile,"A dual-purpose breed, known for its egg laying ability.",http://example.com/rhode_island_red.jpg
Imaginary Chicken,Mars,Green,Small,10,Aggressive,"A chicken from outer space, lays glowing green eggs.",http://example.com/imaginary_chicken.jpg
`

func TestReadRecords_CSV(t *testing.T) {
	path := writeTempFile(t, "input_breeds.csv", []byte(sampleCSV))

	recs, err := ReadRecords(path, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, 0, recs[0].Index)
	assert.Equal(t, 1, recs[1].Index)
	assert.Equal(t, "Imaginary Chicken", recs[1].Name())
	assert.Equal(t, model.TrackedFields, recs[0].Fields.Keys())

	egg, ok := recs[1].Value(model.FieldEggNumber)
	require.True(t, ok)
	assert.Equal(t, int64(10), egg)
}

func TestReadRecords_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"name", "eggNumber"},
			{"Silkie", "100"},
		},
	})

	recs, err := ReadRecords(path, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Silkie", recs[0].Name())
}

func TestReadRecords_DropColumns(t *testing.T) {
	data := "name,origin,ollama_error,raw_ollama_response,is_real_breed\nSilkie,China,API call failed,No response from Ollama API,\n"
	path := writeTempFile(t, "failed_breeds.csv", []byte(data))

	recs, err := ReadRecords(path, ReadOptions{DropColumns: model.OutputOnlyColumns})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"name", "origin"}, recs[0].Fields.Keys())
}

func TestReadRecords_MissingInput(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "input_breeds.csv"), ReadOptions{})
	require.Error(t, err)
}

func TestReadRecords_HeaderOnly(t *testing.T) {
	path := writeTempFile(t, "h.csv", []byte("name,origin\n"))

	recs, err := ReadRecords(path, ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
