package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "age,outcome_death\n70,1\n42,0\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"age", "outcome_death"}, table.ColumnNames())

	ages, err := table.Column("age")
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 42}, ages)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = ReadCSV(writeCSV(t, "age\n"))
	assert.Error(t, err)

	_, err = ReadCSV(writeCSV(t, "age\nnot_a_number\n"))
	assert.Error(t, err)
}
