package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"setsplit-server-go/models"
)

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "students.xlsx")
	out := filepath.Join(dir, "insert_students.sql")

	f := excelize.NewFile()
	rows := [][]any{
		{"Reg_no", "Roll_no", "Name", "Sec", "DOB"},
		{"R1", 1, "Asha", "X", "2001-05-17"},
		{"R2", 2, "O'Neil", "X", ""},
		{"R3", 3, "Chen", "Y", "05/17/2001"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"convert", in, "--out", out, "--config", filepath.Join(dir, "missing.yaml"), "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, string(data), "'O''Neil', 'X', NULL,")
	assert.Equal(t, 2, strings.Count(string(data), "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"))

	var summary models.DistributionSummary
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, map[string]int{"X": 2, "Y": 1}, summary.SectionCounts)
}

func TestWriteSQLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.sql")
	require.NoError(t, writeSQLFile(path, "INSERT INTO students ...;"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO students ...;", string(data))

	err = writeSQLFile(filepath.Join(dir, "missing", "out.sql"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create")
}

func TestConvertCommand_UnwritableOut(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "students.xlsx")
	f := excelize.NewFile()
	header := []any{"Reg_no", "Roll_no", "Name", "Sec", "DOB"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"convert", in, "--out", filepath.Join(dir, "nope", "out.sql"), "--config", filepath.Join(dir, "missing.yaml"), "--log-level", "error"})
	assert.Error(t, rootCmd.Execute())
}
