package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"setsplit-server-go/models"
)

func TestFormatDOB(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"iso date", "2001-05-17", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"iso with time", "2001-05-17 00:00:00", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"slash month first", "05/17/2001", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"slash day first", "17/05/2001", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"dash day first", "17-05-2001", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"dot day first", "17.05.2001", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"compact digits", "20010517", "STR_TO_DATE('17-05-2001', '%d-%m-%Y')"},
		{"padded", "  1999-12-31 ", "STR_TO_DATE('31-12-1999', '%d-%m-%Y')"},
		{"missing", "", NullMarker},
		{"blank", "   ", NullMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatDOB(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDOB_Unparseable(t *testing.T) {
	got, err := FormatDOB("not a date")
	assert.Equal(t, NullMarker, got)
	var pe *DateParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not a date", pe.Value)
}

func TestRender(t *testing.T) {
	s := New(Options{EscapeQuotes: true})
	rec := models.Record{RegNo: "R1", RollNo: "11", Name: "Asha", Section: "X", DOB: "2001-05-17", Set: "B"}
	got := s.Render(rec, "students")
	assert.Equal(t, models.Statement(
		"INSERT INTO students (Reg_no, Roll_no, Name, Sec, DOB, Set) VALUES "+
			"('R1', '11', 'Asha', 'X', STR_TO_DATE('17-05-2001', '%d-%m-%Y'), 'B');"), got)
}

func TestRender_MissingDOBIsBareNull(t *testing.T) {
	s := New(Options{})
	got := string(s.Render(models.Record{RegNo: "R1", RollNo: "1", Name: "N", Section: "X", Set: "A"}, "students"))
	assert.Contains(t, got, "'X', NULL, 'A');")
	assert.NotContains(t, got, "''")
}

func TestRender_QuoteHandling(t *testing.T) {
	rec := models.Record{RegNo: "R1", RollNo: "1", Name: "D'Souza", Section: "X", Set: "A"}

	escaped := string(New(Options{EscapeQuotes: true}).Render(rec, "students"))
	assert.Contains(t, escaped, "'D''Souza'")

	naive := string(New(Options{EscapeQuotes: false}).Render(rec, "students"))
	assert.Contains(t, naive, "'D'Souza'")
}

func TestSerialize(t *testing.T) {
	var failures []*DateParseError
	s := New(Options{EscapeQuotes: true, OnDateError: func(e *DateParseError) { failures = append(failures, e) }})
	records := []models.Record{
		{RegNo: "1", RollNo: "1", Name: "A", Section: "X", DOB: "2001-05-17", Set: "A"},
		{RegNo: "2", RollNo: "2", Name: "B", Section: "X", DOB: "garbage", Set: "B"},
		{RegNo: "3", RollNo: "3", Name: "C", Section: "Y", DOB: "", Set: "A"},
	}
	stmts, blob := s.Serialize(records, "")
	require.Len(t, stmts, len(records))
	for i, stmt := range stmts {
		assert.True(t, strings.HasPrefix(string(stmt), "INSERT INTO students "))
		assert.Contains(t, string(stmt), "('"+records[i].RegNo+"',")
	}
	assert.Contains(t, string(stmts[1]), "'X', NULL, 'B');")
	require.Len(t, failures, 1)
	assert.Equal(t, "garbage", failures[0].Value)

	lines := strings.Split(blob, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, string(stmts[2]), lines[2])
	assert.False(t, strings.HasSuffix(blob, "\n"))
}

func TestSerialize_Empty(t *testing.T) {
	stmts, blob := New(Options{}).Serialize(nil, "students")
	assert.Empty(t, stmts)
	assert.Equal(t, "", blob)
}

func TestSerialize_CustomTable(t *testing.T) {
	stmts, _ := New(Options{}).Serialize([]models.Record{{RegNo: "1", Set: "A"}}, "exam_sets")
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(string(stmts[0]), "INSERT INTO exam_sets "))
}
