package sqlgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
	"setsplit-server-go/models"
)

const (
	// DefaultTable is the insert target when none is configured.
	DefaultTable = "students"
	// NullMarker renders an absent or unreadable date of birth.
	NullMarker = "NULL"
	dobLayout  = "02-01-2006"
)

// DateParseError is logged when a date of birth cannot be read. The record
// is still emitted with a NULL date.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date of birth %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// Options tunes statement rendering.
type Options struct {
	// EscapeQuotes doubles single quotes inside string values. When false,
	// values are concatenated as-is.
	EscapeQuotes bool
	Logger       *zap.Logger
	// OnDateError, if set, is called for each date that fails to parse.
	OnDateError func(*DateParseError)
}

// Serializer renders partitioned records as insert statements.
type Serializer struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Serializer.
func New(opts Options) *Serializer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{opts: opts, logger: logger}
}

// dayFirstLayouts are tried when dateparse rejects a value.
var dayFirstLayouts = []string{"02-01-2006", "02.01.2006"}

// ParseDOB reads a date of birth in any format dateparse understands.
// Ambiguous slash dates are read month first; when that gives an invalid
// month the day and month are swapped. Dash and dot separated dates are
// read day first.
func ParseDOB(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	t, err := dateparse.ParseIn(v, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err == nil {
		return t, nil
	}
	for _, layout := range dayFirstLayouts {
		if t, perr := time.ParseInLocation(layout, v, time.UTC); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateParseError{Value: value, Err: err}
}

// FormatDOB returns the SQL expression for a date of birth: NULL when the
// value is blank, otherwise STR_TO_DATE with the date as DD-MM-YYYY.
func FormatDOB(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return NullMarker, nil
	}
	t, err := ParseDOB(value)
	if err != nil {
		return NullMarker, err
	}
	return fmt.Sprintf("STR_TO_DATE('%s', '%%d-%%m-%%Y')", t.Format(dobLayout)), nil
}

func (s *Serializer) quote(v string) string {
	if s.opts.EscapeQuotes {
		v = strings.ReplaceAll(v, "'", "''")
	}
	return "'" + v + "'"
}

func (s *Serializer) dob(rec models.Record) string {
	expr, err := FormatDOB(rec.DOB)
	if err != nil {
		s.logger.Error("Error processing DOB",
			zap.String("regNo", rec.RegNo),
			zap.String("dob", rec.DOB),
			zap.Error(err))
		if s.opts.OnDateError != nil {
			var pe *DateParseError
			if errors.As(err, &pe) {
				s.opts.OnDateError(pe)
			}
		}
	}
	return expr
}

// Render builds the insert for a single record.
func (s *Serializer) Render(rec models.Record, table string) models.Statement {
	return models.Statement(fmt.Sprintf(
		"INSERT INTO %s (Reg_no, Roll_no, Name, Sec, DOB, Set) VALUES (%s, %s, %s, %s, %s, %s);",
		table,
		s.quote(rec.RegNo),
		s.quote(rec.RollNo),
		s.quote(rec.Name),
		s.quote(rec.Section),
		s.dob(rec),
		s.quote(rec.Set),
	))
}

// Serialize renders one statement per record, in input order, and the
// newline-joined blob written to the download file.
func (s *Serializer) Serialize(records []models.Record, table string) ([]models.Statement, string) {
	if table == "" {
		table = DefaultTable
	}
	stmts := make([]models.Statement, 0, len(records))
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		stmt := s.Render(rec, table)
		stmts = append(stmts, stmt)
		lines = append(lines, string(stmt))
	}
	return stmts, strings.Join(lines, "\n")
}
