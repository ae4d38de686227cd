package models

import "time"

// Spreadsheet column names every upload must carry.
const (
	ColRegNo   = "Reg_no"
	ColRollNo  = "Roll_no"
	ColName    = "Name"
	ColSection = "Sec"
	ColDOB     = "DOB"
)

// RequiredColumns lists the columns a student sheet must contain.
var RequiredColumns = []string{ColRegNo, ColRollNo, ColName, ColSection, ColDOB}

// SetLabels are the groups each section is split across, in assignment order.
var SetLabels = []string{"A", "B", "C", "D", "E"}

// Table is a decoded spreadsheet: a header plus one column->value map per row
type Table struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Record represents a student row
type Record struct {
	RegNo   string `json:"regNo"`   // Registration number
	RollNo  string `json:"rollNo"`  // Roll number
	Name    string `json:"name"`    // Student name
	Section string `json:"section"` // Section, the grouping key
	DOB     string `json:"dob"`     // Date of birth as read, empty when absent
	Set     string `json:"set"`     // Assigned set label, empty until partitioned
}

// DistributionSummary reports how a dataset was split
type DistributionSummary struct {
	TotalStudents   int                       `json:"total_students"`
	SectionCounts   map[string]int            `json:"section_counts"`
	SetDistribution map[string]map[string]int `json:"set_distribution"`
}

// NewDistributionSummary returns an empty summary with non-nil maps
func NewDistributionSummary() DistributionSummary {
	return DistributionSummary{
		SectionCounts:   map[string]int{},
		SetDistribution: map[string]map[string]int{},
	}
}

// Statement is one rendered insert
type Statement string

// Result is a processed upload, retrievable later by ID
type Result struct {
	ID              string              `json:"id"`
	CreatedAt       time.Time           `json:"createdAt"`
	SQL             string              `json:"-"`
	Summary         DistributionSummary `json:"distribution_info"`
	TotalStatements int                 `json:"total_statements"`
}
