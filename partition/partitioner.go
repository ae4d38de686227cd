package partition

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"go.uber.org/zap"
	"setsplit-server-go/models"
)

// DefaultSeed keys the per-section shuffle when no seed is configured.
const DefaultSeed uint64 = 42

// SchemaError reports required columns missing from the input table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Options tunes the partitioner.
type Options struct {
	Seed   uint64
	Logger *zap.Logger
}

// Partitioner splits each section of a table across models.SetLabels.
type Partitioner struct {
	seed   uint64
	logger *zap.Logger
}

// New creates a Partitioner. A zero seed falls back to DefaultSeed.
func New(opts Options) *Partitioner {
	p := &Partitioner{seed: opts.Seed, logger: opts.Logger}
	if p.seed == 0 {
		p.seed = DefaultSeed
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// CheckSchema returns a *SchemaError when any required column is absent.
func CheckSchema(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range models.RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Quotas returns how many of n records each label receives. The first n%k
// labels get one extra.
func Quotas(n int) []int {
	k := len(models.SetLabels)
	base, rem := n/k, n%k
	quotas := make([]int, k)
	for i := range quotas {
		quotas[i] = base
		if i < rem {
			quotas[i]++
		}
	}
	return quotas
}

// Shuffle permutes records in place with a Fisher-Yates walk from the last
// index down, drawing j in [0, i] from a PCG generator seeded with
// (seed, seed). The same input order and seed always give the same result.
func Shuffle(records []models.Record, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := len(records) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		records[i], records[j] = records[j], records[i]
	}
}

// PartitionAndAssign validates the table, groups rows by section, shuffles
// each section and assigns contiguous slices to set labels. Sections are
// emitted in ascending order.
func (p *Partitioner) PartitionAndAssign(table *models.Table) ([]models.Record, models.DistributionSummary, error) {
	summary := models.NewDistributionSummary()
	if table == nil {
		table = &models.Table{}
	}
	if err := CheckSchema(table.Columns); err != nil {
		p.logger.Error("Rejected dataset", zap.Error(err))
		return nil, summary, err
	}

	summary.TotalStudents = len(table.Rows)
	p.logger.Info("Partitioning dataset", zap.Int("total_students", summary.TotalStudents))
	if summary.TotalStudents == 0 {
		p.logger.Warn("Empty input dataset, nothing to partition")
		return []models.Record{}, summary, nil
	}

	groups := make(map[string][]models.Record)
	for _, row := range table.Rows {
		rec := models.Record{
			RegNo:   row[models.ColRegNo],
			RollNo:  row[models.ColRollNo],
			Name:    row[models.ColName],
			Section: row[models.ColSection],
			DOB:     row[models.ColDOB],
		}
		groups[rec.Section] = append(groups[rec.Section], rec)
	}
	sections := make([]string, 0, len(groups))
	for sec := range groups {
		sections = append(sections, sec)
	}
	sort.Strings(sections)

	out := make([]models.Record, 0, summary.TotalStudents)
	for _, sec := range sections {
		group := groups[sec]
		quotas := Quotas(len(group))

		summary.SectionCounts[sec] = len(group)
		dist := make(map[string]int, len(models.SetLabels))
		for i, label := range models.SetLabels {
			dist[label] = quotas[i]
		}
		summary.SetDistribution[sec] = dist
		p.logger.Debug("Section distribution plan",
			zap.String("section", sec),
			zap.Int("students", len(group)),
			zap.Ints("quotas", quotas))

		Shuffle(group, p.seed)
		start := 0
		for i, label := range models.SetLabels {
			for _, rec := range group[start : start+quotas[i]] {
				rec.Set = label
				out = append(out, rec)
			}
			start += quotas[i]
		}
	}
	return out, summary, nil
}
