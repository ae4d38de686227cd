package processor

import (
	"time"

	"go.uber.org/zap"
	"setsplit-server-go/metrics"
	"setsplit-server-go/models"
	"setsplit-server-go/partition"
	"setsplit-server-go/sqlgen"
)

// Options configures a Processor.
type Options struct {
	Seed         uint64
	TableName    string
	EscapeQuotes bool
	Logger       *zap.Logger
	Metrics      *metrics.Collector // optional
}

// Output is everything produced for one dataset.
type Output struct {
	Records    []models.Record
	Statements []models.Statement
	SQL        string
	Summary    models.DistributionSummary
}

// Processor runs the partition then serialize pipeline.
type Processor struct {
	partitioner *partition.Partitioner
	serializer  *sqlgen.Serializer
	table       string
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// New creates a Processor.
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	table := opts.TableName
	if table == "" {
		table = sqlgen.DefaultTable
	}
	p := &Processor{
		partitioner: partition.New(partition.Options{Seed: opts.Seed, Logger: logger}),
		table:       table,
		logger:      logger,
		metrics:     opts.Metrics,
	}
	sopts := sqlgen.Options{EscapeQuotes: opts.EscapeQuotes, Logger: logger}
	if opts.Metrics != nil {
		sopts.OnDateError = func(*sqlgen.DateParseError) { opts.Metrics.DateParseFailed() }
	}
	p.serializer = sqlgen.New(sopts)
	return p
}

// Process partitions the table and renders its statements. On error nothing
// partial is returned.
func (p *Processor) Process(table *models.Table) (*Output, error) {
	start := time.Now()
	records, summary, err := p.partitioner.PartitionAndAssign(table)
	if err != nil {
		return nil, err
	}
	stmts, blob := p.serializer.Serialize(records, p.table)

	if p.metrics != nil {
		p.metrics.RecordsPartitioned(len(records))
		p.metrics.ObserveProcessing(time.Since(start).Seconds())
	}
	p.logger.Info("Generated SQL statements",
		zap.Int("statements", len(stmts)),
		zap.Int("sections", len(summary.SectionCounts)),
		zap.Duration("elapsed", time.Since(start)))

	return &Output{Records: records, Statements: stmts, SQL: blob, Summary: summary}, nil
}
