package join

import (
	"runtime"

	"simjoin/pkg/similarity"
)

// Options configures a join run. The zero value is not usable; start from
// DefaultOptions and override.
type Options struct {
	// CompOp is the comparison applied between score and threshold.
	CompOp similarity.CompOp

	// AllowEmpty includes pairs whose token sets are both empty, with a
	// score of exactly 1.0.
	AllowEmpty bool

	// AllowMissing enables the missing-value completion pass: a row with a
	// missing join attribute is paired with every row of the other table.
	AllowMissing bool

	// LOutAttrs and ROutAttrs are the attributes of each input table to
	// carry into the output, beyond the key attributes.
	LOutAttrs []string
	ROutAttrs []string

	// LOutPrefix and ROutPrefix prefix output column names sourced from
	// the left and right table respectively.
	LOutPrefix string
	ROutPrefix string

	// OutSimScore appends a `_sim_score` column holding the similarity of
	// each output pair.
	OutSimScore bool

	// NJobs is the requested parallelism. Values below zero mean
	// NumCPU+1+NJobs; the effective job count is clamped to
	// [1, right table row count].
	NJobs int

	// ShowProgress enables progress log lines. With multiple jobs, only
	// the job holding the last partition reports progress.
	ShowProgress bool

	// OutputFile, when set, switches the run to disk-backed output: rows
	// are spooled to a scratch file and finalized into this destination.
	// When empty, the run returns an in-memory table.
	OutputFile string

	// ScratchDir is the directory for spool files. Empty means the
	// system temp directory.
	ScratchDir string

	// FlushAfter is the number of buffered rows after which a spool
	// buffer is flushed to disk. Only meaningful with OutputFile.
	FlushAfter int
}

// DefaultOptions returns the option defaults: '>=' comparison, empty pairs
// allowed, missing pairs excluded, "l_"/"r_" prefixes, score column
// included, one job, progress on, in-memory output, flush threshold 10.
func DefaultOptions() *Options {
	return &Options{
		CompOp:       similarity.GreaterEqual,
		AllowEmpty:   true,
		AllowMissing: false,
		LOutPrefix:   "l_",
		ROutPrefix:   "r_",
		OutSimScore:  true,
		NJobs:        1,
		ShowProgress: true,
		FlushAfter:   10,
	}
}

// normalized returns a defensive copy of o with empty fields defaulted.
// A nil receiver yields DefaultOptions.
func (o *Options) normalized() Options {
	if o == nil {
		return *DefaultOptions()
	}
	out := *o
	out.LOutAttrs = append([]string(nil), o.LOutAttrs...)
	out.ROutAttrs = append([]string(nil), o.ROutAttrs...)
	if out.LOutPrefix == "" {
		out.LOutPrefix = "l_"
	}
	if out.ROutPrefix == "" {
		out.ROutPrefix = "r_"
	}
	if out.FlushAfter <= 0 {
		out.FlushAfter = 10
	}
	return out
}

// resolveJobs computes the effective job count from the requested
// parallelism and the right table's row count. Negative requests follow the
// NumCPU+1+requested convention. The result is clamped to the row count
// first, so an empty right snapshot always collapses to a single serial
// job; the result is always in [1, max(rightRows, 1)].
func resolveJobs(requested, rightRows int) int {
	n := requested
	if n < 0 {
		n = runtime.NumCPU() + 1 + n
	}
	if n > rightRows {
		n = rightRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// removeRedundantAttrs drops output attributes equal to the key attribute;
// the key is always part of the output already.
func removeRedundantAttrs(outAttrs []string, keyAttr string) []string {
	var kept []string
	for _, attr := range outAttrs {
		if attr == keyAttr {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// scoreColumn is the name of the optional similarity score output column.
const scoreColumn = "_sim_score"

// idColumn is the name of the sequential identifier output column.
const idColumn = "_id"

// outputHeader builds the output column names: prefixed key columns,
// prefixed projected columns, then the score column if requested. The
// identifier column is not part of the header; it is injected during
// finalization.
func outputHeader(lKeyAttr, rKeyAttr string, lOutAttrs, rOutAttrs []string, o *Options) []string {
	header := make([]string, 0, 3+len(lOutAttrs)+len(rOutAttrs))
	header = append(header, o.LOutPrefix+lKeyAttr, o.ROutPrefix+rKeyAttr)
	for _, attr := range lOutAttrs {
		header = append(header, o.LOutPrefix+attr)
	}
	for _, attr := range rOutAttrs {
		header = append(header, o.ROutPrefix+attr)
	}
	if o.OutSimScore {
		header = append(header, scoreColumn)
	}
	return header
}
