package join

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/tokenize"
	"simjoin/pkg/types"
)

// tokenCacheSize bounds the per-job token memo. Attribute values repeat
// often in real tables; memoizing tokenization avoids recomputing them.
const tokenCacheSize = 4096

// progressEvery is the row interval between progress log lines.
const progressEvery = 10000

// tokenCache memoizes set-mode tokenization keyed by the raw attribute
// value. One cache per job; never shared across goroutines.
type tokenCache struct {
	tk    tokenize.Tokenizer
	cache *lru.Cache[string, []string]
}

func newTokenCache(tk tokenize.Tokenizer) *tokenCache {
	cache, err := lru.New[string, []string](tokenCacheSize)
	if err != nil {
		// lru.New fails only on non-positive size.
		panic(err)
	}
	return &tokenCache{tk: tk, cache: cache}
}

func (c *tokenCache) tokens(v types.Value) []string {
	if v.Missing {
		return nil
	}
	if toks, ok := c.cache.Get(v.Raw); ok {
		return toks
	}
	toks := c.tk.Tokenize(v.Raw)
	c.cache.Add(v.Raw, toks)
	return toks
}

// kernelParams carries the immutable per-job copy of all join parameters.
type kernelParams struct {
	tokenizer    tokenize.Tokenizer // always in set mode
	measure      similarity.Measure
	threshold    float64
	compOp       similarity.CompOp
	allowEmpty   bool
	nLOut, nROut int
	outSimScore  bool
	showProgress bool
}

// runKernel joins the full left snapshot against one right partition. With
// sink == nil the qualifying pairs are returned as an in-memory partial
// result; otherwise every pair is appended to the job's private spool file
// and a nil table is returned.
//
// The kernel verifies every left-right pair; a token-count bound is the
// only cheap reject, no candidate index is built.
func runKernel(left *snapshot, right [][]types.Value, p kernelParams,
	outSchema *relation.Schema, sink *spoolWriter, log *slog.Logger) (*relation.Relation, error) {

	cache := newTokenCache(p.tokenizer)

	// Left token sets are reused for every right row; compute them once.
	lTokens := make([][]string, len(left.rows))
	for i, row := range left.rows {
		lTokens[i] = cache.tokens(row[snapJoinCol])
	}

	var result *relation.Relation
	if sink == nil {
		result = relation.New(outSchema)
	}

	if p.showProgress {
		log.Info("kernel started", "left_rows", len(left.rows), "right_rows", len(right))
	}

	for ri, rRow := range right {
		rToks := cache.tokens(rRow[snapJoinCol])

		for li, lRow := range left.rows {
			lToks := lTokens[li]

			var score float64
			switch {
			case len(lToks) == 0 && len(rToks) == 0:
				if !p.allowEmpty {
					continue
				}
				score = 1.0
			case len(lToks) == 0 || len(rToks) == 0:
				continue
			default:
				// Jaccard cannot exceed min/max of the set sizes, so pairs
				// below threshold are rejected without computing the
				// overlap. The bound does not hold for Dice or Cosine.
				if p.measure == similarity.Jaccard && p.compOp != similarity.Equal {
					small, large := len(lToks), len(rToks)
					if small > large {
						small, large = large, small
					}
					if float64(small)/float64(large) < p.threshold {
						continue
					}
				}
				score = similarity.Score(p.measure, lToks, rToks)
			}

			if !p.compOp.Satisfies(score, p.threshold) {
				continue
			}

			row := buildPairRow(lRow, rRow, p.nLOut, p.nROut, p.outSimScore, types.NewFloatValue(score))
			if sink != nil {
				if err := sink.appendRecord(recordOf(row)); err != nil {
					return nil, err
				}
			} else if err := result.AppendRow(row); err != nil {
				return nil, sjerr.Wrap(err, sjerr.CategoryWorker, "KERNEL_APPEND_FAILED", "RunKernel", "Kernel")
			}
		}

		if p.showProgress && (ri+1)%progressEvery == 0 {
			log.Info("kernel progress", "right_rows_done", ri+1, "right_rows", len(right))
		}
	}

	if p.showProgress {
		log.Info("kernel finished", "right_rows", len(right))
	}
	return result, nil
}

// buildPairRow assembles one output row: left key, right key, projected
// left values, projected right values, then the score cell if requested.
func buildPairRow(lRow, rRow []types.Value, nLOut, nROut int, outScore bool, score types.Value) []types.Value {
	row := make([]types.Value, 0, 2+nLOut+nROut+1)
	row = append(row, lRow[snapKeyCol], rRow[snapKeyCol])
	row = append(row, lRow[snapOutBase:snapOutBase+nLOut]...)
	row = append(row, rRow[snapOutBase:snapOutBase+nROut]...)
	if outScore {
		row = append(row, score)
	}
	return row
}

// recordOf renders a row as CSV fields, missing values as empty cells.
func recordOf(row []types.Value) []string {
	record := make([]string, len(row))
	for i, v := range row {
		record[i] = v.String()
	}
	return record
}
