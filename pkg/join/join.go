package join

import (
	"os"

	"github.com/google/uuid"

	"simjoin/pkg/logging"
	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/tokenize"
	"simjoin/pkg/types"
	"simjoin/pkg/validate"
)

// Jaccard joins two tables on the Jaccard similarity of the token sets
// derived from their join attributes. See SetSim for the full contract.
func Jaccard(ltable, rtable *relation.Relation, lKeyAttr, rKeyAttr, lJoinAttr, rJoinAttr string,
	tk tokenize.Tokenizer, threshold float64, opts *Options) (*relation.Relation, error) {
	return SetSim(ltable, rtable, lKeyAttr, rKeyAttr, lJoinAttr, rJoinAttr, tk, similarity.Jaccard, threshold, opts)
}

// SetSim finds every pair of rows whose similarity between the join
// attribute token sets satisfies the configured comparison against the
// threshold, and emits it with the key values, the requested projected
// attributes and optionally the score.
//
// With Options.OutputFile empty the result is returned as an in-memory
// table whose first column is a zero-based sequential identifier. With
// OutputFile set the result is streamed through a scratch spool file,
// finalized into OutputFile, and a nil table is returned. Exactly one of
// the two output modes is active per run and the observable pairs are the
// same in both.
//
// Row order is deterministic for a fixed job count: main-join pairs in
// partition order, then missing-value pairs. Different job counts may order
// rows differently but always produce the same set of pairs.
func SetSim(ltable, rtable *relation.Relation, lKeyAttr, rKeyAttr, lJoinAttr, rJoinAttr string,
	tk tokenize.Tokenizer, measure similarity.Measure, threshold float64, opts *Options) (*relation.Relation, error) {

	o := opts.normalized()

	// Validation happens before any partitioning, dispatch or temp file
	// creation; a validation failure leaves no trace on disk.
	if err := validate.InputRelation(ltable, "left"); err != nil {
		return nil, err
	}
	if err := validate.InputRelation(rtable, "right"); err != nil {
		return nil, err
	}
	if err := validate.Attr(ltable, lKeyAttr, "key attribute", "left"); err != nil {
		return nil, err
	}
	if err := validate.Attr(rtable, rKeyAttr, "key attribute", "right"); err != nil {
		return nil, err
	}
	if err := validate.Attr(ltable, lJoinAttr, "join attribute", "left"); err != nil {
		return nil, err
	}
	if err := validate.Attr(rtable, rJoinAttr, "join attribute", "right"); err != nil {
		return nil, err
	}
	if err := validate.JoinAttrType(ltable, lJoinAttr, "left"); err != nil {
		return nil, err
	}
	if err := validate.JoinAttrType(rtable, rJoinAttr, "right"); err != nil {
		return nil, err
	}
	if err := validate.Tokenizer(tk); err != nil {
		return nil, err
	}
	if err := validate.Threshold(measure, threshold); err != nil {
		return nil, err
	}
	if err := validate.CompOp(measure, o.CompOp); err != nil {
		return nil, err
	}
	if err := validate.OutputAttrs(o.LOutAttrs, ltable, o.ROutAttrs, rtable); err != nil {
		return nil, err
	}
	if err := validate.KeyAttr(ltable, lKeyAttr, "left"); err != nil {
		return nil, err
	}
	if err := validate.KeyAttr(rtable, rKeyAttr, "right"); err != nil {
		return nil, err
	}

	// The kernel needs set semantics. Deriving a set-mode tokenizer is a
	// pure value operation; the caller's tokenizer is left untouched.
	if !tk.ReturnsSet() {
		tk = tk.AsSet()
	}

	lOutAttrs := removeRedundantAttrs(o.LOutAttrs, lKeyAttr)
	rOutAttrs := removeRedundantAttrs(o.ROutAttrs, rKeyAttr)

	header := outputHeader(lKeyAttr, rKeyAttr, lOutAttrs, rOutAttrs, &o)
	outSchema, err := outputSchema(header, o.OutSimScore)
	if err != nil {
		return nil, err
	}

	lSnap, err := buildSnapshot(ltable, lKeyAttr, lJoinAttr, lOutAttrs)
	if err != nil {
		return nil, sjerr.Wrap(err, sjerr.CategoryValidation, "SNAPSHOT_FAILED", "BuildSnapshot", "Snapshot")
	}
	rSnap, err := buildSnapshot(rtable, rKeyAttr, rJoinAttr, rOutAttrs)
	if err != nil {
		return nil, sjerr.Wrap(err, sjerr.CategoryValidation, "SNAPSHOT_FAILED", "BuildSnapshot", "Snapshot")
	}

	n := resolveJobs(o.NJobs, rSnap.Len())

	runID := uuid.NewString()
	log := logging.WithRun(runID)
	temps := &tempRegistry{}
	defer temps.cleanup(log)

	fileMode := o.OutputFile != ""

	var runSpool *spoolWriter
	if fileMode {
		runSpool, err = newSpool(o.ScratchDir, "run", o.FlushAfter)
		if err != nil {
			return nil, err
		}
		temps.register(runSpool.path)
		if err := runSpool.writeHeader(header); err != nil {
			runSpool.close()
			return nil, err
		}
	}

	parts := partitionRows(rSnap, n)
	params := kernelParams{
		tokenizer:    tk,
		measure:      measure,
		threshold:    threshold,
		compOp:       o.CompOp,
		allowEmpty:   o.AllowEmpty,
		nLOut:        len(lOutAttrs),
		nROut:        len(rOutAttrs),
		outSimScore:  o.OutSimScore,
		showProgress: o.ShowProgress,
	}

	log.Info("set-sim join started",
		"measure", measure.String(), "threshold", threshold, "comp_op", o.CompOp.String(),
		"left_rows", lSnap.Len(), "right_rows", rSnap.Len(), "jobs", n)

	var merged *relation.Relation
	if fileMode && n == 1 {
		// A single writer owns the whole stream; the kernel spools into
		// the run file directly.
		if _, err := runKernel(lSnap, parts[0], params, outSchema, runSpool, logging.WithJob(runID, 0)); err != nil {
			runSpool.close()
			return nil, sjerr.Wrap(err, sjerr.CategoryWorker, "JOB_FAILED", "Dispatch", "Dispatcher")
		}
	} else {
		d := &dispatcher{
			runID:      runID,
			outSchema:  outSchema,
			scratchDir: o.ScratchDir,
			flushAfter: (o.FlushAfter + n - 1) / n,
			fileMode:   fileMode,
			temps:      temps,
		}
		results, err := d.dispatch(lSnap, parts, params)
		if err != nil {
			if fileMode {
				runSpool.close()
			}
			return nil, err
		}

		if fileMode {
			// Concatenate the per-job fragments into the run spool in job
			// order, then drop them. A merge failure is fatal; a failed
			// fragment deletion is not.
			for _, res := range results {
				if err := runSpool.appendFile(res.spoolPath); err != nil {
					runSpool.close()
					return nil, err
				}
			}
			for _, res := range results {
				if err := os.Remove(res.spoolPath); err != nil {
					log.Warn("failed to remove job spool", "path", res.spoolPath, "error", err)
				}
			}
		} else {
			merged = relation.New(outSchema)
			for _, res := range results {
				if err := merged.Concat(res.table); err != nil {
					return nil, sjerr.Wrap(err, sjerr.CategoryWorker, "MERGE_FAILED", "Merge", "Merger")
				}
			}
		}
	}

	if o.AllowMissing {
		mp, err := newMissingPairer(ltable, rtable, lKeyAttr, rKeyAttr, lJoinAttr, rJoinAttr,
			lOutAttrs, rOutAttrs, o.OutSimScore, outSchema)
		if err != nil {
			if fileMode {
				runSpool.close()
			}
			return nil, err
		}
		var sink *spoolWriter
		if fileMode {
			sink = runSpool
		}
		missing, err := mp.pairs(ltable, rtable, sink, log)
		if err != nil {
			if fileMode {
				runSpool.close()
			}
			return nil, err
		}
		if !fileMode {
			if err := merged.Concat(missing); err != nil {
				return nil, sjerr.Wrap(err, sjerr.CategoryWorker, "MERGE_FAILED", "Merge", "Merger")
			}
		}
	}

	if fileMode {
		if err := runSpool.close(); err != nil {
			return nil, err
		}
		if err := finalizeWithID(runSpool.path, o.OutputFile); err != nil {
			return nil, err
		}
		log.Info("set-sim join finished", "output", o.OutputFile)
		return nil, nil
	}

	final, err := withIDColumn(merged, header)
	if err != nil {
		return nil, err
	}
	log.Info("set-sim join finished", "pairs", final.Len())
	return final, nil
}

// outputSchema builds the schema of the output table before identifier
// assignment: all columns are strings except the trailing score column.
func outputSchema(header []string, outSimScore bool) (*relation.Schema, error) {
	colTypes := make([]types.Type, len(header))
	if outSimScore {
		colTypes[len(colTypes)-1] = types.FloatType
	}
	return relation.NewSchema(header, colTypes)
}

// withIDColumn returns a new table with a zero-based sequential identifier
// prepended as the first column, in the row order of merged.
func withIDColumn(merged *relation.Relation, header []string) (*relation.Relation, error) {
	idHeader := append([]string{idColumn}, header...)
	idTypes := make([]types.Type, len(idHeader))
	idTypes[0] = types.IntType
	copy(idTypes[1:], merged.Schema.Types)

	schema, err := relation.NewSchema(idHeader, idTypes)
	if err != nil {
		return nil, err
	}

	final := relation.New(schema)
	final.Rows = make([][]types.Value, 0, merged.Len())
	for i, row := range merged.Rows {
		withID := make([]types.Value, 0, len(row)+1)
		withID = append(withID, types.NewIntValue(int64(i)))
		withID = append(withID, row...)
		final.Rows = append(final.Rows, withID)
	}
	return final, nil
}
