package join

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"simjoin/pkg/logging"
	"simjoin/pkg/relation"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/types"
)

// dispatchResult holds one job's output: an in-memory partial result, or
// the path of the job's private spool file.
type dispatchResult struct {
	table     *relation.Relation
	spoolPath string
}

// dispatcher runs the kernel once per partition and collects partial
// results in partition order.
type dispatcher struct {
	runID      string
	outSchema  *relation.Schema
	scratchDir string
	flushAfter int // per-job flush threshold, pre-scaled by the caller
	fileMode   bool
	temps      *tempRegistry
}

// dispatch executes one kernel call per partition. With a single partition
// the kernel runs in the caller's goroutine; otherwise each partition
// becomes an independent errgroup task with its own immutable parameter
// copy, writing to its own result slot or its own private spool file. Only
// the job owning the last partition keeps progress reporting. If any task
// fails, the whole dispatch fails; nothing is salvaged and nothing is
// retried.
func (d *dispatcher) dispatch(left *snapshot, parts [][][]types.Value, p kernelParams) ([]dispatchResult, error) {
	n := len(parts)
	results := make([]dispatchResult, n)

	if n == 1 {
		res, err := d.runJob(left, parts[0], p, 0, logging.WithJob(d.runID, 0))
		if err != nil {
			return nil, err
		}
		results[0] = res
		return results, nil
	}

	var g errgroup.Group
	for i := range parts {
		i := i
		jobParams := p
		jobParams.showProgress = p.showProgress && i == n-1
		g.Go(func() error {
			res, err := d.runJob(left, parts[i], jobParams, i, logging.WithJob(d.runID, i))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runJob executes the kernel for one partition. In file mode it creates the
// job's private spool file first and registers it for cleanup.
func (d *dispatcher) runJob(left *snapshot, part [][]types.Value, p kernelParams, jobIndex int, log *slog.Logger) (dispatchResult, error) {
	if !d.fileMode {
		table, err := runKernel(left, part, p, d.outSchema, nil, log)
		if err != nil {
			return dispatchResult{}, sjerr.Wrap(err, sjerr.CategoryWorker, "JOB_FAILED", "Dispatch", "Dispatcher")
		}
		return dispatchResult{table: table}, nil
	}

	sink, err := newSpool(d.scratchDir, "job", d.flushAfter)
	if err != nil {
		return dispatchResult{}, err
	}
	d.temps.register(sink.path)

	if _, err := runKernel(left, part, p, d.outSchema, sink, log); err != nil {
		sink.close()
		return dispatchResult{}, sjerr.Wrap(err, sjerr.CategoryWorker, "JOB_FAILED", "Dispatch", "Dispatcher")
	}
	if err := sink.close(); err != nil {
		return dispatchResult{}, err
	}
	return dispatchResult{spoolPath: sink.path}, nil
}
