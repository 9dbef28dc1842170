// Package join orchestrates a parallel set-similarity equi-join between
// two tabular relations.
//
// A run proceeds in fixed phases: validate inputs, build immutable
// projected snapshots (rows with a missing join attribute are set aside),
// partition the right snapshot, dispatch one kernel call per partition
// (directly for one job, fork-join otherwise), merge partial results in
// job-index order, append missing-value pairs when enabled, and assign a
// zero-based sequential identifier exactly once.
//
// Two output modes exist and never mix within a run. The in-memory mode
// concatenates partial tables and returns the result. The file mode
// streams rows through spool files in a scratch directory (a private file
// per job, concatenated into a run file) and finalizes by rewriting the
// run file with identifiers into the destination. Peak memory in file mode
// is bounded by the flush threshold, not by result size.
//
// There is no cancellation, timeout or per-partition recovery: a run
// completes fully or fails fully. Units of work share no mutable state;
// isolation comes from disjoint result slots and distinct, collision-free
// temp file names, which also makes concurrent runs sharing one scratch
// directory safe.
package join
