package join

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"simjoin/pkg/sjerr"
)

// spoolWriter stages output rows in a run-scoped temp file. Rows are
// buffered in memory and appended to the file once the buffer reaches the
// flush threshold, which bounds peak memory independent of result size.
// Rows are written without identifiers; finalize injects them in a second
// pass.
type spoolWriter struct {
	path       string
	f          *os.File
	buf        [][]string
	flushAfter int
}

// newSpool creates a spool file with a collision-free name under dir (or
// the system temp directory if dir is empty). Each run and each job gets a
// distinct name, so concurrent runs can safely share a scratch directory.
func newSpool(dir, label string, flushAfter int) (*spoolWriter, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("simjoin-%s-%s.csv", label, uuid.NewString()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_CREATE_FAILED", "CreateSpool", "Spooler")
	}
	return &spoolWriter{path: path, f: f, flushAfter: flushAfter}, nil
}

// writeHeader writes the header record directly to the spool file. It must
// be called before any rows are appended.
func (s *spoolWriter) writeHeader(header []string) error {
	w := csv.NewWriter(s.f)
	if err := w.Write(header); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_APPEND_FAILED", "WriteHeader", "Spooler")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_APPEND_FAILED", "WriteHeader", "Spooler")
	}
	return nil
}

// appendRecord buffers one row, flushing to disk when the buffer reaches
// the flush threshold.
func (s *spoolWriter) appendRecord(record []string) error {
	s.buf = append(s.buf, record)
	if len(s.buf) >= s.flushAfter {
		return s.flush()
	}
	return nil
}

// flush appends all buffered rows to the spool file and clears the buffer.
func (s *spoolWriter) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	w := csv.NewWriter(s.f)
	for _, record := range s.buf {
		if err := w.Write(record); err != nil {
			return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_APPEND_FAILED", "Flush", "Spooler")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_APPEND_FAILED", "Flush", "Spooler")
	}
	s.buf = s.buf[:0]
	return nil
}

// close flushes remaining rows and closes the file handle.
func (s *spoolWriter) close() error {
	if err := s.flush(); err != nil {
		s.f.Close()
		return err
	}
	if err := s.f.Close(); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_CLOSE_FAILED", "Close", "Spooler")
	}
	return nil
}

// appendFile appends the raw contents of the file at src to the spool.
// Used to concatenate per-job spool fragments, which carry no header.
func (s *spoolWriter) appendFile(src string) error {
	if err := s.flush(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_MERGE_FAILED", "Merge", "Spooler")
	}
	defer in.Close()
	if _, err := io.Copy(s.f, in); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "SPOOL_MERGE_FAILED", "Merge", "Spooler")
	}
	return nil
}

// finalizeWithID re-reads the whole spool file and writes it to destPath
// with a zero-based sequential identifier injected as the first field of
// every data row. File order is insertion order, so identifiers follow the
// merge order fixed by the run.
func finalizeWithID(spoolPath, destPath string) error {
	in, err := os.Open(spoolPath)
	if err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}
	defer out.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	w := csv.NewWriter(out)

	header, err := r.Read()
	if err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}
	if err := w.Write(append([]string{idColumn}, header...)); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}

	id := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
		}
		if err := w.Write(append([]string{strconv.Itoa(id)}, record...)); err != nil {
			return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
		}
		id++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}
	if err := out.Close(); err != nil {
		return sjerr.Wrap(err, sjerr.CategoryIO, "FINALIZE_FAILED", "Finalize", "Spooler")
	}
	return nil
}

// tempRegistry tracks every temp file a run creates so that all of them are
// removed on every exit path, not only on success. Deletion failures are
// logged and never fail the run. register is called from concurrent jobs.
type tempRegistry struct {
	mu    sync.Mutex
	paths []string
}

func (t *tempRegistry) register(path string) {
	t.mu.Lock()
	t.paths = append(t.paths, path)
	t.mu.Unlock()
}

// cleanup removes every registered file that still exists.
func (t *tempRegistry) cleanup(log *slog.Logger) {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}
}
