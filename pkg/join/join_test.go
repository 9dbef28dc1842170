package join

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/tokenize"
)

func mustRelation(t *testing.T, csv string) *relation.Relation {
	t.Helper()
	rel, err := relation.ReadCSVFrom(strings.NewReader(csv))
	require.NoError(t, err)
	return rel
}

// pairSet renders the (left key, right key) pairs of a result for
// order-insensitive comparison.
func pairSet(t *testing.T, rel *relation.Relation) []string {
	t.Helper()
	lIdx, ok := rel.Schema.AttrIndex("l_id")
	require.True(t, ok)
	rIdx, ok := rel.Schema.AttrIndex("r_id")
	require.True(t, ok)

	pairs := make([]string, 0, rel.Len())
	for _, row := range rel.Rows {
		pairs = append(pairs, row[lIdx].Raw+"|"+row[rIdx].Raw)
	}
	sort.Strings(pairs)
	return pairs
}

func TestJaccardWorkedExample(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b c\n")
	r := mustRelation(t, "id,name\n10,a b\n20,x y\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len(), "only the (1, 10) pair qualifies")
	assert.Equal(t, []string{"1|10"}, pairSet(t, out))

	scoreIdx, ok := out.Schema.AttrIndex("_sim_score")
	require.True(t, ok)
	score, err := strconv.ParseFloat(out.Rows[0][scoreIdx].Raw, 64)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, score, 1e-9)
}

func TestScoresSatisfyThreshold(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b c d\n2,a b\n3,x\n")
	r := mustRelation(t, "id,name\n10,a b c\n20,a b x\n30,q\n")

	for _, opSym := range []string{">=", ">", "="} {
		t.Run(opSym, func(t *testing.T) {
			op, err := similarity.ParseCompOp(opSym)
			require.NoError(t, err)

			opts := DefaultOptions()
			opts.ShowProgress = false
			opts.CompOp = op
			out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
			require.NoError(t, err)

			scoreIdx, ok := out.Schema.AttrIndex("_sim_score")
			require.True(t, ok)
			for _, row := range out.Rows {
				score, err := strconv.ParseFloat(row[scoreIdx].Raw, 64)
				require.NoError(t, err)
				assert.True(t, op.Satisfies(score, 0.5),
					"score %v must satisfy %s 0.5", score, opSym)
			}
		})
	}
}

func TestAllowEmpty(t *testing.T) {
	l := mustRelation(t, "id,name\n1, \n2,a b\n")
	r := mustRelation(t, "id,name\n10, \n20,a b\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.AllowEmpty = true
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)
	assert.Contains(t, pairSet(t, out), "1|10", "both-empty pair must be included")

	scoreIdx, _ := out.Schema.AttrIndex("_sim_score")
	lIdx, _ := out.Schema.AttrIndex("l_id")
	for _, row := range out.Rows {
		if row[lIdx].Raw == "1" {
			score, err := strconv.ParseFloat(row[scoreIdx].Raw, 64)
			require.NoError(t, err)
			assert.Equal(t, 1.0, score, "both-empty pair scores exactly 1.0")
		}
	}

	opts.AllowEmpty = false
	out, err = Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)
	assert.NotContains(t, pairSet(t, out), "1|10", "both-empty pair must be excluded")
	assert.Contains(t, pairSet(t, out), "2|20")
}

func TestParallelismInvariance(t *testing.T) {
	var lRows, rRows strings.Builder
	lRows.WriteString("id,name\n")
	rRows.WriteString("id,name\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&lRows, "%d,tok%d tok%d common\n", i, i, i+1)
		fmt.Fprintf(&rRows, "%d,tok%d tok%d common\n", 100+i, i, i+2)
	}
	l := mustRelation(t, lRows.String())
	r := mustRelation(t, rRows.String())

	run := func(nJobs int) []string {
		opts := DefaultOptions()
		opts.ShowProgress = false
		opts.NJobs = nJobs
		out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.3, opts)
		require.NoError(t, err)
		return pairSet(t, out)
	}

	serial := run(1)
	require.NotEmpty(t, serial)
	for _, n := range []int{2, 3, 7} {
		assert.Equal(t, serial, run(n), "pair set must not depend on job count %d", n)
	}
}

func TestMissingValueCompletion(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n2,\n")
	r := mustRelation(t, "id,name\n10,a b\n20,\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.AllowMissing = true
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)

	pairs := pairSet(t, out)
	// Main join: (1,10). Left-missing row 2 pairs with every right row,
	// including the right-missing one, exactly once. Right-missing row 20
	// pairs with the remaining non-missing left row.
	assert.Equal(t, []string{"1|10", "1|20", "2|10", "2|20"}, pairs)

	counts := map[string]int{}
	for _, p := range pairs {
		counts[p]++
	}
	assert.Equal(t, 1, counts["2|20"], "both-missing pair appears exactly once")

	// Missing pairs come after the main-join pairs and carry no score.
	scoreIdx, _ := out.Schema.AttrIndex("_sim_score")
	lIdx, _ := out.Schema.AttrIndex("l_id")
	require.Equal(t, "1", out.Rows[0][lIdx].Raw, "main-join pair first")
	assert.False(t, out.Rows[0][scoreIdx].Missing)
	for _, row := range out.Rows[1:] {
		assert.True(t, row[scoreIdx].Missing, "missing-value pairs have no score")
	}
}

func TestMissingValueDisabledByDefault(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n2,\n")
	r := mustRelation(t, "id,name\n10,a b\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"1|10"}, pairSet(t, out))
}

func TestIdentifierContiguity(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n2,b c\n3,\n")
	r := mustRelation(t, "id,name\n10,a b\n20,b c\n30,c d\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.AllowMissing = true
	opts.NJobs = 2
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.3, opts)
	require.NoError(t, err)

	idIdx, ok := out.Schema.AttrIndex("_id")
	require.True(t, ok)
	require.Equal(t, 0, idIdx, "identifier must be the first column")
	for i, row := range out.Rows {
		assert.Equal(t, strconv.Itoa(i), row[idIdx].Raw)
	}
}

func TestProjectedAttributesAndPrefixes(t *testing.T) {
	l := mustRelation(t, "id,name,city\n1,a b,rome\n")
	r := mustRelation(t, "id,name,zip\n10,a b,00100\n")

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.LOutAttrs = []string{"city", "id"} // id is redundant with the key
	opts.ROutAttrs = []string{"zip"}
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"_id", "l_id", "r_id", "l_city", "r_zip", "_sim_score"}, out.Schema.Attrs)
	require.Equal(t, 1, out.Len())
	v, err := out.Value(0, "l_city")
	require.NoError(t, err)
	assert.Equal(t, "rome", v.Raw)
	v, err = out.Value(0, "r_zip")
	require.NoError(t, err)
	assert.Equal(t, "00100", v.Raw)
}

func TestFileModeMatchesInMemory(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b c\n2,c d\n3,\n")
	r := mustRelation(t, "id,name\n10,a b\n20,c d e\n30,x\n40,\n")

	inMem := DefaultOptions()
	inMem.ShowProgress = false
	inMem.AllowMissing = true
	table, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.4, inMem)
	require.NoError(t, err)

	for _, nJobs := range []int{1, 3} {
		t.Run(fmt.Sprintf("n_jobs=%d", nJobs), func(t *testing.T) {
			scratch := t.TempDir()
			dest := filepath.Join(t.TempDir(), "out.csv")

			opts := DefaultOptions()
			opts.ShowProgress = false
			opts.AllowMissing = true
			opts.NJobs = nJobs
			opts.OutputFile = dest
			opts.ScratchDir = scratch
			opts.FlushAfter = 2 // force mid-run flushing

			out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.4, opts)
			require.NoError(t, err)
			assert.Nil(t, out, "file mode returns no in-memory table")

			persisted, err := relation.ReadCSV(dest)
			require.NoError(t, err)

			assert.Equal(t, table.Schema.Attrs, persisted.Schema.Attrs)
			assert.Equal(t, pairSet(t, table), pairSet(t, persisted),
				"file mode must emit the same pairs as in-memory mode")

			idIdx, _ := persisted.Schema.AttrIndex("_id")
			for i, row := range persisted.Rows {
				assert.Equal(t, strconv.Itoa(i), row[idIdx].Raw, "identifiers must be contiguous")
			}

			// No temp files survive a successful persisted run.
			entries, err := os.ReadDir(scratch)
			require.NoError(t, err)
			assert.Empty(t, entries, "scratch directory must be clean after the run")
		})
	}
}

func TestValidationFailures(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n")
	r := mustRelation(t, "id,name\n10,a b\n")
	dup := mustRelation(t, "id,name\n1,a\n1,b\n")

	tk := tokenize.NewWhitespace(true)

	tests := []struct {
		name string
		call func(opts *Options) error
	}{
		{"unknown join attribute", func(opts *Options) error {
			_, err := Jaccard(l, r, "id", "id", "nope", "name", tk, 0.5, opts)
			return err
		}},
		{"unknown key attribute", func(opts *Options) error {
			_, err := Jaccard(l, r, "nope", "id", "name", "name", tk, 0.5, opts)
			return err
		}},
		{"numeric join attribute", func(opts *Options) error {
			_, err := Jaccard(l, r, "id", "id", "id", "name", tk, 0.5, opts)
			return err
		}},
		{"threshold out of range", func(opts *Options) error {
			_, err := Jaccard(l, r, "id", "id", "name", "name", tk, 1.5, opts)
			return err
		}},
		{"nil tokenizer", func(opts *Options) error {
			_, err := Jaccard(l, r, "id", "id", "name", "name", nil, 0.5, opts)
			return err
		}},
		{"duplicate key", func(opts *Options) error {
			_, err := Jaccard(dup, r, "id", "id", "name", "name", tk, 0.5, opts)
			return err
		}},
		{"unknown output attribute", func(opts *Options) error {
			opts.LOutAttrs = []string{"nope"}
			_, err := Jaccard(l, r, "id", "id", "name", "name", tk, 0.5, opts)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch := t.TempDir()
			opts := DefaultOptions()
			opts.ShowProgress = false
			opts.ScratchDir = scratch
			opts.OutputFile = filepath.Join(t.TempDir(), "out.csv")

			err := tt.call(opts)
			require.Error(t, err)
			assert.True(t, sjerr.IsValidation(err), "expected validation error, got %v", err)

			// A validation failure happens before any file is created.
			entries, readErr := os.ReadDir(scratch)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "validation failures must not create temp files")
			_, statErr := os.Stat(opts.OutputFile)
			assert.True(t, os.IsNotExist(statErr), "validation failures must not create output")
		})
	}
}

func TestSetSimMeasures(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b c\n")
	r := mustRelation(t, "id,name\n10,a b\n")

	opts := DefaultOptions()
	opts.ShowProgress = false

	for _, tc := range []struct {
		measure  similarity.Measure
		expected float64
	}{
		{similarity.Jaccard, 2.0 / 3.0},
		{similarity.Dice, 4.0 / 5.0},
		{similarity.Cosine, 2.0 / 2.449489742783178},
	} {
		t.Run(tc.measure.String(), func(t *testing.T) {
			out, err := SetSim(l, r, "id", "id", "name", "name",
				tokenize.NewWhitespace(true), tc.measure, 0.5, opts)
			require.NoError(t, err)
			require.Equal(t, 1, out.Len())

			scoreIdx, _ := out.Schema.AttrIndex("_sim_score")
			score, err := strconv.ParseFloat(out.Rows[0][scoreIdx].Raw, 64)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, score, 1e-9)
		})
	}
}

func TestCallerTokenizerNotMutated(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a a b\n")
	r := mustRelation(t, "id,name\n10,a b\n")

	tk := tokenize.NewWhitespace(false) // bag mode
	opts := DefaultOptions()
	opts.ShowProgress = false
	_, err := Jaccard(l, r, "id", "id", "name", "name", tk, 0.5, opts)
	require.NoError(t, err)

	assert.False(t, tk.ReturnsSet(), "the caller's tokenizer must be left in bag mode")
}

func TestEmptyRightRelation(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n")
	r := mustRelation(t, "id,name\n10,\n") // only a missing join value

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.NJobs = 4
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestEmptyRightRelationFileMode(t *testing.T) {
	l := mustRelation(t, "id,name\n1,a b\n")
	r := mustRelation(t, "id,name\n10,\n")

	// An empty right snapshot collapses to one serial job even when more
	// are requested; no per-job spool files are ever created.
	scratch := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out.csv")

	opts := DefaultOptions()
	opts.ShowProgress = false
	opts.NJobs = 4
	opts.OutputFile = dest
	opts.ScratchDir = scratch
	out, err := Jaccard(l, r, "id", "id", "name", "name", tokenize.NewWhitespace(true), 0.5, opts)
	require.NoError(t, err)
	assert.Nil(t, out)

	persisted, err := relation.ReadCSV(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "l_id", "r_id", "_sim_score"}, persisted.Schema.Attrs)
	assert.Equal(t, 0, persisted.Len())

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be clean after the run")
}
