package relation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"simjoin/pkg/types"
)

// ReadCSV reads a delimited text file into a relation. The first record is
// taken as the header. Empty cells are read as missing values. Attribute
// types are inferred per column: a column whose present values all parse as
// integers is IntType, all parse as floats is FloatType, anything else is
// StringType.
func ReadCSV(path string) (*Relation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSVFrom(f)
}

// ReadCSVFrom reads CSV data from an arbitrary reader. See ReadCSV.
func ReadCSVFrom(r io.Reader) (*Relation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]types.Value
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		row := make([]types.Value, len(record))
		for i, cell := range record {
			if cell == "" {
				row[i] = types.MissingValue()
			} else {
				row[i] = types.NewValue(cell)
			}
		}
		rows = append(rows, row)
	}

	schema, err := NewSchema(header, inferTypes(header, rows))
	if err != nil {
		return nil, err
	}

	rel := New(schema)
	rel.Rows = rows
	return rel, nil
}

// inferTypes classifies each column by the narrowest type that parses every
// present value: IntType, then FloatType, then StringType. Columns with no
// present values stay StringType.
func inferTypes(header []string, rows [][]types.Value) []types.Type {
	inferred := make([]types.Type, len(header))
	for col := range header {
		allInt, allFloat, seen := true, true, false
		for _, row := range rows {
			v := row[col]
			if v.Missing {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v.Raw, 10, 64); err != nil {
				allInt = false
			}
			if _, err := strconv.ParseFloat(v.Raw, 64); err != nil {
				allFloat = false
			}
		}
		switch {
		case !seen:
			inferred[col] = types.StringType
		case allInt:
			inferred[col] = types.IntType
		case allFloat:
			inferred[col] = types.FloatType
		default:
			inferred[col] = types.StringType
		}
	}
	return inferred
}

// WriteCSV writes the relation to path as a delimited text file with a
// header record. Missing values are written as empty cells.
func WriteCSV(rel *Relation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSVTo(rel, f); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSVTo writes the relation as CSV to an arbitrary writer. See WriteCSV.
func WriteCSVTo(rel *Relation, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(rel.Schema.Attrs); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, rel.Schema.NumAttrs())
	for _, row := range rel.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
