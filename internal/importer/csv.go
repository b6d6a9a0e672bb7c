// Package importer loads structured files into tinyKV tables.
//
// Supported formats: CSV/TSV (header row defines the columns) and ESRI
// shapefile attribute tables. Columns are stored as raw byte strings; the
// leftmost KeyColumns columns become the primary key.
//
// Example:
//
//	f, _ := os.Open("cities.csv")
//	res, err := importer.ImportCSV(db, "cities", f, nil)
//	fmt.Printf("imported %d rows into %v\n", res.RowsInserted, res.ColumnNames)
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/SimonWaldherr/tinyKV/internal/storage"
)

// Options configures an import. All fields are optional.
type Options struct {
	// KeyColumns is the number of leading columns forming the primary
	// key (default 1).
	KeyColumns int

	// Comma is the field delimiter (default ',').
	Comma rune

	// SkipCreate suppresses creating the target table when it does not
	// exist yet (by default a missing table is created).
	SkipCreate bool

	// SkipBadRows drops rows whose insert fails (duplicate or malformed)
	// instead of aborting the import.
	SkipBadRows bool
}

// Result describes a finished import.
type Result struct {
	RowsInserted int64
	RowsSkipped  int64
	ColumnNames  []string
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.KeyColumns == 0 {
		opts.KeyColumns = 1
	}
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return opts
}

// ImportCSV reads delimiter-separated data with a header row from r into
// the named table.
func ImportCSV(db *storage.DB, tableName string, r io.Reader, o *Options) (*Result, error) {
	opts := o.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < opts.KeyColumns {
		return nil, fmt.Errorf("header has %d columns, need at least %d key columns", len(header), opts.KeyColumns)
	}
	res := &Result{ColumnNames: append([]string(nil), header...)}

	tbl, err := targetTable(db, tableName, opts)
	if err != nil {
		return nil, err
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", res.RowsInserted+res.RowsSkipped+1, err)
		}
		record := make([][]byte, len(row))
		for i, col := range row {
			record[i] = []byte(col)
		}
		if err := tbl.Insert(db.Bufmgr(), record); err != nil {
			if opts.SkipBadRows {
				res.RowsSkipped++
				continue
			}
			return res, fmt.Errorf("insert row %d: %w", res.RowsInserted+1, err)
		}
		res.RowsInserted++
	}

	if err := db.Flush(); err != nil {
		return res, err
	}
	return res, nil
}

// targetTable opens the table, creating it first unless suppressed.
func targetTable(db *storage.DB, name string, opts Options) (*storage.Table, error) {
	tbl, err := db.Table(name)
	if err == nil {
		return tbl, nil
	}
	if !errors.Is(err, storage.ErrTableNotFound) || opts.SkipCreate {
		return nil, err
	}
	return db.CreateTable(name, opts.KeyColumns, nil)
}
