package importer

import (
	"fmt"
	"strconv"

	shp "github.com/jonas-p/go-shp"

	"github.com/SimonWaldherr/tinyKV/internal/storage"
)

// ImportShapefile loads the attribute table of an ESRI shapefile into the
// named table. The record number becomes the first column and the primary
// key; the DBF attributes follow in field order.
func ImportShapefile(db *storage.DB, tableName, filePath string, o *Options) (*Result, error) {
	opts := o.withDefaults()

	r, err := shp.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	res := &Result{ColumnNames: make([]string, 0, len(fields)+1)}
	res.ColumnNames = append(res.ColumnNames, "record_no")
	for _, f := range fields {
		res.ColumnNames = append(res.ColumnNames, f.String())
	}

	tbl, err := targetTable(db, tableName, opts)
	if err != nil {
		return nil, err
	}

	for r.Next() {
		idx, _ := r.Shape()
		record := make([][]byte, 0, len(fields)+1)
		record = append(record, []byte(strconv.Itoa(idx)))
		for fi := range fields {
			record = append(record, []byte(r.ReadAttribute(idx, fi)))
		}
		if err := tbl.Insert(db.Bufmgr(), record); err != nil {
			if opts.SkipBadRows {
				res.RowsSkipped++
				continue
			}
			return res, fmt.Errorf("insert record %d: %w", idx, err)
		}
		res.RowsInserted++
	}
	if err := db.Flush(); err != nil {
		return res, err
	}
	return res, nil
}
