// Command tinykv is the command-line front end for tinyKV database files.
//
// Usage:
//
//	tinykv [-db FILE] [-config FILE] COMMAND [ARGS...]
//
// Commands:
//
//	create TABLE NUMKEY          create a table (NUMKEY leading key columns)
//	insert TABLE COL [COL...]    insert one record
//	get    TABLE KEY [KEY...]    fetch the record with the given key columns
//	scan   TABLE [FROM]          list records in key order, optionally from a key
//	tables                       list catalog entries
//	import TABLE FILE            import a CSV (.csv/.tsv) or shapefile (.shp)
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	tinykv "github.com/SimonWaldherr/tinyKV"
	"github.com/SimonWaldherr/tinyKV/internal/importer"
)

var (
	flagDB     = flag.String("db", "tinykv.db", "database file")
	flagConfig = flag.String("config", "", "YAML config file (overrides defaults, not flags)")
)

// Config is the YAML configuration for the CLI.
type Config struct {
	Database  string `yaml:"database"`
	PoolSize  int    `yaml:"pool_size"`
	FlushSpec string `yaml:"flush_spec"`
}

func main() {
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("missing command (create|insert|get|scan|tables|import)")
	}

	cfg := Config{Database: *flagDB}
	if *flagConfig != "" {
		raw, err := os.ReadFile(*flagConfig)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		if cfg.Database == "" {
			cfg.Database = *flagDB
		}
		// An explicit -db flag takes precedence over the config file.
		flag.Visit(func(f *flag.Flag) {
			if f.Name == "db" {
				cfg.Database = *flagDB
			}
		})
	}

	db, err := tinykv.Open(cfg.Database, tinykv.Options{
		PoolSize:  cfg.PoolSize,
		FlushSpec: cfg.FlushSpec,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create":
		return cmdCreate(db, rest)
	case "insert":
		return cmdInsert(db, rest)
	case "get":
		return cmdGet(db, rest)
	case "scan":
		return cmdScan(db, rest)
	case "tables":
		return cmdTables(db)
	case "import":
		return cmdImport(db, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdCreate(db *tinykv.DB, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: create TABLE NUMKEY")
	}
	numKey, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("NUMKEY: %w", err)
	}
	if _, err := db.CreateTable(args[0], numKey, nil); err != nil {
		return err
	}
	return db.Flush()
}

func cmdInsert(db *tinykv.DB, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: insert TABLE COL [COL...]")
	}
	if err := db.Insert(args[0], tinykv.Record(args[1:]...)); err != nil {
		return err
	}
	return db.Flush()
}

func cmdGet(db *tinykv.DB, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: get TABLE KEY [KEY...]")
	}
	tbl, err := db.Table(args[0])
	if err != nil {
		return err
	}
	keyCols := tinykv.Record(args[1:]...)
	key := tinykv.EncodeTuple(keyCols)

	plan := &tinykv.SeqScan{
		TableMetaPageID: tbl.MetaPageID,
		SearchMode:      tinykv.ScanKey(keyCols...),
		WhileCond: func(pk tinykv.Tuple) bool {
			return bytes.Equal(tinykv.EncodeTuple(pk), key)
		},
	}
	exec, err := plan.Start(db.Bufmgr())
	if err != nil {
		return err
	}
	defer exec.Close(db.Bufmgr())

	rec, ok, err := exec.Next(db.Bufmgr())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no record with key %v", args[1:])
	}
	fmt.Println(tinykv.PrettyTuple(rec))
	return nil
}

func cmdScan(db *tinykv.DB, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: scan TABLE [FROM]")
	}
	tbl, err := db.Table(args[0])
	if err != nil {
		return err
	}
	mode := tinykv.ScanStart()
	if len(args) > 1 {
		mode = tinykv.ScanKey([]byte(args[1]))
	}
	plan := &tinykv.SeqScan{
		TableMetaPageID: tbl.MetaPageID,
		SearchMode:      mode,
		WhileCond:       func(tinykv.Tuple) bool { return true },
	}
	exec, err := plan.Start(db.Bufmgr())
	if err != nil {
		return err
	}
	defer exec.Close(db.Bufmgr())
	for {
		rec, ok, err := exec.Next(db.Bufmgr())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Println(tinykv.PrettyTuple(rec))
	}
}

func cmdTables(db *tinykv.DB) error {
	infos, err := db.Catalog().ListTables(db.Bufmgr())
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%s\tkeys=%d\tmeta=%d\tid=%s\n", info.Name, info.NumKeyElems, info.MetaPageID, info.ID)
		for _, ix := range info.Indexes {
			fmt.Printf("  index %s\tcols=%v\tmeta=%d\n", ix.Name, ix.SKey, ix.MetaPageID)
		}
	}
	return nil
}

func cmdImport(db *tinykv.DB, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: import TABLE FILE")
	}
	table, path := args[0], args[1]

	var res *importer.Result
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".shp":
		res, err = importer.ImportShapefile(db, table, path, nil)
	case ".tsv":
		f, ferr := os.Open(path)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		res, err = importer.ImportCSV(db, table, f, &importer.Options{Comma: '\t'})
	default:
		f, ferr := os.Open(path)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		res, err = importer.ImportCSV(db, table, f, nil)
	}
	if err != nil {
		return err
	}
	fmt.Printf("imported %d rows (%d skipped) into %s\n", res.RowsInserted, res.RowsSkipped, table)
	return nil
}
