// Command server exposes a tinyKV database over HTTP and gRPC.
//
// The HTTP API is JSON under /api/ (put, get, scan, status). The gRPC
// service uses a JSON codec with hand-registered service descriptors, so
// no generated stubs are required. Both listeners serve the same
// single-table key/value surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	tinykv "github.com/SimonWaldherr/tinyKV"
)

// Flags
var (
	flagDB    = flag.String("db", "tinykv.db", "database file")
	flagTable = flag.String("table", "kv", "table served by the API (created on demand)")
	flagHTTP  = flag.String("http", ":8080", "HTTP listen address (empty to disable)")
	flagGRPC  = flag.String("grpc", ":9090", "gRPC listen address (empty to disable)")
	flagFlush = flag.String("flush", "@every 30s", "background flush schedule (empty to disable)")
	flagProbe = flag.String("probe", "", "act as a gRPC client against this address: probe the KEY argument and exit")
)

// Request/response types (shared by HTTP and gRPC).
type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
type putResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type getRequest struct {
	Key string `json:"key"`
}
type getResponse struct {
	Found    bool   `json:"found"`
	Value    string `json:"value,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type scanRequest struct {
	From  string `json:"from,omitempty"`
	Limit int    `json:"limit,omitempty"`
}
type scanItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
type scanResponse struct {
	Items    []scanItem `json:"items"`
	Error    string     `json:"error,omitempty"`
	Count    int        `json:"count"`
	Duration string     `json:"duration"`
}

// gRPC JSON codec
type jsonCodec struct{}

func (jsonCodec) Name() string                     { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// gRPC service interface and descriptors (manual, no protobuf)
type TinyKVServer interface {
	Put(context.Context, *putRequest) (*putResponse, error)
	Get(context.Context, *getRequest) (*getResponse, error)
	Scan(context.Context, *scanRequest) (*scanResponse, error)
}

func registerTinyKVServer(s *grpc.Server, srv TinyKVServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "tinykv.TinyKV",
		HandlerType: (*TinyKVServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Put", Handler: _TinyKV_Put_Handler},
			{MethodName: "Get", Handler: _TinyKV_Get_Handler},
			{MethodName: "Scan", Handler: _TinyKV_Scan_Handler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "tinykv", // informational
	}, srv)
}

func _TinyKV_Put_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(putRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TinyKVServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tinykv.TinyKV/Put"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(TinyKVServer).Put(ctx, req.(*putRequest)) }
	return interceptor(ctx, in, info, handler)
}

func _TinyKV_Get_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(getRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TinyKVServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tinykv.TinyKV/Get"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(TinyKVServer).Get(ctx, req.(*getRequest)) }
	return interceptor(ctx, in, info, handler)
}

func _TinyKV_Scan_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(scanRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TinyKVServer).Scan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tinykv.TinyKV/Scan"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(TinyKVServer).Scan(ctx, req.(*scanRequest)) }
	return interceptor(ctx, in, info, handler)
}

// server state
type server struct {
	db    *tinykv.DB
	table string
}

func newServer(db *tinykv.DB, table string) (*server, error) {
	if _, err := db.Table(table); err != nil {
		if _, cerr := db.CreateTable(table, 1, nil); cerr != nil {
			return nil, cerr
		}
	}
	return &server{db: db, table: table}, nil
}

// TinyKVServer implementation
func (s *server) Put(_ context.Context, req *putRequest) (*putResponse, error) {
	start := time.Now()
	resp := &putResponse{}
	if err := s.db.Insert(s.table, tinykv.Record(req.Key, req.Value)); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Success = true
	}
	resp.Duration = time.Since(start).String()
	return resp, nil
}

func (s *server) Get(_ context.Context, req *getRequest) (*getResponse, error) {
	start := time.Now()
	resp := &getResponse{}
	rec, ok, err := s.lookup(req.Key)
	switch {
	case err != nil:
		resp.Error = err.Error()
	case ok:
		resp.Found = true
		resp.Value = string(rec[1])
	}
	resp.Duration = time.Since(start).String()
	return resp, nil
}

func (s *server) Scan(_ context.Context, req *scanRequest) (*scanResponse, error) {
	start := time.Now()
	resp := &scanResponse{}
	limit := req.Limit
	if limit <= 0 {
		limit = 1000
	}

	tbl, err := s.db.Table(s.table)
	if err != nil {
		resp.Error = err.Error()
		resp.Duration = time.Since(start).String()
		return resp, nil
	}
	mode := tinykv.ScanStart()
	if req.From != "" {
		mode = tinykv.ScanKey([]byte(req.From))
	}
	plan := &tinykv.SeqScan{
		TableMetaPageID: tbl.MetaPageID,
		SearchMode:      mode,
		WhileCond:       func(tinykv.Tuple) bool { return true },
	}
	exec, err := plan.Start(s.db.Bufmgr())
	if err != nil {
		resp.Error = err.Error()
		resp.Duration = time.Since(start).String()
		return resp, nil
	}
	defer exec.Close(s.db.Bufmgr())

	for len(resp.Items) < limit {
		rec, ok, err := exec.Next(s.db.Bufmgr())
		if err != nil {
			resp.Error = err.Error()
			break
		}
		if !ok {
			break
		}
		item := scanItem{Key: string(rec[0])}
		if len(rec) > 1 {
			item.Value = string(rec[1])
		}
		resp.Items = append(resp.Items, item)
	}
	resp.Count = len(resp.Items)
	resp.Duration = time.Since(start).String()
	return resp, nil
}

func (s *server) lookup(key string) (tinykv.Tuple, bool, error) {
	tbl, err := s.db.Table(s.table)
	if err != nil {
		return nil, false, err
	}
	plan := &tinykv.SeqScan{
		TableMetaPageID: tbl.MetaPageID,
		SearchMode:      tinykv.ScanKey([]byte(key)),
		WhileCond: func(pk tinykv.Tuple) bool {
			return len(pk) == 1 && string(pk[0]) == key
		},
	}
	exec, err := plan.Start(s.db.Bufmgr())
	if err != nil {
		return nil, false, err
	}
	defer exec.Close(s.db.Bufmgr())
	return exec.Next(s.db.Bufmgr())
}

// HTTP handlers
func (s *server) handlePut(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Put(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	req := getRequest{Key: r.URL.Query().Get("key")}
	if req.Key == "" {
		var body getRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			req = body
		}
	}
	resp, _ := s.Get(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if from := r.URL.Query().Get("from"); from != "" {
		req.From = from
	}
	resp, _ := s.Scan(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"table": s.table, "time": time.Now().Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// gRPC JSON client helper, usable from other tools.
func grpcGet(addr, key string) (*getResponse, error) {
	conn, err := grpc.Dial(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	var resp getResponse
	if err := conn.Invoke(context.Background(), "/tinykv.TinyKV/Get", &getRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return &resp, fmt.Errorf("%s", resp.Error)
	}
	return &resp, nil
}

func main() {
	flag.Parse()

	if *flagProbe != "" {
		if flag.NArg() != 1 {
			log.Fatal("usage: server -probe ADDR KEY")
		}
		resp, err := grpcGet(*flagProbe, flag.Arg(0))
		if err != nil {
			log.Fatalf("probe error: %v", err)
		}
		_ = json.NewEncoder(os.Stdout).Encode(resp)
		return
	}

	db, err := tinykv.Open(*flagDB, tinykv.Options{FlushSpec: *flagFlush})
	if err != nil {
		log.Fatalf("open error: %v", err)
	}
	defer db.Close()

	srv, err := newServer(db, *flagTable)
	if err != nil {
		log.Fatalf("table error: %v", err)
	}

	// Register JSON codec for gRPC
	encoding.RegisterCodec(jsonCodec{})

	// Start gRPC server
	if *flagGRPC != "" {
		go func() {
			lis, err := net.Listen("tcp", *flagGRPC)
			if err != nil {
				log.Printf("gRPC listen error: %v", err)
				return
			}
			gs := grpc.NewServer()
			registerTinyKVServer(gs, srv)
			log.Printf("gRPC listening on %s", *flagGRPC)
			if err := gs.Serve(lis); err != nil {
				log.Printf("gRPC serve error: %v", err)
			}
		}()
	}

	// Start HTTP server
	if *flagHTTP != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/put", srv.handlePut)
		mux.HandleFunc("/api/get", srv.handleGet)
		mux.HandleFunc("/api/scan", srv.handleScan)
		mux.HandleFunc("/api/status", srv.handleStatus)
		log.Printf("HTTP listening on %s", *flagHTTP)
		if err := http.ListenAndServe(*flagHTTP, mux); err != nil {
			log.Fatalf("HTTP serve error: %v", err)
		}
	} else {
		// If HTTP disabled, block on gRPC only
		select {}
	}
}
