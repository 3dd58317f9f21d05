package mysql

import (
	"context"
	"sync"
	"testing"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dialect"
	"github.com/blubskye/dbpool/poolid"
)

// fakeConn is an in-memory backend.Conn that records every statement it
// is asked to run, so tests can assert on the choreography without a live
// server.
type fakeConn struct {
	mu          sync.Mutex
	exec        []string
	queryResult []string
	queryErr    error
	execErr     error
	closed      bool
}

func (c *fakeConn) Exec(_ context.Context, query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exec = append(c.exec, query)
	return c.execErr
}

func (c *fakeConn) ExecBatch(ctx context.Context, queries []string) error {
	for _, q := range queries {
		if err := c.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeConn) QueryStrings(_ context.Context, _ string) ([]string, error) {
	return c.queryResult, c.queryErr
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// fakeCapability is a backend.Capability[string] stub: the restricted pool
// type is just the database name, so tests can assert on it directly.
type fakeCapability struct {
	mu             sync.Mutex
	conn           *fakeConn
	priorDatabases []string
	createCalls    []string
	buildErr       error
	entitiesErr    error
}

var _ backend.Capability[string] = (*fakeCapability)(nil)

func (f *fakeCapability) Dialect() dialect.Dialect { return dialect.MySQL{} }

func (f *fakeCapability) PrivilegedConn(context.Context) (backend.Conn, error) {
	return f.conn, nil
}

func (f *fakeCapability) PrivilegedConnToDatabase(context.Context, string) (backend.Conn, error) {
	return nil, errUnsupported
}

var errUnsupported = &stubErr{"not supported"}

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }

func (f *fakeCapability) CreateEntities(_ context.Context, dbName string, _ backend.Conn) error {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, dbName)
	f.mu.Unlock()
	return f.entitiesErr
}

func (f *fakeCapability) BuildRestrictedPool(_ context.Context, _, _, db string) (string, error) {
	if f.buildErr != nil {
		return "", f.buildErr
	}
	return db, nil
}

func (f *fakeCapability) ClosePool(string) {}

func newFakeCapability() *fakeCapability {
	return &fakeCapability{conn: &fakeConn{}}
}

func TestCreateRunsExpectedChoreography(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	pool, err := eng.Create(context.Background(), id, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pool != id.String() {
		t.Fatalf("expected restricted pool to equal db name, got %s", pool)
	}

	stmts := cap.conn.exec
	if len(stmts) < 4 {
		t.Fatalf("expected at least 4 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "CREATE DATABASE `"+id.String()+"`" {
		t.Fatalf("first statement should create the database, got %s", stmts[0])
	}
	foundUse := false
	for _, s := range stmts {
		if s == "USE `"+id.String()+"`" {
			foundUse = true
		}
	}
	if !foundUse {
		t.Fatalf("expected a USE statement scoping the entity callback, got %v", stmts)
	}
	if len(cap.createCalls) != 1 || cap.createCalls[0] != id.String() {
		t.Fatalf("expected CreateEntities called once with db name, got %v", cap.createCalls)
	}
}

func TestCreateRestrictedGrantsDMLOnly(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if _, err := eng.Create(context.Background(), id, true); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found := false
	for _, s := range cap.conn.exec {
		if s == "GRANT SELECT, INSERT, UPDATE, DELETE ON `"+id.String()+"`.* TO `"+id.String()+"`@`%`" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected restricted grant statement, got %v", cap.conn.exec)
	}
}

func TestCreateUnrestrictedGrantsAll(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if _, err := eng.Create(context.Background(), id, false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found := false
	for _, s := range cap.conn.exec {
		if s == "GRANT ALL PRIVILEGES ON `"+id.String()+"`.* TO `"+id.String()+"`@`%`" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unrestricted grant statement, got %v", cap.conn.exec)
	}
}

func TestCleanBracketsWithForeignKeyToggle(t *testing.T) {
	cap := newFakeCapability()
	cap.conn.queryResult = []string{"book", "author"}
	eng := New[string](cap)

	id := poolid.New()
	if err := eng.Clean(context.Background(), id); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	stmts := cap.conn.exec
	if len(stmts) < 3 {
		t.Fatalf("expected USE + toggle-bracketed truncates, got %v", stmts)
	}
	if stmts[1] != "SET FOREIGN_KEY_CHECKS = 0" {
		t.Fatalf("expected FK checks disabled first, got %s", stmts[1])
	}
	if stmts[len(stmts)-1] != "SET FOREIGN_KEY_CHECKS = 1" {
		t.Fatalf("expected FK checks re-enabled last, got %s", stmts[len(stmts)-1])
	}
}

func TestDropRemovesDatabaseAndUser(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if err := eng.Drop(context.Background(), id, true); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if cap.conn.exec[0] != "DROP DATABASE `"+id.String()+"`" {
		t.Fatalf("expected DROP DATABASE first, got %v", cap.conn.exec)
	}
	if cap.conn.exec[1] != "DROP USER `"+id.String()+"`@`%`" {
		t.Fatalf("expected DROP USER second, got %v", cap.conn.exec)
	}
}

func TestInitReapsOnlyPoolNames(t *testing.T) {
	cap := newFakeCapability()
	cap.conn.queryResult = []string{"db_pool_aaaaaaaa_aaaa_4aaa_aaaa_aaaaaaaaaaaa", "unrelated_db"}
	eng := New[string](cap)

	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	dropped := 0
	for _, s := range cap.conn.exec {
		if s == "DROP DATABASE `db_pool_aaaaaaaa_aaaa_4aaa_aaaa_aaaaaaaaaaaa`" {
			dropped++
		}
		if s == "DROP DATABASE `unrelated_db`" {
			t.Fatalf("must not reap a non-pool database name")
		}
	}
	if dropped != 1 {
		t.Fatalf("expected exactly one reap drop, got %d", dropped)
	}
}

func TestInitSkipsReapWhenDisabled(t *testing.T) {
	cap := newFakeCapability()
	cap.conn.queryResult = []string{"db_pool_aaaaaaaa_aaaa_4aaa_aaaa_aaaaaaaaaaaa"}
	eng := New[string](cap, WithDropPreviousDatabases[string](false))

	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(cap.conn.exec) != 0 {
		t.Fatalf("expected no statements when drop-previous is disabled, got %v", cap.conn.exec)
	}
}
