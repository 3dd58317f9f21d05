package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dialect"
	"github.com/blubskye/dbpool/poolid"
)

type fakeConn struct {
	mu          sync.Mutex
	exec        []string
	queryResult []string
	closed      bool
}

func (c *fakeConn) Exec(_ context.Context, query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exec = append(c.exec, query)
	return nil
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
	return c.queryResult, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// fakeCapability is a backend.Capability[string] stub. Unlike the MySQL
// fake, PrivilegedConnToDatabase returns a brand-new fakeConn each time, to
// exercise the stash (cleanConns) the way the real adapters do.
type fakeCapability struct {
	mu             sync.Mutex
	adminConn      *fakeConn
	dbConns        map[string]*fakeConn
	createCalls    []string
	buildErr       error
	priorDatabases []string
}

var _ backend.Capability[string] = (*fakeCapability)(nil)

func newFakeCapability() *fakeCapability {
	return &fakeCapability{adminConn: &fakeConn{}, dbConns: map[string]*fakeConn{}}
}

func (f *fakeCapability) Dialect() dialect.Dialect { return dialect.Postgres{} }

func (f *fakeCapability) PrivilegedConn(context.Context) (backend.Conn, error) {
	return f.adminConn, nil
}

func (f *fakeCapability) PrivilegedConnToDatabase(_ context.Context, db string) (backend.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeConn{}
	f.dbConns[db] = c
	return c, nil
}

func (f *fakeCapability) CreateEntities(_ context.Context, dbName string, _ backend.Conn) error {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, dbName)
	f.mu.Unlock()
	return nil
}

func (f *fakeCapability) BuildRestrictedPool(_ context.Context, _, _, db string) (string, error) {
	if f.buildErr != nil {
		return "", f.buildErr
	}
	return db, nil
}

func (f *fakeCapability) ClosePool(string) {}

func TestCreateRestrictedUsesPerDatabaseConnection(t *testing.T) {
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

	if cap.adminConn.exec[0] != `CREATE DATABASE "`+id.String()+`"` {
		t.Fatalf("expected CREATE DATABASE on the admin connection, got %v", cap.adminConn.exec)
	}

	dbConn, ok := cap.dbConns[id.String()]
	if !ok {
		t.Fatalf("expected a per-database connection to have been opened")
	}
	found := false
	for _, s := range dbConn.exec {
		if s == `GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO "`+id.String()+`"` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected restricted grant on the per-database connection, got %v", dbConn.exec)
	}
	if len(cap.createCalls) != 1 || cap.createCalls[0] != id.String() {
		t.Fatalf("expected CreateEntities called once, got %v", cap.createCalls)
	}
}

func TestCreateUnrestrictedGrantsOwnership(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if _, err := eng.Create(context.Background(), id, false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dbConn := cap.dbConns[id.String()]
	found := false
	for _, s := range dbConn.exec {
		if s == `ALTER DATABASE "`+id.String()+`" OWNER TO "`+id.String()+`"` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ownership grant, got %v", dbConn.exec)
	}

	if _, ok := eng.cleanConns.Load(id.String()); ok {
		t.Fatalf("unrestricted create must not stash a connection for Clean")
	}
}

func TestCleanReusesStashedConnection(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if _, err := eng.Create(context.Background(), id, true); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dbConn := cap.dbConns[id.String()]
	dbConn.queryResult = []string{"book"}

	if err := eng.Clean(context.Background(), id); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	found := false
	for _, s := range dbConn.exec {
		if s == `TRUNCATE TABLE "book" RESTART IDENTITY CASCADE` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected truncate with RESTART IDENTITY CASCADE, got %v", dbConn.exec)
	}
}

func TestCleanWithoutStashedConnectionErrors(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	if err := eng.Clean(context.Background(), poolid.New()); err == nil {
		t.Fatal("expected an error when no connection was ever stashed")
	}
}

func TestDropDiscardsStashedConnectionFirst(t *testing.T) {
	cap := newFakeCapability()
	eng := New[string](cap)

	id := poolid.New()
	if _, err := eng.Create(context.Background(), id, true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dbConn := cap.dbConns[id.String()]

	if err := eng.Drop(context.Background(), id, true); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if !dbConn.closed {
		t.Fatal("expected the stashed per-database connection to be closed")
	}
	if _, ok := eng.cleanConns.Load(id.String()); ok {
		t.Fatal("expected the stashed connection to be removed from the map")
	}

	found := false
	for _, s := range cap.adminConn.exec {
		if s == `DROP DATABASE "`+id.String()+`"` {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DROP DATABASE on the admin connection, got %v", cap.adminConn.exec)
	}
}

func TestInitReapsOnlyPoolNames(t *testing.T) {
	cap := newFakeCapability()
	cap.adminConn.queryResult = []string{"db_pool_bbbbbbbb_bbbb_4bbb_bbbb_bbbbbbbbbbbb", "template1"}
	eng := New[string](cap)

	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	dropped := 0
	for _, s := range cap.adminConn.exec {
		if s == `DROP DATABASE "db_pool_bbbbbbbb_bbbb_4bbb_bbbb_bbbbbbbbbbbb"` {
			dropped++
		}
		if s == `DROP DATABASE "template1"` {
			t.Fatal("must not reap a non-pool database name")
		}
	}
	if dropped != 1 {
		t.Fatalf("expected exactly one reap drop, got %d", dropped)
	}
}
