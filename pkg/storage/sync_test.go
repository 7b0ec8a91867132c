package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/pkg/schema"
)

// rawUsersDDL is the live shape matching userTable exactly.
const rawUsersDDL = `CREATE TABLE users (
	id INTEGER NOT NULL PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER
)`

func forceDropColumn(s *Storage, available bool) {
	s.dropColumnOverride = &available
}

func TestSyncCreateThenInSync(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})

	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.NewTableCreated, res["users"])

	res, err = s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.AlreadyInSync, res["users"])
}

func TestSyncMatchesHandWrittenDDL(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s, rawUsersDDL)

	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.AlreadyInSync, res["users"])
}

func TestSyncSimulateIsReadOnly(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})

	res, err := s.SyncSchemaSimulate(false)
	require.NoError(t, err)
	assert.Equal(t, schema.NewTableCreated, res["users"])

	exists, err := s.TableExists("users")
	require.NoError(t, err)
	assert.False(t, exists, "simulate must not create tables")

	// Simulating twice reports the same thing.
	res, err = s.SyncSchemaSimulate(false)
	require.NoError(t, err)
	assert.Equal(t, schema.NewTableCreated, res["users"])

	_, err = s.SyncSchema(false)
	require.NoError(t, err)
	res, err = s.SyncSchemaSimulate(false)
	require.NoError(t, err)
	assert.Equal(t, schema.AlreadyInSync, res["users"])
}

func TestSyncAddsNullableColumn(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users (id, name) VALUES (1, 'Ada')`,
	)

	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.NewColumnsAdded, res["users"])

	got, err := Get[user](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Nil(t, got.Age, "added column backfills as NULL")
}

func TestSyncAddsNotNullColumnWithDefault(t *testing.T) {
	type cityUser struct {
		ID   int64
		Name string
		City string
	}
	tbl, err := schema.NewTable("users", func() any { return new(cityUser) }, []schema.Column{
		schema.Col("id", "INTEGER", schema.Direct(func(u *cityUser) *int64 { return &u.ID }), schema.PrimaryKey()),
		schema.Col("name", "TEXT", schema.Direct(func(u *cityUser) *string { return &u.Name })),
		schema.Col("city", "TEXT", schema.Direct(func(u *cityUser) *string { return &u.City }), schema.Default("'unknown'")),
	})
	require.NoError(t, err)

	s := newStorage(t, []*schema.Table{tbl})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users (id, name) VALUES (1, 'Ada')`,
	)

	res, err := s.SyncSchema(true)
	require.NoError(t, err)
	assert.Equal(t, schema.NewColumnsAdded, res["users"])

	got, err := Get[cityUser](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.City, "existing rows take the declared default")
}

func TestSyncNotNullColumnWithoutDefaultForcesRecreate(t *testing.T) {
	type mailUser struct {
		ID    int64
		Name  string
		Email string
	}
	tbl, err := schema.NewTable("users", func() any { return new(mailUser) }, []schema.Column{
		schema.Col("id", "INTEGER", schema.Direct(func(u *mailUser) *int64 { return &u.ID }), schema.PrimaryKey()),
		schema.Col("name", "TEXT", schema.Direct(func(u *mailUser) *string { return &u.Name })),
		schema.Col("email", "TEXT", schema.Direct(func(u *mailUser) *string { return &u.Email })),
	})
	require.NoError(t, err)

	s := newStorage(t, []*schema.Table{tbl})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users (id, name) VALUES (1, 'Ada')`,
	)

	// Existing rows can never satisfy the new constraint, so the data
	// is lost even when the caller asked to preserve it.
	res, err := s.SyncSchema(true)
	require.NoError(t, err)
	assert.Equal(t, schema.DroppedAndRecreated, res["users"])

	n, err := Count[mailUser](s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncTypeMismatchForcesRecreate(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL, age TEXT)`,
		`INSERT INTO users (id, name, age) VALUES (1, 'Ada', 'old')`,
	)

	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.DroppedAndRecreated, res["users"])

	n, err := Count[user](s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncNotNullFlipForcesRecreate(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT, age INTEGER)`,
	)

	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.DroppedAndRecreated, res["users"])
}

func TestSyncPreserveRemovesExcessColumnsViaBackup(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL, age INTEGER, legacy TEXT)`,
		`INSERT INTO users (id, name, age, legacy) VALUES (1, 'Ada', 36, 'junk')`,
		`INSERT INTO users (id, name, age, legacy) VALUES (2, 'Grace', NULL, 'junk')`,
	)

	res, err := s.SyncSchema(true)
	require.NoError(t, err)
	assert.Equal(t, schema.OldColumnsRemoved, res["users"])

	assert.Equal(t, []string{"id", "name", "age"}, liveColumnNames(t, s, "users"))

	got, err := Get[user](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	require.NotNil(t, got.Age)
	assert.Equal(t, int64(36), *got.Age)

	// The backup name was transient.
	exists, err := s.TableExists("users_backup")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSyncExcessColumnsWithoutPreserve(t *testing.T) {
	setup := func(t *testing.T) *Storage {
		s := newStorage(t, []*schema.Table{userTable(t)})
		rawExec(t, s,
			`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL, age INTEGER, legacy TEXT)`,
			`INSERT INTO users (id, name, age, legacy) VALUES (1, 'Ada', 36, 'junk')`,
		)
		return s
	}

	t.Run("native drop keeps rows", func(t *testing.T) {
		s := setup(t)
		forceDropColumn(s, true)

		res, err := s.SyncSchema(false)
		require.NoError(t, err)
		assert.Equal(t, schema.OldColumnsRemoved, res["users"])

		n, err := Count[user](s)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("no native drop falls back to recreate", func(t *testing.T) {
		s := setup(t)
		forceDropColumn(s, false)

		res, err := s.SyncSchema(false)
		require.NoError(t, err)
		assert.Equal(t, schema.DroppedAndRecreated, res["users"])

		n, err := Count[user](s)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSyncAddAndRemoveTogether(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL, legacy TEXT)`,
		`INSERT INTO users (id, name, legacy) VALUES (1, 'Ada', 'junk')`,
	)

	res, err := s.SyncSchema(true)
	require.NoError(t, err)
	assert.Equal(t, schema.NewColumnsAddedAndOldColumnsRemoved, res["users"])

	assert.Equal(t, []string{"id", "name", "age"}, liveColumnNames(t, s, "users"))
	got, err := Get[user](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Nil(t, got.Age)
}

func TestBackupNamingSkipsTakenNames(t *testing.T) {
	s := newStorage(t, []*schema.Table{userTable(t)})
	rawExec(t, s,
		`CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, name TEXT NOT NULL, age INTEGER, legacy TEXT)`,
		`INSERT INTO users (id, name, age) VALUES (1, 'Ada', 36)`,
		`CREATE TABLE users_backup (marker TEXT)`,
		`INSERT INTO users_backup (marker) VALUES ('keep me')`,
		`CREATE TABLE users_backup1 (marker TEXT)`,
	)

	res, err := s.SyncSchema(true)
	require.NoError(t, err)
	assert.Equal(t, schema.OldColumnsRemoved, res["users"])

	// The unrelated tables squatting on backup names are untouched and
	// the transient users_backup2 is gone.
	lease, err := s.conn.Lease()
	require.NoError(t, err)
	defer lease.Close()
	var marker string
	require.NoError(t, lease.DB().QueryRow(`SELECT marker FROM users_backup`).Scan(&marker))
	assert.Equal(t, "keep me", marker)

	exists, err := s.TableExists("users_backup1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.TableExists("users_backup2")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := Get[user](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestSyncGeneratedColumns(t *testing.T) {
	type box struct {
		ID     int64
		W      int64
		H      int64
		Area   int64
		Volume int64
	}
	cols := []schema.Column{
		schema.Col("id", "INTEGER", schema.Direct(func(b *box) *int64 { return &b.ID }), schema.PrimaryKey()),
		schema.Col("w", "INTEGER", schema.Direct(func(b *box) *int64 { return &b.W })),
		schema.Col("h", "INTEGER", schema.Direct(func(b *box) *int64 { return &b.H })),
		schema.Col("area", "INTEGER", schema.Direct(func(b *box) *int64 { return &b.Area }),
			schema.GeneratedAlwaysAs("w * h", schema.GeneratedVirtual)),
	}
	tbl, err := schema.NewTable("boxes", func() any { return new(box) }, cols)
	require.NoError(t, err)

	s := newStorage(t, []*schema.Table{tbl})
	res, err := s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.NewTableCreated, res["boxes"])

	// Generated columns never bind on writes and read back computed.
	_, err = s.Insert(&box{W: 3, H: 4})
	require.NoError(t, err)
	got, err := Get[box](s, int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Area)

	res, err = s.SyncSchema(false)
	require.NoError(t, err)
	assert.Equal(t, schema.AlreadyInSync, res["boxes"])

	t.Run("appending a stored generated column recreates", func(t *testing.T) {
		withVolume := append(cols[:len(cols):len(cols)],
			schema.Col("volume", "INTEGER", schema.Direct(func(b *box) *int64 { return &b.Volume }),
				schema.GeneratedAlwaysAs("w * h * 2", schema.GeneratedStored)))
		tbl2, err := schema.NewTable("boxes", func() any { return new(box) }, withVolume)
		require.NoError(t, err)

		s2 := storageAt(t, s.conn.Path(), []*schema.Table{tbl2})
		res, err := s2.SyncSchema(true)
		require.NoError(t, err)
		assert.Equal(t, schema.DroppedAndRecreated, res["boxes"])
	})
}

func TestSyncStopsAtFirstError(t *testing.T) {
	good := userTable(t)

	type broken struct{ X int64 }
	bad, err := schema.NewTable("broken", func() any { return new(broken) }, []schema.Column{
		// The type text is injected into the DDL verbatim, so this
		// produces an unparsable statement.
		schema.Col("x", "INTEGER )", schema.Direct(func(b *broken) *int64 { return &b.X })),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), uuid.NewString()+".db")
	s, err := New(path, []*schema.Table{good, bad})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	res, err := s.SyncSchema(false)
	require.Error(t, err)
	assert.Equal(t, schema.NewTableCreated, res["users"], "tables before the failure stay reported")
	_, reported := res["broken"]
	assert.False(t, reported)
}
