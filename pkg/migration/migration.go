// Package migration runs versioned changes against the MongoDB database.
//
// Usage (in database/migrations):
//
//	func init() {
//	    migration.Register("20250101000000_create_indexes", &CreateIndexes{})
//	}
//
//	type CreateIndexes struct{}
//	func (m *CreateIndexes) Up(ctx context.Context, db *mongo.Database) error { ... }
//	func (m *CreateIndexes) Down(ctx context.Context, db *mongo.Database) error { ... }
//
// Run from CLI:
//
//	cafe migrate             // run all pending
//	cafe migrate --rollback  // roll back the last batch
package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aniicone/cafe-api/pkg/logger"
)

// Collection holds one document per applied migration.
const Collection = "migrations"

// Migration is the interface every migration must implement.
type Migration interface {
	Up(ctx context.Context, db *mongo.Database) error
	Down(ctx context.Context, db *mongo.Database) error
}

// Record is the tracking document for an applied migration.
type Record struct {
	Name  string    `bson:"_id"`
	Batch int       `bson:"batch"`
	RunAt time.Time `bson:"runAt"`
}

// Tracker stores which migrations have run.
type Tracker interface {
	Ran(ctx context.Context) ([]Record, error)
	Record(ctx context.Context, rec Record) error
	Forget(ctx context.Context, name string) error
}

// ── Registry ─────────────────────────────────────────────────────────────────

// Entry pairs a migration with its timestamp-prefixed name.
type Entry struct {
	Name      string
	Migration Migration
}

var (
	mu       sync.Mutex
	registry []Entry
)

// Register adds a migration to the global registry. Call it from init().
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, Entry{Name: name, Migration: m})
}

// Registered returns a copy of the global registry.
func Registered() []Entry {
	mu.Lock()
	defer mu.Unlock()
	return append([]Entry(nil), registry...)
}

// ── Runner ───────────────────────────────────────────────────────────────────

type Runner struct {
	db      *mongo.Database
	tracker Tracker
	entries []Entry
	out     io.Writer
	now     func() time.Time
}

// New returns a Runner over the global registry that tracks progress in
// the migrations collection of db.
func New(db *mongo.Database) *Runner {
	return NewRunner(db, NewMongoTracker(db), Registered())
}

func NewRunner(db *mongo.Database, tracker Tracker, entries []Entry) *Runner {
	return &Runner{db: db, tracker: tracker, entries: entries, out: os.Stdout, now: time.Now}
}

// SetOutput redirects progress lines.
func (r *Runner) SetOutput(w io.Writer) { r.out = w }

// Pending returns migrations that have not run yet, ordered by name.
func (r *Runner) Pending(ctx context.Context) ([]Entry, error) {
	ran, err := r.tracker.Ran(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(ran))
	for _, rec := range ran {
		done[rec.Name] = true
	}

	var pending []Entry
	for _, e := range r.entries {
		if !done[e.Name] {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Name < pending[j].Name })
	return pending, nil
}

// Run applies every pending migration as one batch and returns how many ran.
func (r *Runner) Run(ctx context.Context) (int, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, err
	}
	batch++

	for i, e := range pending {
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", e.Name)
		if err := e.Migration.Up(ctx, r.db); err != nil {
			return i, fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		if err := r.tracker.Record(ctx, Record{Name: e.Name, Batch: batch, RunAt: r.now()}); err != nil {
			return i, fmt.Errorf("migration: record %s: %w", e.Name, err)
		}
		fmt.Fprintf(r.out, "  ✅ Migrated:  %s\n", e.Name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	ran, err := r.tracker.Ran(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch applied: %w", err)
	}
	last := 0
	for _, rec := range ran {
		if rec.Batch > last {
			last = rec.Batch
		}
	}
	if last == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var names []string
	for _, rec := range ran {
		if rec.Batch == last {
			names = append(names, rec.Name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	known := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		known[e.Name] = e.Migration
	}

	for i, name := range names {
		m, ok := known[name]
		if !ok {
			return i, fmt.Errorf("migration: cannot roll back %s: not registered", name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", name)
		if err := m.Down(ctx, r.db); err != nil {
			return i, fmt.Errorf("migration: %s down: %w", name, err)
		}
		if err := r.tracker.Forget(ctx, name); err != nil {
			return i, err
		}
		fmt.Fprintf(r.out, "  ✅ Rolled back:  %s\n", name)
	}

	logger.Info("migration: rolled back", "count", len(names), "batch", last)
	return len(names), nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	ran, err := r.tracker.Ran(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch applied: %w", err)
	}
	last := 0
	for _, rec := range ran {
		if rec.Batch > last {
			last = rec.Batch
		}
	}
	return last, nil
}

// ── Mongo tracker ────────────────────────────────────────────────────────────

type MongoTracker struct {
	col *mongo.Collection
}

func NewMongoTracker(db *mongo.Database) *MongoTracker {
	return &MongoTracker{col: db.Collection(Collection)}
}

func (t *MongoTracker) Ran(ctx context.Context) ([]Record, error) {
	cur, err := t.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *MongoTracker) Record(ctx context.Context, rec Record) error {
	_, err := t.col.InsertOne(ctx, rec)
	return err
}

func (t *MongoTracker) Forget(ctx context.Context, name string) error {
	_, err := t.col.DeleteOne(ctx, bson.M{"_id": name})
	return err
}
