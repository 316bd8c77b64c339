package migration

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type memTracker struct {
	records []Record
}

func (t *memTracker) Ran(context.Context) ([]Record, error) {
	return append([]Record(nil), t.records...), nil
}

func (t *memTracker) Record(_ context.Context, rec Record) error {
	t.records = append(t.records, rec)
	return nil
}

func (t *memTracker) Forget(_ context.Context, name string) error {
	for i, r := range t.records {
		if r.Name == name {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return nil
		}
	}
	return nil
}

type step struct {
	log  *[]string
	name string
	fail bool
}

func (s *step) Up(context.Context, *mongo.Database) error {
	if s.fail {
		return errors.New("boom")
	}
	*s.log = append(*s.log, "up:"+s.name)
	return nil
}

func (s *step) Down(context.Context, *mongo.Database) error {
	*s.log = append(*s.log, "down:"+s.name)
	return nil
}

func TestRunAppliesPendingInNameOrder(t *testing.T) {
	var log []string
	tr := &memTracker{}
	r := NewRunner(nil, tr, []Entry{
		{Name: "002_b", Migration: &step{log: &log, name: "b"}},
		{Name: "001_a", Migration: &step{log: &log, name: "a"}},
	})
	r.SetOutput(&bytes.Buffer{})

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"up:a", "up:b"}, log)
	require.Len(t, tr.records, 2)
	assert.Equal(t, 1, tr.records[0].Batch)

	n, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRollbackReversesLastBatchOnly(t *testing.T) {
	var log []string
	tr := &memTracker{}
	entries := []Entry{{Name: "001_a", Migration: &step{log: &log, name: "a"}}}
	r := NewRunner(nil, tr, entries)
	r.SetOutput(&bytes.Buffer{})
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	entries = append(entries,
		Entry{Name: "002_b", Migration: &step{log: &log, name: "b"}},
		Entry{Name: "003_c", Migration: &step{log: &log, name: "c"}},
	)
	r = NewRunner(nil, tr, entries)
	r.SetOutput(&bytes.Buffer{})
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	log = nil
	n, err := r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"down:c", "down:b"}, log)
	require.Len(t, tr.records, 1)
	assert.Equal(t, "001_a", tr.records[0].Name)
}

func TestRunStopsAtFailure(t *testing.T) {
	var log []string
	tr := &memTracker{}
	r := NewRunner(nil, tr, []Entry{
		{Name: "001_a", Migration: &step{log: &log, name: "a"}},
		{Name: "002_bad", Migration: &step{log: &log, name: "bad", fail: true}},
	})
	r.SetOutput(&bytes.Buffer{})

	n, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, tr.records, 1)
}

func TestRollbackWithNothingApplied(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(nil, &memTracker{}, nil)
	r.SetOutput(&out)

	n, err := r.Rollback(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "Nothing to roll back")
}
