package review

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/model"
)

func testBundle(client string) *model.DraftBundle {
	return &model.DraftBundle{
		ClientName: client,
		Questions: []model.ReportSection{
			{ID: "q1", Title: "Q1", Options: []string{"a", "b"}},
		},
	}
}

func TestStore_CreateGet(t *testing.T) {
	s := NewStore()
	sess := s.Create(testBundle("Acme"))

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Bundle.ClientName)
	assert.Empty(t, got.Chosen)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Choose(t *testing.T) {
	s := NewStore()
	sess := s.Create(testBundle("Acme"))

	next, err := s.Choose(sess.ID, "q1", 1)
	require.NoError(t, err)
	assert.Equal(t, "b", next.Chosen["q1"])
	assert.Empty(t, sess.Chosen, "earlier snapshot is unchanged")

	rep := next.Resolved()
	assert.Equal(t, "b", rep.Questions[0].Text)

	_, err = s.Choose(sess.ID, "q1", 5)
	assert.Error(t, err)

	_, err = s.Choose("missing", "q1", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceResetsChoices(t *testing.T) {
	s := NewStore()
	sess := s.Create(testBundle("Acme"))
	_, err := s.Choose(sess.ID, "q1", 1)
	require.NoError(t, err)

	next, err := s.Replace(sess.ID, testBundle("Globex"))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, next.ID)
	assert.Equal(t, "Globex", next.Bundle.ClientName)
	assert.Empty(t, next.Chosen)
}

func TestStore_AttachDrilldown(t *testing.T) {
	s := NewStore()
	b := testBundle("Acme")
	sess := s.Create(b)

	table := &drilldown.Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}}
	next, err := s.AttachDrilldown(sess.ID, table)
	require.NoError(t, err)
	assert.Same(t, table, next.Bundle.Drilldown)
	assert.Nil(t, b.Drilldown, "uploaded bundle is not modified")
}

func TestStore_ListAndDelete(t *testing.T) {
	s := NewStore()
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first := s.Create(testBundle("First"))
	second := s.Create(testBundle("Second"))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err := s.Choose(first.ID, "q1", 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, s.List()[0].ID)

	s.Delete(first.ID)
	s.Delete("missing")
	assert.Len(t, s.List(), 1)
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	sess := s.Create(testBundle("Acme"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Choose(sess.ID, "q1", i%2)
			assert.NoError(t, err)
			_, err = s.Get(sess.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, got.Chosen["q1"])
}
