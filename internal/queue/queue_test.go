package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pixora-ai/pixora/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func images(n int) []models.File {
	files := make([]models.File, n)
	for i := range files {
		files[i] = models.File{Name: fmt.Sprintf("img-%d.jpg", i+1), MIMEType: "image/jpeg", Data: []byte{byte(i)}}
	}
	return files
}

func result(names ...string) *models.AnalysisResult {
	r := &models.AnalysisResult{BatchSummary: &models.BatchSummary{Preset: models.PresetGeneric}}
	for i, name := range names {
		r.Images = append(r.Images, models.ImageResult{
			ImageIndex:    i + 1,
			InputFilename: name,
			SEO:           &models.SEOMetadata{Title: "title " + name},
		})
	}
	return r
}

func statuses(q *Queue) []Status {
	var out []Status
	for _, e := range q.Snapshot().Entries {
		out = append(out, e.Status)
	}
	return out
}

func TestAcceptFiltersNonImages(t *testing.T) {
	q := New()
	added, err := q.Accept([]models.File{
		{Name: "a.jpg", MIMEType: "image/jpeg"},
		{Name: "b.pdf", MIMEType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Equal(t, StatusIdle, added[0].Status)
	assert.NotEmpty(t, added[0].ID)

	_, err = q.Accept([]models.File{{Name: "b.pdf", MIMEType: "application/pdf"}})
	assert.ErrorIs(t, err, ErrNoImageFiles)
	assert.Equal(t, 1, q.Len())
}

func TestBatchLimit(t *testing.T) {
	t.Run("rejects the whole selection", func(t *testing.T) {
		q := New()
		_, err := q.Accept(images(7))
		require.NoError(t, err)

		_, err = q.Accept(images(4))
		assert.ErrorIs(t, err, ErrBatchLimitExceeded)
		assert.Equal(t, 7, q.Len(), "queue must be unchanged after rejection")

		_, err = q.Accept(images(3))
		require.NoError(t, err)
		assert.Equal(t, MaxBatchSize, q.Len())

		_, err = q.Accept(images(1))
		assert.ErrorIs(t, err, ErrBatchLimitExceeded)
	})

	t.Run("never exceeds the limit for any sequence", func(t *testing.T) {
		q := New()
		for _, n := range []int{3, 5, 4, 2, 1, 11, 1, 1} {
			before := q.Len()
			_, err := q.Accept(images(n))
			if before+n > MaxBatchSize {
				assert.ErrorIs(t, err, ErrBatchLimitExceeded)
				assert.Equal(t, before, q.Len())
			} else {
				assert.NoError(t, err)
			}
			assert.LessOrEqual(t, q.Len(), MaxBatchSize)
		}
	})
}

func TestAtomicCompletion(t *testing.T) {
	q := New()
	_, err := q.Accept(images(3))
	require.NoError(t, err)

	ticket, files, err := q.Begin()
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, []Status{StatusAnalyzing, StatusAnalyzing, StatusAnalyzing}, statuses(q))

	assert.True(t, q.Complete(ticket, result("img-1.jpg", "img-2.jpg", "img-3.jpg")))
	assert.Equal(t, []Status{StatusDone, StatusDone, StatusDone}, statuses(q))
	assert.False(t, q.Snapshot().InFlight)
}

func TestAtomicFailure(t *testing.T) {
	q := New()
	_, err := q.Accept(images(2))
	require.NoError(t, err)

	ticket, _, err := q.Begin()
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.True(t, q.Fail(ticket, boom))
	assert.Equal(t, []Status{StatusError, StatusError}, statuses(q))
	assert.ErrorIs(t, q.Snapshot().Err, boom)
	assert.Nil(t, q.Result())

	// A failed batch may be resubmitted.
	_, _, err = q.Begin()
	assert.NoError(t, err)
}

func TestBeginGuards(t *testing.T) {
	q := New()
	_, _, err := q.Begin()
	assert.ErrorIs(t, err, ErrEmptyQueue)

	_, err = q.Accept(images(1))
	require.NoError(t, err)
	_, _, err = q.Begin()
	require.NoError(t, err)

	_, _, err = q.Begin()
	assert.ErrorIs(t, err, ErrInFlight)

	_, err = q.Accept(images(1))
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestNewBatchDiscardsOldResult(t *testing.T) {
	q := New()
	_, err := q.Accept(images(9))
	require.NoError(t, err)
	ticket, _, err := q.Begin()
	require.NoError(t, err)
	require.True(t, q.Complete(ticket, result("img-1.jpg")))

	// A finished batch does not count against the limit of the next one.
	added, err := q.Accept(images(2))
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Equal(t, 2, q.Len())
	assert.Nil(t, q.Result())
	assert.Equal(t, []Status{StatusIdle, StatusIdle}, statuses(q))
}

func TestLateResultAfterClear(t *testing.T) {
	q := New()
	_, err := q.Accept(images(2))
	require.NoError(t, err)
	ticket, _, err := q.Begin()
	require.NoError(t, err)

	q.Clear()
	_, err = q.Accept(images(1))
	require.NoError(t, err)

	assert.False(t, q.Complete(ticket, result("img-1.jpg", "img-2.jpg")))
	assert.Nil(t, q.Result())
	assert.Equal(t, []Status{StatusIdle}, statuses(q))
}

func TestRemove(t *testing.T) {
	q := New()
	added, err := q.Accept(images(3))
	require.NoError(t, err)

	require.NoError(t, q.Remove(added[1].ID))
	assert.Equal(t, 2, q.Len())
	assert.ErrorIs(t, q.Remove(added[1].ID), ErrEntryNotFound)

	// Removal while analyzing only drops the bookkeeping entry.
	ticket, _, err := q.Begin()
	require.NoError(t, err)
	require.NoError(t, q.Remove(added[0].ID))
	assert.True(t, q.Complete(ticket, result("img-1.jpg", "img-3.jpg")))
	assert.Equal(t, []Status{StatusDone}, statuses(q))
}

func TestRemoveDuringFlightKeepsResult(t *testing.T) {
	q := New()
	added, err := q.Accept(images(3))
	require.NoError(t, err)
	ticket, _, err := q.Begin()
	require.NoError(t, err)

	require.NoError(t, q.Remove(added[1].ID))
	assert.Equal(t, []Status{StatusAnalyzing, StatusAnalyzing}, statuses(q))

	require.True(t, q.Complete(ticket, result("img-1.jpg", "img-2.jpg", "img-3.jpg")))
	assert.Equal(t, []Status{StatusDone, StatusDone}, statuses(q))
	require.NotNil(t, q.Result())
	assert.Len(t, q.Result().Images, 3)

	third, ok := q.ResultFor(added[2].ID)
	require.True(t, ok)
	assert.Equal(t, "img-3.jpg", third.InputFilename)
	_, ok = q.ResultFor(added[1].ID)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	q := New()
	_, err := q.Accept(images(2))
	require.NoError(t, err)
	ticket, _, err := q.Begin()
	require.NoError(t, err)
	q.Fail(ticket, errors.New("boom"))

	q.Clear()
	state := q.Snapshot()
	assert.Empty(t, state.Entries)
	assert.NoError(t, state.Err)
	assert.Nil(t, state.Result)
}

func TestResultForUsesPosition(t *testing.T) {
	q := New()
	// Two files share a name; only the position tells them apart.
	files := []models.File{
		{Name: "photo.jpg", MIMEType: "image/jpeg"},
		{Name: "photo.jpg", MIMEType: "image/jpeg"},
	}
	added, err := q.Accept(files)
	require.NoError(t, err)
	ticket, _, err := q.Begin()
	require.NoError(t, err)

	r := result("photo.jpg", "photo.jpg")
	r.Images[0], r.Images[1] = r.Images[1], r.Images[0]
	require.True(t, q.Complete(ticket, r))

	first, ok := q.ResultFor(added[0].ID)
	require.True(t, ok)
	assert.Equal(t, 1, first.ImageIndex)

	second, ok := q.ResultFor(added[1].ID)
	require.True(t, ok)
	assert.Equal(t, 2, second.ImageIndex)

	_, ok = q.ResultFor("missing")
	assert.False(t, ok)
}
