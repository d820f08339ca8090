package uniqueslug

import (
	"context"
	"errors"
	"testing"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRetriesOnDuplicate(t *testing.T) {
	taken := []string{"annual-report"}
	list := func(context.Context, string) ([]string, error) { return taken, nil }

	var tried []string
	err := Save(context.Background(), "annual-report", list, func(s string) error {
		tried = append(tried, s)
		if len(tried) == 1 {
			// another writer claimed annual-report-2 in between
			taken = append(taken, s)
			return repository.ErrDuplicateSlug
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"annual-report-2", "annual-report-3"}, tried)
}

func TestSaveGivesUp(t *testing.T) {
	list := func(context.Context, string) ([]string, error) { return nil, nil }
	calls := 0
	err := Save(context.Background(), "x", list, func(string) error {
		calls++
		return repository.ErrDuplicateSlug
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, MaxAttempts, calls)
}

func TestSavePassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	list := func(context.Context, string) ([]string, error) { return nil, nil }
	err := Save(context.Background(), "x", list, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)

	listErr := func(context.Context, string) ([]string, error) { return nil, boom }
	err = Save(context.Background(), "x", listErr, func(string) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestSaveEmptyBaseWritesOnce(t *testing.T) {
	list := func(context.Context, string) ([]string, error) {
		t.Fatal("list must not be called")
		return nil, nil
	}
	got := "unset"
	require.NoError(t, Save(context.Background(), "", list, func(s string) error {
		got = s
		return nil
	}))
	assert.Equal(t, "", got)
}
