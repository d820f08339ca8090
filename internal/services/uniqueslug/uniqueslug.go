// Package uniqueslug writes documents whose slug must be unique across a
// whole collection, retrying when a concurrent writer claims the same slug.
package uniqueslug

import (
	"context"
	"errors"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/metrics"
	"github.com/hasakeplay/cms-backend/pkg/slug"
	"github.com/sirupsen/logrus"
)

const MaxAttempts = 5

// ErrExhausted is returned when every attempt lost the race.
var ErrExhausted = errors.New("slug still taken after retries")

// Lister returns the slugs in scope matching pattern.
type Lister func(ctx context.Context, pattern string) ([]string, error)

// Resolve returns base or its next free numbered variant.
func Resolve(ctx context.Context, base string, list Lister) (string, error) {
	taken, err := list(ctx, slug.Pattern(base))
	if err != nil {
		return "", err
	}
	return slug.Next(base, taken), nil
}

// Save resolves a slug for base and calls write with it. When write fails
// with repository.ErrDuplicateSlug the slug is resolved again and the write
// retried, up to MaxAttempts times. An empty base writes once with slug "".
func Save(ctx context.Context, base string, list Lister, write func(slug string) error) error {
	if base == "" {
		return write("")
	}
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		s, err := Resolve(ctx, base, list)
		if err != nil {
			return err
		}
		err = write(s)
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return err
		}
		metrics.SlugRetriesTotal.Inc()
		logrus.WithFields(logrus.Fields{"slug": s, "attempt": attempt}).Warn("Slug collision, resolving again")
	}
	return ErrExhausted
}
