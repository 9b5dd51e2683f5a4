package tracker

import (
	"context"
	"sync"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// DeathSource fetches a character's recent death log.
type DeathSource interface {
	CharacterDeaths(ctx context.Context, name string) ([]models.DeathEvent, error)
}

// FetchResult is one slot of the fan-out result vector. Exactly one of
// Deaths/Err is meaningful; a captured error never aborts the batch.
type FetchResult struct {
	Deaths []models.DeathEvent
	Err    error
}

// FetchDeaths fetches the death log for every character concurrently and
// returns a result vector index-aligned to the roster. All fetches are
// issued before any is awaited; one character's failure leaves the other
// slots untouched.
func FetchDeaths(ctx context.Context, source DeathSource, roster []*models.Character) []FetchResult {
	results := make([]FetchResult, len(roster))

	var wg sync.WaitGroup
	for i, character := range roster {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			deaths, err := source.CharacterDeaths(ctx, name)
			results[i] = FetchResult{Deaths: deaths, Err: err}
		}(i, character.Name)
	}
	wg.Wait()

	return results
}
