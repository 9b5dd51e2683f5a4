package tracker

import (
	"strings"
	"time"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// killerDelimiter splits a death description into cause and attribution.
// The source authors it lower-case ("Killed at Level 45 by Evil Bob.").
const killerDelimiter = "by"

// conjunction joins killer names in compound kills.
const conjunction = " and "

// ExtractCandidateKillers pulls candidate killer names out of a raw death
// description: the text after the first occurrence of the "by" delimiter,
// with trailing punctuation stripped, lower-cased and split on " and ".
// Returns nil when the death is not attributable (environmental deaths,
// "Died of life loss.").
//
// This is a heuristic over free text, not a grammar; keep it isolated here
// so it can be tested against recorded real-world strings.
func ExtractCandidateKillers(raw string) []string {
	idx := strings.Index(raw, killerDelimiter)
	if idx < 0 {
		return nil
	}

	attribution := raw[idx+len(killerDelimiter):]
	attribution = strings.TrimRight(attribution, " \t.,!")
	attribution = strings.ToLower(strings.TrimSpace(attribution))
	if attribution == "" {
		return nil
	}

	parts := strings.Split(attribution, conjunction)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// EnemySet is a case-insensitive membership set of enemy names.
type EnemySet map[string]struct{}

// NewEnemySet lower-cases the given names into a lookup set.
func NewEnemySet(names []string) EnemySet {
	set := make(EnemySet, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

// Contains reports whether the (already lower-cased) name is an enemy.
func (s EnemySet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Correlate matches each character's recent deaths against the enemy set
// within a trailing window ending at now. Events with an unknown time or
// older than the window are discarded. Each event yields at most one match:
// the scan stops at the first candidate found in the enemy set, so an event
// with several enemy killers is still reported once.
//
// Pure with respect to its inputs; fetch failures in results are skipped
// (the caller logs them).
func Correlate(roster []*models.Character, results []FetchResult, enemies EnemySet, window time.Duration, now time.Time) []models.EnemyKillMatch {
	cutoff := now.Add(-window)

	var matches []models.EnemyKillMatch
	for i, character := range roster {
		if i >= len(results) || results[i].Err != nil {
			continue
		}

		for _, death := range results[i].Deaths {
			if death.Time == nil || death.Time.Before(cutoff) {
				continue
			}

			for _, candidate := range ExtractCandidateKillers(death.Killer) {
				if enemies.Contains(candidate) {
					matches = append(matches, models.EnemyKillMatch{
						Victim: character.Name,
						Time:   death.Time,
						Killer: death.Killer,
					})
					break
				}
			}
		}
	}
	return matches
}
