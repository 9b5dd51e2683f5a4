package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// Header markers. Every published report starts with its marker so the
// next publish cycle can find and replace it; they must never change
// between releases or stale reports stop being cleaned up.
const (
	KillsMarker  = "📊 **ENEMY KILLS TABLE** 📊"
	RosterMarker = "📊 **ENEMY CHARACTERS LIST** 📊"
)

// EnemyRosterRow is one line of the enemy roster report.
type EnemyRosterRow struct {
	Name     string
	Level    *int
	Vocation *string
	Reason   *string
	AddedBy  *string
}

// BuildKillsReport renders the enemy-kill-matches table, newest first,
// events with unknown time last. An empty batch still renders the marker
// plus a placeholder line.
func BuildKillsReport(matches []models.EnemyKillMatch) string {
	var sb strings.Builder
	sb.WriteString(KillsMarker)
	sb.WriteString("\n\n")

	if len(matches) == 0 {
		sb.WriteString("No enemy kills recorded recently.")
		return sb.String()
	}

	sorted := make([]models.EnemyKillMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Time, sorted[j].Time
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})

	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-30s %-20s %-20s\n", "Killer", "Victim", "Time"))
	sb.WriteString(strings.Repeat("-", 70) + "\n")

	for _, match := range sorted {
		timeStr := "Unknown"
		if match.Time != nil {
			timeStr = match.Time.Format("2006-01-02 15:04")
		}
		sb.WriteString(fmt.Sprintf("%-30s %-20s %-20s\n",
			truncate(displayKiller(match.Killer), 29),
			truncate(match.Victim, 19),
			timeStr,
		))
	}

	sb.WriteString("```")
	return sb.String()
}

// BuildRosterReport renders the enemy roster table sorted by level
// descending; an unknown level sorts as 0.
func BuildRosterReport(rows []EnemyRosterRow) string {
	var sb strings.Builder
	sb.WriteString(RosterMarker)
	sb.WriteString("\n\n")

	if len(rows) == 0 {
		sb.WriteString("No enemy characters currently tracked.")
		return sb.String()
	}

	sorted := make([]EnemyRosterRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return levelOrZero(sorted[i].Level) > levelOrZero(sorted[j].Level)
	})

	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-20s %-6s %-12s %-30s %-15s\n", "Name", "Level", "Vocation", "Reason", "Added By"))
	sb.WriteString(strings.Repeat("-", 86) + "\n")

	for _, row := range sorted {
		level := "?"
		if row.Level != nil {
			level = fmt.Sprintf("%d", *row.Level)
		}
		sb.WriteString(fmt.Sprintf("%-20s %-6s %-12s %-30s %-15s\n",
			truncate(row.Name, 19),
			truncate(level, 5),
			truncate(orDefault(row.Vocation, "Unknown"), 11),
			truncate(orDefault(row.Reason, "No reason provided"), 29),
			truncate(orDefault(row.AddedBy, "Unknown"), 14),
		))
	}

	sb.WriteString("```")
	return sb.String()
}

func levelOrZero(level *int) int {
	if level == nil {
		return 0
	}
	return *level
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// truncate cuts a value to the declared column width; values are never
// wrapped.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// displayKiller extracts the attribution part of the raw death text for
// the table, title-cased for readability. Falls back to the raw text for
// unattributable deaths.
func displayKiller(raw string) string {
	idx := strings.Index(raw, "by")
	if idx < 0 {
		return raw
	}
	attribution := strings.TrimSpace(strings.TrimRight(raw[idx+len("by"):], " \t.,!"))
	if attribution == "" {
		return raw
	}
	return capitalizeWords(attribution)
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		head := strings.ToUpper(string(runes[0]))
		words[i] = head + string(runes[1:])
	}
	return strings.Join(words, " ")
}
