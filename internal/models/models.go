package models

import "time"

// Character is a tracked Tibiantis character. Nullable attributes use
// pointers: a nil field means the remote source did not expose a usable
// value ("unknown"), which is not an error.
type Character struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Sex              *string    `json:"sex,omitempty"`
	Vocation         *string    `json:"vocation,omitempty"`
	Level            *int       `json:"level,omitempty"`
	World            *string    `json:"world,omitempty"`
	Residence        *string    `json:"residence,omitempty"`
	House            *string    `json:"house,omitempty"`
	GuildMembership  *string    `json:"guild_membership,omitempty"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	LastSeenLocation *string    `json:"last_seen_location,omitempty"`
}

// Enemy marks a tracked character as hostile. At most one Enemy row exists
// per character; deleting the character cascades to its Enemy row.
type Enemy struct {
	ID          int64     `json:"id"`
	CharacterID int64     `json:"character_id"`
	Reason      *string   `json:"reason,omitempty"`
	AddedBy     *string   `json:"added_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeathEvent is one row of a character's death log. Time is nil when the
// raw timestamp could not be parsed. Killer is the raw free-text cause,
// exactly as published by the source.
type DeathEvent struct {
	Time   *time.Time `json:"time,omitempty"`
	Killer string     `json:"killer"`
}

// EnemyKillMatch records that a tracked character died to someone on the
// enemy list within the correlation window. Killer keeps the original
// (unlowered) death text.
type EnemyKillMatch struct {
	Victim string     `json:"victim"`
	Time   *time.Time `json:"time,omitempty"`
	Killer string     `json:"killer"`
}

// OnlinePlayer is one row of the public online-players list.
type OnlinePlayer struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// CreateCharacterRequest registers a character for tracking by name. The
// name must resolve on the remote source before the row is created.
type CreateCharacterRequest struct {
	Name string `json:"name"`
}

// UpdateCharacterRequest is a partial update; nil fields are left untouched.
type UpdateCharacterRequest struct {
	Name             *string    `json:"name,omitempty"`
	Level            *int       `json:"level,omitempty"`
	Vocation         *string    `json:"vocation,omitempty"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	LastSeenLocation *string    `json:"last_seen_location,omitempty"`
}

// CreateEnemyRequest marks an existing tracked character as an enemy.
type CreateEnemyRequest struct {
	CharacterID int64   `json:"character_id"`
	Reason      *string `json:"reason,omitempty"`
	AddedBy     *string `json:"added_by,omitempty"`
}

// UpdateEnemyRequest is a partial update; nil fields are left untouched.
type UpdateEnemyRequest struct {
	Reason  *string `json:"reason,omitempty"`
	AddedBy *string `json:"added_by,omitempty"`
}

// RosterRefreshResult summarizes one online-roster refresh pass.
type RosterRefreshResult struct {
	Seen    int `json:"seen"`
	Added   int `json:"added"`
	Updated int `json:"updated"`
}
