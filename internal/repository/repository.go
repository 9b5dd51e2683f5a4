package repository

import (
	"context"
	"errors"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrCharacterExists   = errors.New("character already exists")
	ErrEnemyNotFound     = errors.New("enemy not found")
	ErrEnemyExists       = errors.New("character is already marked as an enemy")
)

// Repository is the persistent store of tracked characters and their enemy
// markings. Every operation is a single short-lived unit of work; no
// multi-row transactional guarantees beyond single-row commit/rollback.
type Repository interface {
	ListCharacters(ctx context.Context) ([]*models.Character, error)
	ListCharactersMinLevel(ctx context.Context, minLevel int) ([]*models.Character, error)
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
	GetCharacterByName(ctx context.Context, name string) (*models.Character, error)
	CharacterExistsByName(ctx context.Context, name string) (bool, error)
	CreateCharacter(ctx context.Context, c *models.Character) error
	UpdateCharacter(ctx context.Context, id int64, upd *models.UpdateCharacterRequest) (*models.Character, error)
	DeleteCharacter(ctx context.Context, id int64) error

	ListEnemies(ctx context.Context) ([]*models.Enemy, error)
	GetEnemy(ctx context.Context, id int64) (*models.Enemy, error)
	GetEnemyByCharacterID(ctx context.Context, characterID int64) (*models.Enemy, error)
	CreateEnemy(ctx context.Context, e *models.Enemy) error
	UpdateEnemy(ctx context.Context, id int64, upd *models.UpdateEnemyRequest) (*models.Enemy, error)
	DeleteEnemy(ctx context.Context, id int64) error

	Close()
}
