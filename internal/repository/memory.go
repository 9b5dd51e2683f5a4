package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// InMemoryRepository is a map-backed Repository used by tests and by the
// seed command when no database is configured.
type InMemoryRepository struct {
	mu         sync.RWMutex
	characters map[int64]*models.Character
	enemies    map[int64]*models.Enemy
	nextCharID int64
	nextEnemID int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		characters: make(map[int64]*models.Character),
		enemies:    make(map[int64]*models.Enemy),
		nextCharID: 1,
		nextEnemID: 1,
	}
}

func (r *InMemoryRepository) Close() {}

func (r *InMemoryRepository) ListCharacters(ctx context.Context) ([]*models.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	characters := make([]*models.Character, 0, len(r.characters))
	for id := int64(1); id < r.nextCharID; id++ {
		if c, ok := r.characters[id]; ok {
			copied := *c
			characters = append(characters, &copied)
		}
	}
	return characters, nil
}

func (r *InMemoryRepository) ListCharactersMinLevel(ctx context.Context, minLevel int) ([]*models.Character, error) {
	all, err := r.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	var characters []*models.Character
	for _, c := range all {
		if c.Level != nil && *c.Level >= minLevel {
			characters = append(characters, c)
		}
	}
	return characters, nil
}

func (r *InMemoryRepository) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.characters[id]
	if !ok {
		return nil, ErrCharacterNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *InMemoryRepository) GetCharacterByName(ctx context.Context, name string) (*models.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.characters {
		if strings.EqualFold(c.Name, name) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrCharacterNotFound
}

func (r *InMemoryRepository) CharacterExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.GetCharacterByName(ctx, name)
	if err == ErrCharacterNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *InMemoryRepository) CreateCharacter(ctx context.Context, c *models.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.characters {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrCharacterExists
		}
	}

	c.ID = r.nextCharID
	r.nextCharID++
	copied := *c
	r.characters[c.ID] = &copied
	return nil
}

func (r *InMemoryRepository) UpdateCharacter(ctx context.Context, id int64, upd *models.UpdateCharacterRequest) (*models.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.characters[id]
	if !ok {
		return nil, ErrCharacterNotFound
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Level != nil {
		c.Level = upd.Level
	}
	if upd.Vocation != nil {
		c.Vocation = upd.Vocation
	}
	if upd.LastLogin != nil {
		c.LastLogin = upd.LastLogin
	}
	if upd.LastSeenLocation != nil {
		c.LastSeenLocation = upd.LastSeenLocation
	}

	copied := *c
	return &copied, nil
}

func (r *InMemoryRepository) DeleteCharacter(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.characters[id]; !ok {
		return ErrCharacterNotFound
	}
	delete(r.characters, id)

	// Cascade to the enemy marking, mirroring the foreign key.
	for enemyID, e := range r.enemies {
		if e.CharacterID == id {
			delete(r.enemies, enemyID)
		}
	}
	return nil
}

func (r *InMemoryRepository) ListEnemies(ctx context.Context) ([]*models.Enemy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enemies := make([]*models.Enemy, 0, len(r.enemies))
	for id := int64(1); id < r.nextEnemID; id++ {
		if e, ok := r.enemies[id]; ok {
			copied := *e
			enemies = append(enemies, &copied)
		}
	}
	return enemies, nil
}

func (r *InMemoryRepository) GetEnemy(ctx context.Context, id int64) (*models.Enemy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.enemies[id]
	if !ok {
		return nil, ErrEnemyNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *InMemoryRepository) GetEnemyByCharacterID(ctx context.Context, characterID int64) (*models.Enemy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.enemies {
		if e.CharacterID == characterID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, ErrEnemyNotFound
}

func (r *InMemoryRepository) CreateEnemy(ctx context.Context, e *models.Enemy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.characters[e.CharacterID]; !ok {
		return ErrCharacterNotFound
	}
	for _, existing := range r.enemies {
		if existing.CharacterID == e.CharacterID {
			return ErrEnemyExists
		}
	}

	e.ID = r.nextEnemID
	r.nextEnemID++
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	copied := *e
	r.enemies[e.ID] = &copied
	return nil
}

func (r *InMemoryRepository) UpdateEnemy(ctx context.Context, id int64, upd *models.UpdateEnemyRequest) (*models.Enemy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enemies[id]
	if !ok {
		return nil, ErrEnemyNotFound
	}

	if upd.Reason != nil {
		e.Reason = upd.Reason
	}
	if upd.AddedBy != nil {
		e.AddedBy = upd.AddedBy
	}
	e.UpdatedAt = time.Now().UTC()

	copied := *e
	return &copied, nil
}

func (r *InMemoryRepository) DeleteEnemy(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.enemies[id]; !ok {
		return ErrEnemyNotFound
	}
	delete(r.enemies, id)
	return nil
}
