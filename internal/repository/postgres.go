package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tibiantis-tools/deathwatch/internal/models"
)

const opTimeout = 5 * time.Second

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

const characterColumns = `id, name, sex, vocation, level, world, residence, house,
	guild_membership, last_login, last_seen_location`

func scanCharacter(row pgx.Row) (*models.Character, error) {
	var c models.Character
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Sex,
		&c.Vocation,
		&c.Level,
		&c.World,
		&c.Residence,
		&c.House,
		&c.GuildMembership,
		&c.LastLogin,
		&c.LastSeenLocation,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) ListCharacters(ctx context.Context) ([]*models.Character, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

func (r *PostgresRepository) ListCharactersMinLevel(ctx context.Context, minLevel int) ([]*models.Character, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE level >= $1 ORDER BY id`, minLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

func (r *PostgresRepository) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanCharacter(r.pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetCharacterByName(ctx context.Context, name string) (*models.Character, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanCharacter(r.pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE lower(name) = lower($1)`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) CharacterExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE lower(name) = lower($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check character existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CreateCharacter(ctx context.Context, c *models.Character) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO characters
		(name, sex, vocation, level, world, residence, house, guild_membership, last_login, last_seen_location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		c.Name,
		c.Sex,
		c.Vocation,
		c.Level,
		c.World,
		c.Residence,
		c.House,
		c.GuildMembership,
		c.LastLogin,
		c.LastSeenLocation,
	).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCharacterExists
		}
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCharacter(ctx context.Context, id int64, upd *models.UpdateCharacterRequest) (*models.Character, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Build SET clause from non-nil fields only (partial update).
	set := ""
	args := []interface{}{id}
	argCount := 1

	addSet := func(column string, value interface{}) {
		argCount++
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", column, argCount)
		args = append(args, value)
	}

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Level != nil {
		addSet("level", *upd.Level)
	}
	if upd.Vocation != nil {
		addSet("vocation", *upd.Vocation)
	}
	if upd.LastLogin != nil {
		addSet("last_login", *upd.LastLogin)
	}
	if upd.LastSeenLocation != nil {
		addSet("last_seen_location", *upd.LastSeenLocation)
	}

	if set == "" {
		return r.GetCharacter(ctx, id)
	}

	query := `UPDATE characters SET ` + set + ` WHERE id = $1 RETURNING ` + characterColumns
	c, err := scanCharacter(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to update character: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) DeleteCharacter(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Enemy rows cascade via the foreign key.
	result, err := r.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

const enemyColumns = `id, character_id, reason, added_by, created_at, updated_at`

func scanEnemy(row pgx.Row) (*models.Enemy, error) {
	var e models.Enemy
	err := row.Scan(
		&e.ID,
		&e.CharacterID,
		&e.Reason,
		&e.AddedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresRepository) ListEnemies(ctx context.Context) ([]*models.Enemy, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+enemyColumns+` FROM enemies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enemies: %w", err)
	}
	defer rows.Close()

	var enemies []*models.Enemy
	for rows.Next() {
		e, err := scanEnemy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enemy: %w", err)
		}
		enemies = append(enemies, e)
	}
	return enemies, rows.Err()
}

func (r *PostgresRepository) GetEnemy(ctx context.Context, id int64) (*models.Enemy, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	e, err := scanEnemy(r.pool.QueryRow(ctx,
		`SELECT `+enemyColumns+` FROM enemies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnemyNotFound
		}
		return nil, fmt.Errorf("failed to get enemy: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) GetEnemyByCharacterID(ctx context.Context, characterID int64) (*models.Enemy, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	e, err := scanEnemy(r.pool.QueryRow(ctx,
		`SELECT `+enemyColumns+` FROM enemies WHERE character_id = $1`, characterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnemyNotFound
		}
		return nil, fmt.Errorf("failed to get enemy: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) CreateEnemy(ctx context.Context, e *models.Enemy) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO enemies (character_id, reason, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		e.CharacterID,
		e.Reason,
		e.AddedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrEnemyExists
			case "23503":
				return ErrCharacterNotFound
			}
		}
		return fmt.Errorf("failed to create enemy: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateEnemy(ctx context.Context, id int64, upd *models.UpdateEnemyRequest) (*models.Enemy, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := ""
	args := []interface{}{id}
	argCount := 1

	addSet := func(column string, value interface{}) {
		argCount++
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", column, argCount)
		args = append(args, value)
	}

	if upd.Reason != nil {
		addSet("reason", *upd.Reason)
	}
	if upd.AddedBy != nil {
		addSet("added_by", *upd.AddedBy)
	}

	if set == "" {
		return r.GetEnemy(ctx, id)
	}

	query := `UPDATE enemies SET ` + set + `, updated_at = NOW() WHERE id = $1 RETURNING ` + enemyColumns
	e, err := scanEnemy(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnemyNotFound
		}
		return nil, fmt.Errorf("failed to update enemy: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteEnemy(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM enemies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enemy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEnemyNotFound
	}
	return nil
}
