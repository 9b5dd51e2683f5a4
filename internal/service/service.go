package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/metrics"
	"github.com/tibiantis-tools/deathwatch/internal/models"
	"github.com/tibiantis-tools/deathwatch/internal/report"
	"github.com/tibiantis-tools/deathwatch/internal/repository"
	"github.com/tibiantis-tools/deathwatch/internal/scraper"
	"github.com/tibiantis-tools/deathwatch/internal/tracker"
)

// Scraper is the remote source of character records and the online list.
type Scraper interface {
	CharacterPage(ctx context.Context, name string) (*scraper.CharacterPage, error)
	OnlinePlayers(ctx context.Context, minLevel int) ([]models.OnlinePlayer, error)
}

// ReportPublisher delivers a rendered report to a notification channel.
type ReportPublisher interface {
	Publish(ctx context.Context, marker, body string) error
}

// Config holds the tracking parameters of the service.
type Config struct {
	Window   time.Duration
	MinLevel int
}

// Service implements the application operations: character and enemy
// management, the death-check cycle and roster publication. It sits
// between the HTTP handlers / scheduler and the repository.
type Service struct {
	repo      repository.Repository
	scraper   Scraper
	killsPub  ReportPublisher
	rosterPub ReportPublisher
	window    time.Duration
	minLevel  int
	log       *logging.Logger
}

// NewService creates the application service.
func NewService(repo repository.Repository, sc Scraper, killsPub, rosterPub ReportPublisher, cfg Config, log *logging.Logger) *Service {
	if cfg.Window <= 0 {
		cfg.Window = 12 * time.Hour
	}
	if cfg.MinLevel <= 0 {
		cfg.MinLevel = 30
	}
	return &Service{
		repo:      repo,
		scraper:   sc,
		killsPub:  killsPub,
		rosterPub: rosterPub,
		window:    cfg.Window,
		minLevel:  cfg.MinLevel,
		log:       log,
	}
}

// deathSource adapts the scraper to the tracker's per-character fetch.
type deathSource struct {
	scraper Scraper
}

func (d deathSource) CharacterDeaths(ctx context.Context, name string) ([]models.DeathEvent, error) {
	page, err := d.scraper.CharacterPage(ctx, name)
	if err != nil {
		return nil, err
	}
	return page.Deaths, nil
}

// AddCharacter registers a character for tracking. The name is resolved
// on the remote source first so the stored record starts out populated;
// scraper.ErrCharacterNotFound propagates when the name does not exist.
func (s *Service) AddCharacter(ctx context.Context, name string) (*models.Character, error) {
	page, err := s.scraper.CharacterPage(ctx, name)
	if err != nil {
		return nil, err
	}

	character := page.Character
	if character.Name == "" {
		character.Name = name
	}

	if err := s.repo.CreateCharacter(ctx, &character); err != nil {
		return nil, err
	}

	s.log.Info("character registered", logging.Character(character.Name))
	return &character, nil
}

// ListCharacters returns all tracked characters.
func (s *Service) ListCharacters(ctx context.Context) ([]*models.Character, error) {
	return s.repo.ListCharacters(ctx)
}

// GetCharacter returns one tracked character.
func (s *Service) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	return s.repo.GetCharacter(ctx, id)
}

// UpdateCharacter applies a partial update to a tracked character.
func (s *Service) UpdateCharacter(ctx context.Context, id int64, upd *models.UpdateCharacterRequest) (*models.Character, error) {
	return s.repo.UpdateCharacter(ctx, id, upd)
}

// DeleteCharacter removes a character; its enemy marking cascades away.
// The roster report is republished so the channel does not keep showing
// a deleted enemy.
func (s *Service) DeleteCharacter(ctx context.Context, id int64) error {
	wasEnemy := false
	if _, err := s.repo.GetEnemyByCharacterID(ctx, id); err == nil {
		wasEnemy = true
	}

	if err := s.repo.DeleteCharacter(ctx, id); err != nil {
		return err
	}

	if wasEnemy {
		s.republishRoster(ctx)
	}
	return nil
}

// ListEnemies returns all enemy markings.
func (s *Service) ListEnemies(ctx context.Context) ([]*models.Enemy, error) {
	return s.repo.ListEnemies(ctx)
}

// GetEnemy returns one enemy marking.
func (s *Service) GetEnemy(ctx context.Context, id int64) (*models.Enemy, error) {
	return s.repo.GetEnemy(ctx, id)
}

// MarkEnemy flags an existing tracked character as hostile and
// republishes the roster report.
func (s *Service) MarkEnemy(ctx context.Context, req *models.CreateEnemyRequest) (*models.Enemy, error) {
	if _, err := s.repo.GetCharacter(ctx, req.CharacterID); err != nil {
		return nil, err
	}

	enemy := &models.Enemy{
		CharacterID: req.CharacterID,
		Reason:      req.Reason,
		AddedBy:     req.AddedBy,
	}
	if err := s.repo.CreateEnemy(ctx, enemy); err != nil {
		return nil, err
	}

	s.log.Info("enemy marked", logging.Enemy(enemy.CharacterID))
	s.republishRoster(ctx)
	return enemy, nil
}

// UpdateEnemy applies a partial update to an enemy marking and
// republishes the roster report.
func (s *Service) UpdateEnemy(ctx context.Context, id int64, upd *models.UpdateEnemyRequest) (*models.Enemy, error) {
	enemy, err := s.repo.UpdateEnemy(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.republishRoster(ctx)
	return enemy, nil
}

// UnmarkEnemy removes an enemy marking and republishes the roster
// report. The underlying character stays tracked.
func (s *Service) UnmarkEnemy(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEnemy(ctx, id); err != nil {
		return err
	}
	s.republishRoster(ctx)
	return nil
}

// RunCycle is one scheduled tracking pass: refresh the stored enemy
// attributes from their character pages, run the death check, then
// republish the roster report so both channel tables stay current even
// if an earlier publish was lost.
func (s *Service) RunCycle(ctx context.Context) error {
	if err := s.RefreshEnemyDetails(ctx); err != nil {
		s.log.Warn("enemy detail refresh failed", logging.Error(err))
	}

	if _, err := s.CheckDeathsNow(ctx); err != nil {
		return err
	}

	return s.PublishEnemyRoster(ctx)
}

// RefreshEnemyDetails re-scrapes the character page of every enemy and
// writes back level, vocation and last-login changes. Per-enemy fetch
// failures are logged and skipped.
func (s *Service) RefreshEnemyDetails(ctx context.Context) error {
	enemies, err := s.repo.ListEnemies(ctx)
	if err != nil {
		return fmt.Errorf("load enemies: %w", err)
	}

	for _, enemy := range enemies {
		character, err := s.repo.GetCharacter(ctx, enemy.CharacterID)
		if err != nil {
			s.log.Warn("enemy references missing character",
				logging.Enemy(enemy.CharacterID), logging.Error(err))
			continue
		}

		page, err := s.scraper.CharacterPage(ctx, character.Name)
		if err != nil {
			s.log.Warn("enemy page fetch failed",
				logging.Character(character.Name), logging.Error(err))
			continue
		}

		upd := enemyDetailUpdate(character, &page.Character)
		if upd == nil {
			continue
		}
		if _, err := s.repo.UpdateCharacter(ctx, character.ID, upd); err != nil {
			s.log.Warn("failed to update enemy details",
				logging.Character(character.Name), logging.Error(err))
			continue
		}
		s.log.Info("enemy details refreshed", logging.Character(character.Name))
	}
	return nil
}

// enemyDetailUpdate diffs the stored record against the freshly scraped
// one. Nil means nothing changed.
func enemyDetailUpdate(stored, fresh *models.Character) *models.UpdateCharacterRequest {
	upd := &models.UpdateCharacterRequest{}
	changed := false

	if fresh.Level != nil && (stored.Level == nil || *stored.Level != *fresh.Level) {
		upd.Level = fresh.Level
		changed = true
	}
	if fresh.Vocation != nil && (stored.Vocation == nil || *stored.Vocation != *fresh.Vocation) {
		upd.Vocation = fresh.Vocation
		changed = true
	}
	if fresh.LastLogin != nil && (stored.LastLogin == nil || !stored.LastLogin.Equal(*fresh.LastLogin)) {
		upd.LastLogin = fresh.LastLogin
		changed = true
	}

	if !changed {
		return nil
	}
	return upd
}

// CheckDeathsNow fetches the death logs of every tracked character at or
// above the minimum level, correlates them against the enemy set over
// the trailing window and publishes the kills report. Per-character
// fetch failures are logged and skipped; they never abort the batch.
func (s *Service) CheckDeathsNow(ctx context.Context) ([]models.EnemyKillMatch, error) {
	log := s.log.With(logging.RunID(uuid.NewString()))

	roster, err := s.repo.ListCharactersMinLevel(ctx, s.minLevel)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	enemies, err := s.enemySet(ctx)
	if err != nil {
		return nil, err
	}

	results := tracker.FetchDeaths(ctx, deathSource{s.scraper}, roster)
	for i, res := range results {
		if res.Err != nil {
			log.Warn("death log fetch failed",
				logging.Character(roster[i].Name), logging.Error(res.Err))
		}
	}

	matches := tracker.Correlate(roster, results, enemies, s.window, time.Now())
	metrics.MatchesFound.Add(float64(len(matches)))
	for _, match := range matches {
		log.Info("enemy kill detected",
			logging.Victim(match.Victim), logging.Killer(match.Killer))
	}

	body := report.BuildKillsReport(matches)
	if err := s.killsPub.Publish(ctx, report.KillsMarker, body); err != nil {
		return matches, fmt.Errorf("publish kills report: %w", err)
	}
	metrics.ReportsPublished.WithLabelValues("kills").Inc()

	return matches, nil
}

// RefreshOnlineRoster scans the public online list and upserts tracked
// characters: unseen names at or above the minimum level are added,
// known names only get their level refreshed when it changed.
func (s *Service) RefreshOnlineRoster(ctx context.Context) (*models.RosterRefreshResult, error) {
	players, err := s.scraper.OnlinePlayers(ctx, s.minLevel)
	if err != nil {
		return nil, fmt.Errorf("fetch online list: %w", err)
	}

	result := &models.RosterRefreshResult{Seen: len(players)}

	for _, player := range players {
		existing, err := s.repo.GetCharacterByName(ctx, player.Name)
		if errors.Is(err, repository.ErrCharacterNotFound) {
			level := player.Level
			character := &models.Character{Name: player.Name, Level: &level}
			if err := s.repo.CreateCharacter(ctx, character); err != nil {
				s.log.Warn("failed to add online character",
					logging.Character(player.Name), logging.Error(err))
				continue
			}
			result.Added++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("look up %q: %w", player.Name, err)
		}

		if existing.Level != nil && *existing.Level == player.Level {
			continue
		}
		level := player.Level
		if _, err := s.repo.UpdateCharacter(ctx, existing.ID, &models.UpdateCharacterRequest{Level: &level}); err != nil {
			s.log.Warn("failed to update character level",
				logging.Character(player.Name), logging.Error(err))
			continue
		}
		result.Updated++
	}

	s.log.Info("online roster refreshed",
		"seen", result.Seen, "added", result.Added, "updated", result.Updated)
	return result, nil
}

// PublishEnemyRoster renders and publishes the enemy roster report.
func (s *Service) PublishEnemyRoster(ctx context.Context) error {
	rows, err := s.rosterRows(ctx)
	if err != nil {
		return err
	}

	body := report.BuildRosterReport(rows)
	if err := s.rosterPub.Publish(ctx, report.RosterMarker, body); err != nil {
		return fmt.Errorf("publish roster report: %w", err)
	}
	metrics.ReportsPublished.WithLabelValues("roster").Inc()
	return nil
}

// enemySet loads the lower-cased enemy name set.
func (s *Service) enemySet(ctx context.Context) (tracker.EnemySet, error) {
	enemies, err := s.repo.ListEnemies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enemies: %w", err)
	}

	names := make([]string, 0, len(enemies))
	for _, enemy := range enemies {
		character, err := s.repo.GetCharacter(ctx, enemy.CharacterID)
		if err != nil {
			s.log.Warn("enemy references missing character",
				logging.Enemy(enemy.CharacterID), logging.Error(err))
			continue
		}
		names = append(names, character.Name)
	}
	return tracker.NewEnemySet(names), nil
}

func (s *Service) rosterRows(ctx context.Context) ([]report.EnemyRosterRow, error) {
	enemies, err := s.repo.ListEnemies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enemies: %w", err)
	}

	rows := make([]report.EnemyRosterRow, 0, len(enemies))
	for _, enemy := range enemies {
		character, err := s.repo.GetCharacter(ctx, enemy.CharacterID)
		if err != nil {
			s.log.Warn("enemy references missing character",
				logging.Enemy(enemy.CharacterID), logging.Error(err))
			continue
		}
		rows = append(rows, report.EnemyRosterRow{
			Name:     character.Name,
			Level:    character.Level,
			Vocation: character.Vocation,
			Reason:   enemy.Reason,
			AddedBy:  enemy.AddedBy,
		})
	}
	return rows, nil
}

// republishRoster refreshes the roster report after a mutation. Channel
// failures are logged only; the mutation itself already committed.
func (s *Service) republishRoster(ctx context.Context) {
	if err := s.PublishEnemyRoster(ctx); err != nil {
		s.log.Warn("failed to republish roster report", logging.Error(err))
	}
}
