package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/models"
	"github.com/tibiantis-tools/deathwatch/internal/report"
	"github.com/tibiantis-tools/deathwatch/internal/repository"
	"github.com/tibiantis-tools/deathwatch/internal/scraper"
)

type mockScraper struct {
	mu      sync.Mutex
	pages   map[string]*scraper.CharacterPage
	errs    map[string]error
	online  []models.OnlinePlayer
	fetched []string
}

func newMockScraper() *mockScraper {
	return &mockScraper{
		pages: make(map[string]*scraper.CharacterPage),
		errs:  make(map[string]error),
	}
}

func (m *mockScraper) CharacterPage(ctx context.Context, name string) (*scraper.CharacterPage, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, name)
	m.mu.Unlock()

	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	if page, ok := m.pages[name]; ok {
		return page, nil
	}
	return nil, scraper.ErrCharacterNotFound
}

func (m *mockScraper) OnlinePlayers(ctx context.Context, minLevel int) ([]models.OnlinePlayer, error) {
	return m.online, nil
}

func (m *mockScraper) fetchedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}

type mockPublisher struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, marker, body string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	return nil
}

func (m *mockPublisher) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		return ""
	}
	return m.bodies[len(m.bodies)-1]
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

type fixture struct {
	svc    *Service
	repo   *repository.InMemoryRepository
	remote *mockScraper
	kills  *mockPublisher
	roster *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewInMemoryRepository()
	remote := newMockScraper()
	kills := &mockPublisher{}
	roster := &mockPublisher{}
	svc := NewService(repo, remote, kills, roster, Config{
		Window:   12 * time.Hour,
		MinLevel: 30,
	}, logging.Default())
	return &fixture{svc: svc, repo: repo, remote: remote, kills: kills, roster: roster}
}

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func (f *fixture) addCharacter(t *testing.T, name string, level int) *models.Character {
	t.Helper()
	c := &models.Character{Name: name, Level: intPtr(level)}
	require.NoError(t, f.repo.CreateCharacter(context.Background(), c))
	return c
}

func (f *fixture) markEnemy(t *testing.T, characterID int64) *models.Enemy {
	t.Helper()
	e := &models.Enemy{CharacterID: characterID}
	require.NoError(t, f.repo.CreateEnemy(context.Background(), e))
	return e
}

func TestAddCharacterResolvesRemoteFirst(t *testing.T) {
	f := newFixture(t)
	f.remote.pages["Karius"] = &scraper.CharacterPage{
		Character: models.Character{
			Name:     "Karius",
			Level:    intPtr(45),
			Vocation: strPtr("Knight"),
		},
	}

	created, err := f.svc.AddCharacter(context.Background(), "Karius")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.Level)
	assert.Equal(t, 45, *created.Level)

	stored, err := f.repo.GetCharacterByName(context.Background(), "karius")
	require.NoError(t, err)
	assert.Equal(t, "Karius", stored.Name)
}

func TestAddCharacterUnknownName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddCharacter(context.Background(), "Ghost")
	assert.ErrorIs(t, err, scraper.ErrCharacterNotFound)
}

func TestAddCharacterDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addCharacter(t, "Karius", 45)
	f.remote.pages["Karius"] = &scraper.CharacterPage{
		Character: models.Character{Name: "Karius", Level: intPtr(45)},
	}

	_, err := f.svc.AddCharacter(context.Background(), "Karius")
	assert.ErrorIs(t, err, repository.ErrCharacterExists)
}

func TestCheckDeathsNowFindsEnemyKills(t *testing.T) {
	f := newFixture(t)
	victim := f.addCharacter(t, "Karius", 45)
	enemy := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, enemy.ID)

	recent := time.Now().Add(-time.Hour)
	f.remote.pages[victim.Name] = &scraper.CharacterPage{
		Character: *victim,
		Deaths: []models.DeathEvent{
			{Time: timePtr(recent), Killer: "Killed at Level 45 by evil bob."},
		},
	}
	f.remote.pages[enemy.Name] = &scraper.CharacterPage{Character: *enemy}

	matches, err := f.svc.CheckDeathsNow(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Karius", matches[0].Victim)
	assert.Equal(t, "Killed at Level 45 by evil bob.", matches[0].Killer)

	assert.Equal(t, 1, f.kills.count())
	assert.Contains(t, f.kills.last(), report.KillsMarker)
	assert.Contains(t, f.kills.last(), "Evil Bob")
}

func TestCheckDeathsNowSkipsLowLevelCharacters(t *testing.T) {
	f := newFixture(t)
	f.addCharacter(t, "Newbie", 10)
	f.addCharacter(t, "Veteran", 80)
	f.remote.pages["Veteran"] = &scraper.CharacterPage{}

	_, err := f.svc.CheckDeathsNow(context.Background())
	require.NoError(t, err)

	fetched := f.remote.fetchedNames()
	assert.Contains(t, fetched, "Veteran")
	assert.NotContains(t, fetched, "Newbie")
}

func TestCheckDeathsNowToleratesFetchFailures(t *testing.T) {
	f := newFixture(t)
	victim := f.addCharacter(t, "Karius", 45)
	broken := f.addCharacter(t, "Flaky", 60)
	enemy := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, enemy.ID)

	recent := time.Now().Add(-time.Hour)
	f.remote.pages[victim.Name] = &scraper.CharacterPage{
		Deaths: []models.DeathEvent{
			{Time: timePtr(recent), Killer: "Killed by Evil Bob."},
		},
	}
	f.remote.errs[broken.Name] = errors.New("upstream timeout")
	f.remote.pages[enemy.Name] = &scraper.CharacterPage{}

	matches, err := f.svc.CheckDeathsNow(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Karius", matches[0].Victim)
}

func TestCheckDeathsNowPublishesPlaceholderWhenQuiet(t *testing.T) {
	f := newFixture(t)

	matches, err := f.svc.CheckDeathsNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Contains(t, f.kills.last(), "No enemy kills recorded recently.")
}

func TestCheckDeathsNowPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.kills.err = errors.New("channel closed")

	_, err := f.svc.CheckDeathsNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish kills report")
}

func TestRunCyclePublishesBothReports(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, c.ID)
	f.remote.pages[c.Name] = &scraper.CharacterPage{Character: *c}

	require.NoError(t, f.svc.RunCycle(context.Background()))

	assert.Equal(t, 1, f.kills.count())
	assert.Contains(t, f.kills.last(), report.KillsMarker)
	assert.Equal(t, 1, f.roster.count())
	assert.Contains(t, f.roster.last(), report.RosterMarker)
	assert.Contains(t, f.roster.last(), "Evil Bob")
}

func TestRefreshEnemyDetailsWritesBackChanges(t *testing.T) {
	f := newFixture(t)
	enemy := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, enemy.ID)
	bystander := f.addCharacter(t, "Bystander", 40)

	login := time.Date(2025, time.April, 7, 20, 15, 0, 0, time.UTC)
	f.remote.pages[enemy.Name] = &scraper.CharacterPage{
		Character: models.Character{
			Name:      "Evil Bob",
			Level:     intPtr(52),
			Vocation:  strPtr("Elder Druid"),
			LastLogin: timePtr(login),
		},
	}

	require.NoError(t, f.svc.RefreshEnemyDetails(context.Background()))

	stored, err := f.repo.GetCharacter(context.Background(), enemy.ID)
	require.NoError(t, err)
	assert.Equal(t, 52, *stored.Level)
	assert.Equal(t, "Elder Druid", *stored.Vocation)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(login))

	// Only enemies are re-scraped.
	assert.NotContains(t, f.remote.fetchedNames(), bystander.Name)
}

func TestRefreshEnemyDetailsToleratesFetchFailures(t *testing.T) {
	f := newFixture(t)
	broken := f.addCharacter(t, "Ghost", 50)
	f.markEnemy(t, broken.ID)
	fine := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, fine.ID)

	f.remote.errs[broken.Name] = errors.New("upstream timeout")
	f.remote.pages[fine.Name] = &scraper.CharacterPage{
		Character: models.Character{Name: "Evil Bob", Level: intPtr(60)},
	}

	require.NoError(t, f.svc.RefreshEnemyDetails(context.Background()))

	stored, err := f.repo.GetCharacter(context.Background(), fine.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, *stored.Level)
}

func TestRefreshEnemyDetailsSkipsUnchangedRecords(t *testing.T) {
	f := newFixture(t)
	enemy := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, enemy.ID)
	f.remote.pages[enemy.Name] = &scraper.CharacterPage{
		Character: models.Character{Name: "Evil Bob", Level: intPtr(50)},
	}

	before, err := f.repo.GetCharacter(context.Background(), enemy.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RefreshEnemyDetails(context.Background()))

	after, err := f.repo.GetCharacter(context.Background(), enemy.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestRefreshOnlineRoster(t *testing.T) {
	f := newFixture(t)
	known := f.addCharacter(t, "Karius", 45)
	stable := f.addCharacter(t, "Steady", 70)

	f.remote.online = []models.OnlinePlayer{
		{Name: "Karius", Level: 46},
		{Name: "Steady", Level: 70},
		{Name: "Fresh Face", Level: 33},
	}

	result, err := f.svc.RefreshOnlineRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Seen)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)

	updated, err := f.repo.GetCharacter(context.Background(), known.ID)
	require.NoError(t, err)
	assert.Equal(t, 46, *updated.Level)

	unchanged, err := f.repo.GetCharacter(context.Background(), stable.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, *unchanged.Level)

	added, err := f.repo.GetCharacterByName(context.Background(), "Fresh Face")
	require.NoError(t, err)
	assert.Equal(t, 33, *added.Level)
}

func TestMarkEnemyRepublishesRoster(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter(t, "Evil Bob", 50)

	enemy, err := f.svc.MarkEnemy(context.Background(), &models.CreateEnemyRequest{
		CharacterID: c.ID,
		Reason:      strPtr("guild war"),
	})
	require.NoError(t, err)
	assert.NotZero(t, enemy.ID)

	assert.Equal(t, 1, f.roster.count())
	assert.Contains(t, f.roster.last(), report.RosterMarker)
	assert.Contains(t, f.roster.last(), "Evil Bob")
	assert.Contains(t, f.roster.last(), "guild war")
}

func TestMarkEnemyUnknownCharacter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MarkEnemy(context.Background(), &models.CreateEnemyRequest{CharacterID: 99})
	assert.ErrorIs(t, err, repository.ErrCharacterNotFound)
	assert.Zero(t, f.roster.count())
}

func TestUnmarkEnemyRepublishesRoster(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter(t, "Evil Bob", 50)
	enemy := f.markEnemy(t, c.ID)

	require.NoError(t, f.svc.UnmarkEnemy(context.Background(), enemy.ID))

	assert.Equal(t, 1, f.roster.count())
	assert.Contains(t, f.roster.last(), "No enemy characters currently tracked.")
}

func TestDeleteCharacterRepublishesRosterForEnemies(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter(t, "Evil Bob", 50)
	f.markEnemy(t, c.ID)
	other := f.addCharacter(t, "Bystander", 40)

	require.NoError(t, f.svc.DeleteCharacter(context.Background(), other.ID))
	assert.Zero(t, f.roster.count())

	require.NoError(t, f.svc.DeleteCharacter(context.Background(), c.ID))
	assert.Equal(t, 1, f.roster.count())
	assert.Contains(t, f.roster.last(), "No enemy characters currently tracked.")
}
