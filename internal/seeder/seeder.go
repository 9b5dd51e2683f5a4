package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"

	"github.com/tibiantis-tools/deathwatch/internal/models"
	"github.com/tibiantis-tools/deathwatch/internal/repository"
)

// Spec describes a development roster to generate. Explicit entries are
// seeded first; the remainder up to Characters is filled with generated
// names.
type Spec struct {
	Version    string   `yaml:"version"`
	Characters int      `yaml:"characters"`
	Enemies    int      `yaml:"enemies"`
	MinLevel   int      `yaml:"min_level"`
	MaxLevel   int      `yaml:"max_level"`
	Vocations  []string `yaml:"vocations"`
	Entries    []Entry  `yaml:"entries"`
}

// Entry pins one named character in the generated roster.
type Entry struct {
	Name   string `yaml:"name"`
	Level  int    `yaml:"level"`
	Enemy  bool   `yaml:"enemy"`
	Reason string `yaml:"reason"`
}

var defaultVocations = []string{"Knight", "Paladin", "Sorcerer", "Druid"}

// DefaultSpec is the roster generated when no spec file is given.
func DefaultSpec() *Spec {
	return &Spec{
		Version:    "1",
		Characters: 25,
		Enemies:    6,
		MinLevel:   20,
		MaxLevel:   120,
		Vocations:  defaultVocations,
	}
}

// LoadSpec reads a seed spec from a YAML file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed spec: %w", err)
	}

	spec := DefaultSpec()
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("parse seed spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the spec for impossible parameters.
func (s *Spec) Validate() error {
	if s.Characters < 0 || s.Enemies < 0 {
		return fmt.Errorf("counts must be non-negative")
	}
	if s.Enemies > s.Characters+len(s.Entries) {
		return fmt.Errorf("enemies (%d) exceed total characters (%d)", s.Enemies, s.Characters+len(s.Entries))
	}
	if s.MaxLevel < s.MinLevel {
		return fmt.Errorf("max_level %d below min_level %d", s.MaxLevel, s.MinLevel)
	}
	return nil
}

// Result summarizes a seeding run.
type Result struct {
	Characters int
	Enemies    int
	Skipped    int
}

// Seeder populates a repository with a generated roster.
type Seeder struct {
	repo repository.Repository
	rng  *rand.Rand
}

// NewSeeder creates a seeder. A fixed seed makes runs reproducible.
func NewSeeder(repo repository.Repository, seed int64) *Seeder {
	gofakeit.Seed(seed)
	return &Seeder{
		repo: repo,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Run generates and stores the roster described by the spec. Duplicate
// generated names are skipped, not retried.
func (s *Seeder) Run(ctx context.Context, spec *Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	vocations := spec.Vocations
	if len(vocations) == 0 {
		vocations = defaultVocations
	}

	result := &Result{}
	var created []*models.Character

	for _, entry := range spec.Entries {
		level := entry.Level
		if level == 0 {
			level = s.randomLevel(spec)
		}
		c := s.buildCharacter(entry.Name, level, vocations)
		if err := s.repo.CreateCharacter(ctx, c); err != nil {
			if err == repository.ErrCharacterExists {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("seed character %q: %w", entry.Name, err)
		}
		result.Characters++
		created = append(created, c)

		if entry.Enemy {
			if err := s.markEnemy(ctx, c, entry.Reason); err != nil {
				return result, err
			}
			result.Enemies++
		}
	}

	for i := 0; i < spec.Characters; i++ {
		name := s.characterName()
		c := s.buildCharacter(name, s.randomLevel(spec), vocations)
		if err := s.repo.CreateCharacter(ctx, c); err != nil {
			if err == repository.ErrCharacterExists {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("seed character %q: %w", name, err)
		}
		result.Characters++
		created = append(created, c)
	}

	// Mark random generated characters hostile until the quota is met.
	s.rng.Shuffle(len(created), func(i, j int) {
		created[i], created[j] = created[j], created[i]
	})
	for _, c := range created {
		if result.Enemies >= spec.Enemies {
			break
		}
		if _, err := s.repo.GetEnemyByCharacterID(ctx, c.ID); err == nil {
			continue
		}
		if err := s.markEnemy(ctx, c, "seeded enemy"); err != nil {
			return result, err
		}
		result.Enemies++
	}

	return result, nil
}

func (s *Seeder) buildCharacter(name string, level int, vocations []string) *models.Character {
	vocation := vocations[s.rng.Intn(len(vocations))]
	sex := "male"
	if s.rng.Intn(2) == 0 {
		sex = "female"
	}
	residence := gofakeit.City()
	world := "Tibiantis"
	return &models.Character{
		Name:      name,
		Sex:       &sex,
		Vocation:  &vocation,
		Level:     &level,
		World:     &world,
		Residence: &residence,
	}
}

func (s *Seeder) markEnemy(ctx context.Context, c *models.Character, reason string) error {
	addedBy := "seeder"
	enemy := &models.Enemy{CharacterID: c.ID, AddedBy: &addedBy}
	if reason != "" {
		enemy.Reason = &reason
	}
	if err := s.repo.CreateEnemy(ctx, enemy); err != nil {
		return fmt.Errorf("seed enemy %q: %w", c.Name, err)
	}
	return nil
}

func (s *Seeder) randomLevel(spec *Spec) int {
	if spec.MaxLevel == spec.MinLevel {
		return spec.MinLevel
	}
	return spec.MinLevel + s.rng.Intn(spec.MaxLevel-spec.MinLevel)
}

// characterName produces a plausible two-word game character name.
func (s *Seeder) characterName() string {
	first := gofakeit.FirstName()
	second := gofakeit.NounAbstract()
	if second != "" {
		second = strings.ToUpper(second[:1]) + second[1:]
	}
	return first + " " + second
}
