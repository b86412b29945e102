package memory

import (
	"context"
	"fmt"
	"os"

	"quiz-hub/internal/domain"

	"gopkg.in/yaml.v3"
)

// StaticContentLoader serves a content pack held in memory (YAML file, tests, demos).
type StaticContentLoader struct {
	index *domain.Index
}

// NewStaticContentLoader validates and indexes pack.
func NewStaticContentLoader(pack domain.ContentPack) (*StaticContentLoader, error) {
	idx, err := pack.Index()
	if err != nil {
		return nil, err
	}
	return &StaticContentLoader{index: idx}, nil
}

// ReadContentPack parses a YAML content pack from path.
func ReadContentPack(path string) (domain.ContentPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ContentPack{}, fmt.Errorf("read content pack: %w", err)
	}
	var pack domain.ContentPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return domain.ContentPack{}, fmt.Errorf("parse content pack: %w", err)
	}
	return pack, nil
}

func (l *StaticContentLoader) LoadLevel(_ context.Context, levelID string) (domain.LevelContent, error) {
	return l.index.Level(levelID)
}

func (l *StaticContentLoader) LoadVenue(_ context.Context, venueID string) (domain.Venue, error) {
	return l.index.Venue(venueID)
}

func (l *StaticContentLoader) LoadChallenge(_ context.Context, challengeID string) (domain.ChallengeContent, error) {
	return l.index.Challenge(challengeID)
}
