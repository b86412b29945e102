package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-hub/internal/domain"
)

const packYAML = `
questions:
  - id: q1
    prompt: Capital of France?
    options:
      - {id: a, text: Paris}
      - {id: b, text: Lyon}
    correctOptionId: a
venues:
  - id: pub
    name: The Local
    levelIds: [pub-1]
levels:
  - id: pub-1
    venueId: pub
    levelNumber: 1
    questionIds: [q1]
    minCorrectToPass: 1
    lifelinesAllowed: [fifty_fifty]
    maxLifelinesPerLevel: 1
    basePointsPerCorrect: 100
`

func TestReadContentPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, []byte(packYAML), 0o600); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	pack, err := ReadContentPack(path)
	if err != nil {
		t.Fatalf("read pack: %v", err)
	}
	loader, err := NewStaticContentLoader(pack)
	if err != nil {
		t.Fatalf("index pack: %v", err)
	}

	level, err := loader.LoadLevel(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("load level: %v", err)
	}
	if level.Questions[0].CorrectOptionID != "a" || !level.Level.AllowsLifeline(domain.LifelineFiftyFifty) {
		t.Fatalf("unexpected level content %+v", level)
	}
}

func TestStaticLoaderRejectsInvalidPack(t *testing.T) {
	pack := samplePack()
	pack.Questions[0].CorrectOptionID = "zz"

	if _, err := NewStaticContentLoader(pack); !errors.Is(err, domain.ErrInvalidContent) {
		t.Fatalf("expected invalid content, got %v", err)
	}
}

func TestShippedContentPack(t *testing.T) {
	pack, err := ReadContentPack(filepath.Join("..", "..", "..", "config", "content.yaml"))
	if err != nil {
		t.Fatalf("read shipped pack: %v", err)
	}
	loader, err := NewStaticContentLoader(pack)
	if err != nil {
		t.Fatalf("shipped pack invalid: %v", err)
	}
	for _, venue := range pack.Venues {
		for i, levelID := range venue.LevelIDs {
			content, err := loader.LoadLevel(context.Background(), levelID)
			if err != nil {
				t.Fatalf("load %s: %v", levelID, err)
			}
			if content.Level.VenueID != venue.ID || content.Level.LevelNumber != i+1 {
				t.Fatalf("level %s out of venue order: %+v", levelID, content.Level)
			}
		}
	}
}
