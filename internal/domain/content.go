package domain

import "fmt"

// ContentPack is a complete content set: the question bank plus the levels,
// venues and daily challenges that reference it.
type ContentPack struct {
	Questions  []Question       `json:"questions" yaml:"questions"`
	Venues     []Venue          `json:"venues" yaml:"venues"`
	Levels     []LevelConfig    `json:"levels" yaml:"levels"`
	Challenges []DailyChallenge `json:"challenges" yaml:"challenges"`
}

// Index resolves pack entries by id.
type Index struct {
	questions  map[string]Question
	venues     map[string]Venue
	levels     map[string]LevelConfig
	challenges map[string]DailyChallenge
}

// Index validates the pack and indexes it. Duplicate ids are rejected.
func (p ContentPack) Index() (*Index, error) {
	idx := &Index{
		questions:  make(map[string]Question, len(p.Questions)),
		venues:     make(map[string]Venue, len(p.Venues)),
		levels:     make(map[string]LevelConfig, len(p.Levels)),
		challenges: make(map[string]DailyChallenge, len(p.Challenges)),
	}
	for _, q := range p.Questions {
		if err := ValidateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := idx.questions[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question %q", ErrInvalidContent, q.ID)
		}
		idx.questions[q.ID] = q
	}
	for _, v := range p.Venues {
		if err := validate.Struct(v); err != nil {
			return nil, fmt.Errorf("%w: venue %q: %v", ErrInvalidContent, v.ID, err)
		}
		if _, dup := idx.venues[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate venue %q", ErrInvalidContent, v.ID)
		}
		idx.venues[v.ID] = v
	}
	for _, l := range p.Levels {
		if _, dup := idx.levels[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate level %q", ErrInvalidContent, l.ID)
		}
		idx.levels[l.ID] = l
		c, err := idx.Level(l.ID)
		if err != nil {
			return nil, err
		}
		if err := ValidateLevelContent(c); err != nil {
			return nil, err
		}
	}
	for _, ch := range p.Challenges {
		if _, dup := idx.challenges[ch.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate challenge %q", ErrInvalidContent, ch.ID)
		}
		idx.challenges[ch.ID] = ch
		c, err := idx.Challenge(ch.ID)
		if err != nil {
			return nil, err
		}
		if err := ValidateChallengeContent(c); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Level returns the level with the questions its sequence references.
func (x *Index) Level(id string) (LevelContent, error) {
	l, ok := x.levels[id]
	if !ok {
		return LevelContent{}, ErrLevelNotFound
	}
	return LevelContent{Level: l, Questions: x.collect(l.QuestionIDs)}, nil
}

// Venue returns the venue by id.
func (x *Index) Venue(id string) (Venue, error) {
	v, ok := x.venues[id]
	if !ok {
		return Venue{}, ErrVenueNotFound
	}
	return v, nil
}

// Challenge returns the challenge with its questions.
func (x *Index) Challenge(id string) (ChallengeContent, error) {
	c, ok := x.challenges[id]
	if !ok {
		return ChallengeContent{}, ErrChallengeNotFound
	}
	return ChallengeContent{Challenge: c, Questions: x.collect(c.QuestionIDs)}, nil
}

func (x *Index) collect(ids []string) []Question {
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := x.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out
}
