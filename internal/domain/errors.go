package domain

import "errors"

var (
	// ErrInvalidLevel is returned when a level has no resolvable question sequence.
	ErrInvalidLevel = errors.New("level has no resolvable question sequence")
	// ErrInvalidContent indicates content failed validation.
	ErrInvalidContent = errors.New("invalid content")
	// ErrLevelNotFound indicates the level content could not be loaded.
	ErrLevelNotFound = errors.New("level not found")
	// ErrVenueNotFound indicates the venue content could not be loaded.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrQuestionNotFound indicates a question ID is unresolvable.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChallengeNotFound indicates the challenge content could not be loaded.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrGameNotFound is returned when no active game exists for an id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFinished is returned when acting on a game that already ended.
	ErrGameFinished = errors.New("game already finished")
	// ErrSessionInProgress is returned when resolving a session that has not ended.
	ErrSessionInProgress = errors.New("session still in progress")
	// ErrProfileNotFound is returned by stores when a player has no saved profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNoHearts is returned when a player without hearts tries to start a level.
	ErrNoHearts = errors.New("no hearts left")
	// ErrLevelLocked is returned when the previous level in the venue is not completed.
	ErrLevelLocked = errors.New("level is locked")
	// ErrChallengeLocked is returned while a failed challenge is in its lockout window.
	ErrChallengeLocked = errors.New("challenge is locked")
	// ErrChallengeCompleted is returned when a challenge was already completed.
	ErrChallengeCompleted = errors.New("challenge already completed")
	// ErrInsufficientCoins is returned when a purchase costs more than the balance.
	ErrInsufficientCoins = errors.New("insufficient coins")
	// ErrUnknownLifeline is returned for lifeline kinds outside the vocabulary.
	ErrUnknownLifeline = errors.New("unknown lifeline")
	// ErrNoLifelinesOwned is returned when the owned inventory of a kind is empty.
	ErrNoLifelinesOwned = errors.New("no lifelines of this kind owned")
	// ErrHeartsFull is returned when buying hearts at capacity.
	ErrHeartsFull = errors.New("hearts already full")
	// ErrUnknownShopItem is returned for items missing from the catalog.
	ErrUnknownShopItem = errors.New("unknown shop item")
	// ErrStreakRewardClaimed is returned when a one-time streak reward was already claimed.
	ErrStreakRewardClaimed = errors.New("streak reward already claimed")
	// ErrStreakRewardUnavailable is returned when the streak is below the reward milestone.
	ErrStreakRewardUnavailable = errors.New("streak reward not yet available")
)
