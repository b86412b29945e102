package progression

import (
	"fmt"

	"quiz-hub/internal/domain"
)

// ShopItem is a purchasable bundle. Hearts < 0 refills to capacity.
type ShopItem struct {
	ID       string              `json:"id" yaml:"id"`
	Price    int                 `json:"price" yaml:"price"`
	Lifeline domain.LifelineKind `json:"lifeline,omitempty" yaml:"lifeline"`
	Quantity int                 `json:"quantity,omitempty" yaml:"quantity"`
	Hearts   int                 `json:"hearts,omitempty" yaml:"hearts"`
}

// Catalog maps item ids to items.
type Catalog map[string]ShopItem

// DefaultCatalog is the shipped shop.
func DefaultCatalog() Catalog {
	return Catalog{
		"ask_quizzers": {ID: "ask_quizzers", Price: 30, Lifeline: domain.LifelineAskQuizzers, Quantity: 1},
		"fifty_fifty":  {ID: "fifty_fifty", Price: 25, Lifeline: domain.LifelineFiftyFifty, Quantity: 1},
		"call_friend":  {ID: "call_friend", Price: 35, Lifeline: domain.LifelineCallFriend, Quantity: 1},
		"heart":        {ID: "heart", Price: 20, Hearts: 1},
		"heart_refill": {ID: "heart_refill", Price: 60, Hearts: -1},
	}
}

// Purchase spends coins on itemID and returns the next profile.
func Purchase(profile domain.PlayerProfile, catalog Catalog, itemID string) (domain.PlayerProfile, error) {
	item, ok := catalog[itemID]
	if !ok {
		return profile, fmt.Errorf("%w: %s", domain.ErrUnknownShopItem, itemID)
	}
	if profile.Coins < item.Price {
		return profile, domain.ErrInsufficientCoins
	}
	if item.Hearts != 0 && profile.Hearts.Current >= profile.Hearts.Capacity {
		return profile, domain.ErrHeartsFull
	}

	next := profile.Clone()
	next.Coins -= item.Price
	if item.Lifeline != "" {
		next.Lifelines[item.Lifeline] += item.Quantity
	}
	switch {
	case item.Hearts < 0:
		next.Hearts.Current = next.Hearts.Capacity
	case item.Hearts > 0:
		next.Hearts.Current = min(next.Hearts.Capacity, next.Hearts.Current+item.Hearts)
	}
	return next, nil
}
