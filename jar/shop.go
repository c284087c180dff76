package jar

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Reward and penalty shop. Rewards debit a positive balance, penalty tasks
// let a deeply negative player buy points back by doing something for the
// team. The catalogue is static, only the purchase history lives in data.
// =============================================================================

// ItemCategory groups catalogue items for display.
type ItemCategory string

const (
	CategoryTeam     ItemCategory = "team"
	CategoryPersonal ItemCategory = "personal"
	CategoryFun      ItemCategory = "fun"
)

// ShopItem is one catalogue entry. Reward costs are positive and spent from
// the balance. Penalty costs are negative: completing the task credits the
// absolute value, and only players at or below that cost may take it.
type ShopItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Cost        int          `json:"cost"`
	Icon        string       `json:"icon"`
	Category    ItemCategory `json:"category"`
	Type        ItemType     `json:"type"`
}

var shopCatalogue = []ShopItem{
	{ID: "pizza_team", Name: "Pizza for the Team", Description: "You buy pizza for the whole room", Cost: 50, Icon: "🍕", Category: CategoryTeam, Type: ItemReward},
	{ID: "breakfast_team", Name: "Team Breakfast", Description: "You organise breakfast for the team", Cost: 40, Icon: "🥐", Category: CategoryTeam, Type: ItemReward},
	{ID: "cake_team", Name: "Cake for the Team", Description: "You bring a cake for your colleagues", Cost: 30, Icon: "🎂", Category: CategoryTeam, Type: ItemReward},
	{ID: "donuts_team", Name: "Donuts for the Team", Description: "You bring donuts for everyone", Cost: 25, Icon: "🍩", Category: CategoryTeam, Type: ItemReward},
	{ID: "coffee_team", Name: "Coffee Round", Description: "You buy a round of coffee for the team", Cost: 20, Icon: "☕", Category: CategoryTeam, Type: ItemReward},

	{ID: "meeting_notes", Name: "Minute Taker", Description: "You take notes for the next three team meetings", Cost: 25, Icon: "📝", Category: CategoryPersonal, Type: ItemReward},
	{ID: "make_tea", Name: "Tea on Demand", Description: "You make tea on request for a week", Cost: 20, Icon: "🫖", Category: CategoryPersonal, Type: ItemReward},
	{ID: "clean_desk", Name: "Desk Cleanup", Description: "You clean every desk in the room", Cost: 15, Icon: "🧹", Category: CategoryPersonal, Type: ItemReward},
	{ID: "trash_duty", Name: "Trash Duty", Description: "You take out the trash for a week", Cost: 15, Icon: "🗑️", Category: CategoryPersonal, Type: ItemReward},
	{ID: "water_plants", Name: "Plant Keeper", Description: "You water the office plants for a month", Cost: 10, Icon: "🌱", Category: CategoryPersonal, Type: ItemReward},

	{ID: "karaoke", Name: "Karaoke Solo", Description: "You sing a song picked by the team", Cost: -15, Icon: "🎤", Category: CategoryFun, Type: ItemPenalty},
	{ID: "dance_break", Name: "Dance Break", Description: "You dance in front of the team", Cost: -12, Icon: "💃", Category: CategoryFun, Type: ItemPenalty},
	{ID: "silly_hat", Name: "Hat of Shame", Description: "You wear a silly hat for a whole day", Cost: -10, Icon: "🎩", Category: CategoryFun, Type: ItemPenalty},
	{ID: "compliment_day", Name: "Compliment Day", Description: "You compliment your colleagues all day", Cost: -8, Icon: "💬", Category: CategoryFun, Type: ItemPenalty},
	{ID: "accent_hour", Name: "Accent Hour", Description: "You speak in a funny accent for an hour", Cost: -8, Icon: "🗣️", Category: CategoryFun, Type: ItemPenalty},
	{ID: "joke_day", Name: "Joke Day", Description: "You tell five jokes, bad ones count", Cost: -6, Icon: "😂", Category: CategoryFun, Type: ItemPenalty},
	{ID: "no_chair", Name: "Standing Hour", Description: "You work standing up for an hour", Cost: -5, Icon: "🧍", Category: CategoryFun, Type: ItemPenalty},
}

// ShopItems returns the full catalogue.
func ShopItems() []ShopItem {
	out := make([]ShopItem, len(shopCatalogue))
	copy(out, shopCatalogue)
	return out
}

// ShopItemsByCategory filters the catalogue.
func ShopItemsByCategory(cat ItemCategory) []ShopItem {
	var out []ShopItem
	for _, it := range shopCatalogue {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// ShopItemByID looks up a catalogue entry.
func ShopItemByID(id string) (ShopItem, bool) {
	for _, it := range shopCatalogue {
		if it.ID == id {
			return it, true
		}
	}
	return ShopItem{}, false
}

// PlayerStatus is the mood ladder shown next to a player's balance. Ranks
// are keyed on the infraction count, not the balance.
type PlayerStatus struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var playerStatuses = []PlayerStatus{
	{Min: 0, Max: 0, Name: "Saint", Icon: "😇", Color: "#f1c40f"},
	{Min: 1, Max: 5, Name: "Well Behaved", Icon: "😊", Color: "#27ae60"},
	{Min: 6, Max: 15, Name: "Neutral", Icon: "😐", Color: "#3498db"},
	{Min: 16, Max: 30, Name: "Rough Patch", Icon: "😤", Color: "#e67e22"},
	{Min: 31, Max: 50, Name: "Troublemaker", Icon: "🤬", Color: "#e74c3c"},
	{Min: 51, Max: -1, Name: "The Cursinator", Icon: "👹", Color: "#8e44ad"},
}

// StatusFor maps an infraction count to a rank. The last rank is open-ended.
func StatusFor(count int) PlayerStatus {
	for _, s := range playerStatuses {
		if count >= s.Min && (s.Max < 0 || count <= s.Max) {
			return s
		}
	}
	return playerStatuses[len(playerStatuses)-1]
}

// PlayerStatuses returns the whole ladder.
func PlayerStatuses() []PlayerStatus {
	out := make([]PlayerStatus, len(playerStatuses))
	copy(out, playerStatuses)
	return out
}

// Purchase claims a shop item for the player. Rewards require a balance of
// at least the cost, penalty tasks require the balance to already be at or
// below the negative cost. The purchase is appended to the history and the
// balance moves through the bookkeeping fields.
func (d *Dataset) Purchase(player, itemID string, now time.Time) (*Purchase, error) {
	p, ok := d.Players[player]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	item, ok := ShopItemByID(itemID)
	if !ok {
		return nil, ErrUnknownItem
	}

	balance := p.Balance()
	switch item.Type {
	case ItemReward:
		if balance < item.Cost {
			return nil, &PurchaseError{
				Player: player, ItemID: itemID,
				Balance: balance, Cost: item.Cost,
				Reason: ErrInsufficientBalance,
			}
		}
		p.SpentOnRewards += item.Cost
	case ItemPenalty:
		if balance > item.Cost {
			return nil, &PurchaseError{
				Player: player, ItemID: itemID,
				Balance: balance, Cost: item.Cost,
				Reason: ErrBalanceNotNegativeEnough,
			}
		}
		p.EarnedFromPenalties += -item.Cost
	}

	pu := &Purchase{
		ID:     uuid.NewString(),
		Player: player,
		ItemID: itemID,
		Cost:   item.Cost,
		Type:   item.Type,
		Date:   now,
	}
	d.Purchases = append(d.Purchases, pu)
	return pu, nil
}
