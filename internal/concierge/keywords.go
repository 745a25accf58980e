package concierge

import "strings"

// Keyword sets for exact substring routing, checked in priority order:
// housekeeping, then front desk, then food.
var (
	HousekeepingKeywords = []string{
		"room service", "clean", "cleaning", "laundry",
		"towel", "towels", "toiletries", "toothpaste",
		"pillow", "blanket", "blankets",
	}

	FrontDeskKeywords = []string{
		"check in", "check-in", "check out", "check-out",
		"gym", "spa", "pool", "facility", "facilities",
		"room availability", "available room", "room available",
	}

	FoodKeywords = []string{
		"menu", "order", "food", "eat", "hungry",
		"breakfast", "lunch", "dinner",
		"idli", "dosa", "vada", "poha", "paratha", "paneer", "puri",
		"omelette", "egg", "eggs", "upma",
	}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
