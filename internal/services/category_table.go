package services

import (
	"strings"
	"sync"
)

const DefaultCategory = "Other"

// CategoryTable maps item types to display categories. Lookups are case
// insensitive and unmapped types fall into DefaultCategory.
type CategoryTable struct {
	table map[string]string
	mutex sync.RWMutex
}

func NewCategoryTable(entries map[string]string) *CategoryTable {
	t := &CategoryTable{}
	t.Replace(entries)
	return t
}

func (t *CategoryTable) Category(itemType string) string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if category, ok := t.table[strings.ToLower(itemType)]; ok {
		return category
	}
	return DefaultCategory
}

func (t *CategoryTable) Replace(entries map[string]string) {
	table := make(map[string]string, len(entries))
	for itemType, category := range entries {
		table[strings.ToLower(itemType)] = category
	}

	t.mutex.Lock()
	t.table = table
	t.mutex.Unlock()
}

func (t *CategoryTable) Entries() map[string]string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make(map[string]string, len(t.table))
	for k, v := range t.table {
		out[k] = v
	}
	return out
}

func DefaultCategories() map[string]string {
	return map[string]string{
		"diamond_sword":      "Weapons",
		"iron_sword":         "Weapons",
		"bow":                "Weapons",
		"crossbow":           "Weapons",
		"trident":            "Weapons",
		"diamond_helmet":     "Armor",
		"diamond_chestplate": "Armor",
		"diamond_leggings":   "Armor",
		"diamond_boots":      "Armor",
		"shield":             "Armor",
		"diamond_pickaxe":    "Tools",
		"diamond_axe":        "Tools",
		"diamond_shovel":     "Tools",
		"fishing_rod":        "Tools",
		"stone":              "Blocks",
		"cobblestone":        "Blocks",
		"oak_log":            "Blocks",
		"glass":              "Blocks",
		"bread":              "Food",
		"cooked_beef":        "Food",
		"golden_apple":       "Food",
		"diamond":            "Materials",
		"iron_ingot":         "Materials",
		"gold_ingot":         "Materials",
		"emerald":            "Materials",
		"potion":             "Potions",
		"splash_potion":      "Potions",
		"enchanted_book":     "Enchantments",
	}
}
