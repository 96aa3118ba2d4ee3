package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the full set of externally tunable simulation parameters.
// Everything here is configuration data, not behavior: species decision
// thresholds, economy rates and store stock all live in tuning.yaml so they
// can be rebalanced without a rebuild.
type Tuning struct {
	WorldWidth  float64 `yaml:"world_width"`
	WorldHeight float64 `yaml:"world_height"`

	TickMs            int `yaml:"tick_ms"`
	FullSyncEveryMs   int `yaml:"full_sync_every_ms"`
	SnapshotEverySecs int `yaml:"snapshot_every_secs"`

	StartingMoney float64 `yaml:"starting_money"`

	Species map[string]SpeciesDef `yaml:"species"`
	Things  ThingDefs             `yaml:"things"`
	Tools   map[string]ToolDef    `yaml:"tools"`
	Store   []StoreItemDef        `yaml:"store"`
}

// SpeciesDef carries the per-species constants the fish state machine reads
// every tick. FleeFirst decides whether a nearby predator outranks food; the
// flee-vs-feed priority is settled per species, not globally.
type SpeciesDef struct {
	Sprite      string  `yaml:"sprite"`
	AspectRatio float64 `yaml:"aspect_ratio"`
	Width       float64 `yaml:"width"`
	MaxSpeed    float64 `yaml:"max_speed"`

	FleeFirst     bool    `yaml:"flee_first"`
	FleeRadius    float64 `yaml:"flee_radius"`
	FleeSizeRatio float64 `yaml:"flee_size_ratio"`

	// PlayRelationshipMin gates playing with a tap vs fleeing from it.
	PlayRelationshipMin float64 `yaml:"play_relationship_min"`

	FoodPreferences []FoodPreference `yaml:"food_preferences"`

	HungerRate          float64 `yaml:"hunger_rate"`
	StarveRate          float64 `yaml:"starve_rate"`
	HappinessHealthRate float64 `yaml:"happiness_health_rate"`

	HungerHappinessBonus float64 `yaml:"hunger_happiness_bonus"`
	HealthHappinessBonus float64 `yaml:"health_happiness_bonus"`

	CoinEverySecs float64 `yaml:"coin_every_secs"`
}

// FoodPreference pairs a capability-tag requirement with the hunger level
// below which the fish ignores that food. Preferences are walked in order.
type FoodPreference struct {
	Tags      []string `yaml:"tags"`
	MinHunger float64  `yaml:"min_hunger"`
}

// ThingDefs tunes the inert entities.
type ThingDefs struct {
	FlakeNutrition  float64 `yaml:"flake_nutrition"`
	FlakeLifetime   float64 `yaml:"flake_lifetime_secs"`
	PelletNutrition float64 `yaml:"pellet_nutrition"`
	PelletLifetime  float64 `yaml:"pellet_lifetime_secs"`

	CoinValue        float64 `yaml:"coin_value"`
	CoinLifetime     float64 `yaml:"coin_lifetime_secs"`
	SkeletonLifetime float64 `yaml:"skeleton_lifetime_secs"`
	TapLifetime      float64 `yaml:"tap_lifetime_secs"`

	Chest ChestDef `yaml:"treasure_chest"`
}

// ChestDef tunes the treasure chest duty cycle.
type ChestDef struct {
	ClosedSecs      float64 `yaml:"closed_secs"`
	OpenSecs        float64 `yaml:"open_secs"`
	FullProbability float64 `yaml:"full_probability"`
	ValueMin        float64 `yaml:"value_min"`
	ValueMax        float64 `yaml:"value_max"`
	BubbleEverySecs float64 `yaml:"bubble_every_secs"`
}

// ToolDef maps a player tool to the entity kind it drops and its use cost.
type ToolDef struct {
	Cost   float64 `yaml:"cost"`
	Spawns string  `yaml:"spawns"`
}

// StoreItemDef seeds one community-funded store listing. Stock < 0 means
// unlimited restock.
type StoreItemDef struct {
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"`
	Image string  `yaml:"image"`
	Price float64 `yaml:"price"`
	Stock int     `yaml:"stock"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.WorldWidth <= 0 || t.WorldHeight <= 0 {
		return fmt.Errorf("tuning: world dimensions must be positive")
	}
	if t.TickMs <= 0 {
		return fmt.Errorf("tuning: tick_ms must be positive")
	}
	if len(t.Species) == 0 {
		return fmt.Errorf("tuning: at least one species is required")
	}
	for name, sp := range t.Species {
		if sp.Width <= 0 || sp.MaxSpeed <= 0 {
			return fmt.Errorf("tuning: species %s: width and max_speed must be positive", name)
		}
		if sp.AspectRatio <= 0 {
			return fmt.Errorf("tuning: species %s: aspect_ratio must be positive", name)
		}
	}
	for name, tool := range t.Tools {
		if tool.Cost < 0 {
			return fmt.Errorf("tuning: tool %s: negative cost", name)
		}
	}
	for _, item := range t.Store {
		if item.Price <= 0 {
			return fmt.Errorf("tuning: store item %s: price must be positive", item.Name)
		}
	}
	return nil
}

// Defaults returns the balance the game shipped with: a 960x540 tank at
// 20 ticks/s, the three original species, and the standard store catalog.
func Defaults() Tuning {
	return Tuning{
		WorldWidth:  960,
		WorldHeight: 540,

		TickMs:            50,
		FullSyncEveryMs:   1000,
		SnapshotEverySecs: 300,

		StartingMoney: 1.00,

		Species: map[string]SpeciesDef{
			"clownfish": {
				Sprite:      "fish/clownfish",
				AspectRatio: 1.3837209302,
				Width:       120,
				MaxSpeed:    100,
				// Clownfish chase food even with a predator nearby.
				FleeFirst:           false,
				FleeRadius:          200,
				FleeSizeRatio:       1.5,
				PlayRelationshipMin: 0.1,
				FoodPreferences: []FoodPreference{
					{Tags: []string{"Thing", "Food"}, MinHunger: 0.5},
				},
				HungerRate:           1.0 / 2880000,
				StarveRate:           1.0 / 7200,
				HappinessHealthRate:  1.0 / 14400,
				HungerHappinessBonus: 0.1,
				HealthHappinessBonus: 0.1,
				CoinEverySecs:        20,
			},
			"guppy": {
				Sprite:              "fish/guppy",
				AspectRatio:         1.4496644295,
				Width:               72,
				MaxSpeed:            80,
				FleeFirst:           true,
				FleeRadius:          300,
				FleeSizeRatio:       1.0,
				PlayRelationshipMin: 0.1,
				FoodPreferences: []FoodPreference{
					{Tags: []string{"Thing", "Food"}, MinHunger: 0.2},
				},
				HungerRate:           1.0 / 2880000,
				StarveRate:           1.0 / 7200,
				HappinessHealthRate:  1.0 / 14400,
				HungerHappinessBonus: 0.1,
				HealthHappinessBonus: 0.1,
				CoinEverySecs:        20,
			},
			"angelfish": {
				Sprite:              "fish/green_angelfish",
				AspectRatio:         1.2557377049,
				Width:               120,
				MaxSpeed:            100,
				FleeFirst:           true,
				FleeRadius:          300,
				FleeSizeRatio:       1.0,
				PlayRelationshipMin: 0.1,
				FoodPreferences: []FoodPreference{
					{Tags: []string{"Thing", "Food"}, MinHunger: 0.2},
					// Big angelfish will eat smaller fish when starving.
					{Tags: []string{"Thing", "Fish"}, MinHunger: 0.9},
				},
				HungerRate:           1.0 / 2880000,
				StarveRate:           1.0 / 7200,
				HappinessHealthRate:  1.0 / 14400,
				HungerHappinessBonus: 0.1,
				HealthHappinessBonus: 0.1,
				CoinEverySecs:        20,
			},
		},

		Things: ThingDefs{
			FlakeNutrition:  0.1,
			FlakeLifetime:   20,
			PelletNutrition: 0.1,
			PelletLifetime:  60,

			CoinValue:        0.01,
			CoinLifetime:     60,
			SkeletonLifetime: 120,
			TapLifetime:      5,

			Chest: ChestDef{
				ClosedSecs:      4,
				OpenSecs:        6,
				FullProbability: 0.1,
				ValueMin:        0.05,
				ValueMax:        0.25,
				BubbleEverySecs: 1.5,
			},
		},

		Tools: map[string]ToolDef{
			"flake_feeder":  {Cost: 0.01, Spawns: "flake"},
			"pellet_feeder": {Cost: 0.02, Spawns: "pellet"},
		},

		Store: []StoreItemDef{
			{Name: "Clownfish", Kind: "clownfish", Image: "store/clownfish.png", Price: 5.00, Stock: -1},
			{Name: "Guppy", Kind: "guppy", Image: "store/guppy.png", Price: 2.00, Stock: -1},
			{Name: "Angelfish", Kind: "angelfish", Image: "store/angelfish.png", Price: 8.00, Stock: -1},
			{Name: "Treasure Chest", Kind: "treasure_chest", Image: "store/treasure_chest.png", Price: 25.00, Stock: 1},
		},
	}
}
