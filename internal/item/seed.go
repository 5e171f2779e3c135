package item

// Seed is the catalog a freshly-booted server loads (spec §3's
// ItemDefinition rows plus the memory grid's "Memory Shard" lookup-by-
// name target). It is representative rather than exhaustive: a real
// deployment's catalog is an ops/content concern (spec Non-goals
// exclude asset/content pipelines), but cmd/ownworldd needs something
// real to build a *Catalog from at startup.
func Seed() []Definition {
	return []Definition{
		{ID: "wood", Name: "Wood", Category: CategoryMaterial, Stackable: true, StackSize: 100, BurnSeconds: f64(30)},
		{ID: "stone", Name: "Stone", Category: CategoryMaterial, Stackable: true, StackSize: 100},
		{ID: "metal_fragments", Name: "Metal Fragments", Category: CategoryMaterial, Stackable: true, StackSize: 100},
		{ID: "cloth", Name: "Cloth", Category: CategoryMaterial, Stackable: true, StackSize: 100},
		{ID: "leather", Name: "Leather", Category: CategoryMaterial, Stackable: true, StackSize: 100},
		{
			// Name, not ID, is the memory grid's lookup key (internal/memorygrid.MemoryShardDefName).
			ID: "memory_shard", Name: "Memory Shard", Category: CategoryMaterial,
			Stackable: true, StackSize: 200, Preserved: true,
		},

		{
			ID: "rock", Name: "Rock", Category: CategoryWeapon, Stackable: false,
			MeleeMin: f64(5), MeleeMax: f64(10), MeleeCooldownUs: i64(800_000),
		},
		{
			ID: "stone_hatchet", Name: "Stone Hatchet", Category: CategoryTool, Stackable: false,
			MeleeMin: f64(8), MeleeMax: f64(16), MeleeCooldownUs: i64(900_000),
			Recipe: &Recipe{
				Inputs:       []RecipeInput{{DefID: "wood", Quantity: 100}, {DefID: "stone", Quantity: 50}},
				OutputQty:    1,
				CraftSeconds: 10,
			},
		},
		{
			ID: "bone_arrow", Name: "Bone Arrow", Category: CategoryAmmunition, Stackable: true, StackSize: 64,
			ProjectileSpeed: f64(900), ProjectileMaxRange: f64(1200), ProjectileDamage: f64(18), ProjectileDamageType: "Pierce",
		},
		{
			ID: "crossbow", Name: "Crossbow", Category: CategoryRangedWeapon, Stackable: false,
			AmmoDefID: strPtr("bone_arrow"), MeleeCooldownUs: i64(1_200_000),
		},
		{
			ID: "makarov_pm", Name: "Makarov PM", Category: CategoryRangedWeapon, Stackable: false,
			AmmoDefID: strPtr("round_9x18mm"), MeleeCooldownUs: i64(250_000),
		},
		{
			ID: "round_9x18mm", Name: "9x18mm Round", Category: CategoryAmmunition, Stackable: true, StackSize: 64,
			ProjectileSpeed: f64(1800), ProjectileMaxRange: f64(900), ProjectileDamage: f64(35), ProjectileDamageType: "Projectile",
		},

		{
			ID: "cloth_shirt", Name: "Cloth Shirt", Category: CategoryArmor, Stackable: false,
			ArmorSlot:   armorSlotPtr(SlotChest),
			Resistances: &Resistances{Slash: 0.1, Pierce: 0.05, Blunt: 0.1, Projectile: 0.02},
			Recipe: &Recipe{
				Inputs:       []RecipeInput{{DefID: "cloth", Quantity: 50}},
				OutputQty:    1,
				CraftSeconds: 8,
			},
		},
		{
			ID: "leather_boots", Name: "Leather Boots", Category: CategoryArmor, Stackable: false,
			ArmorSlot:   armorSlotPtr(SlotFeet),
			Resistances: &Resistances{Slash: 0.08, Pierce: 0.05, Blunt: 0.08, Projectile: 0.02},
		},

		{
			ID: "raw_meat", Name: "Raw Meat", Category: CategoryConsumable, Stackable: true, StackSize: 20,
			CookedIntoID: strPtr("cooked_meat"), CookSeconds: f64(12),
			SpoilsIntoID: strPtr("rotten_meat"), SpoilSeconds: f64(600),
		},
		{
			ID: "cooked_meat", Name: "Cooked Meat", Category: CategoryConsumable, Stackable: true, StackSize: 20,
			Consume:      &ConsumeEffect{DeltaHealth: 5, DeltaHunger: 40, DeltaThirst: -5},
			SpoilsIntoID: strPtr("rotten_meat"), SpoilSeconds: f64(1800),
		},
		{
			ID: "rotten_meat", Name: "Rotten Meat", Category: CategoryMaterial, Stackable: true, StackSize: 20,
		},
		{
			ID: "metal_ore", Name: "Metal Ore", Category: CategoryMaterial, Stackable: true, StackSize: 100,
			SmeltIntoID: strPtr("metal_fragments"), SmeltSeconds: f64(8),
		},
		{
			ID: "compostable_scraps", Name: "Compostable Scraps", Category: CategoryMaterial, Stackable: true, StackSize: 50,
		},
		{
			ID: "fertilizer", Name: "Fertilizer", Category: CategoryMaterial, Stackable: true, StackSize: 50,
		},
		{
			ID: "water_jug", Name: "Water Jug", Category: CategoryConsumable, Stackable: false,
			Consume: &ConsumeEffect{DeltaThirst: 60},
		},
		{
			ID: "reed_bottle", Name: "Reed Bottle", Category: CategoryConsumable, Stackable: false,
			Consume: &ConsumeEffect{DeltaThirst: 20},
		},
		{
			ID: "plastic_jug", Name: "Plastic Jug", Category: CategoryConsumable, Stackable: false,
			Consume: &ConsumeEffect{DeltaThirst: 50},
		},
		{
			ID: "tallow", Name: "Tallow", Category: CategoryMaterial, Stackable: true, StackSize: 50,
			BurnSeconds: f64(180),
		},

		// Placeables (spec §6 place_* family). Each is consumed on
		// successful placement (internal/placement.Place).
		{ID: "barrel", Name: "Barrel", Category: CategoryPlaceable, Stackable: false},
		{ID: "campfire", Name: "Campfire", Category: CategoryPlaceable, Stackable: false},
		{ID: "furnace", Name: "Furnace", Category: CategoryPlaceable, Stackable: false},
		{ID: "wooden_storage_box", Name: "Wooden Storage Box", Category: CategoryPlaceable, Stackable: false},
		{ID: "rain_collector", Name: "Rain Collector", Category: CategoryPlaceable, Stackable: false},
		{ID: "lantern", Name: "Lantern", Category: CategoryPlaceable, Stackable: false},
		{ID: "turret", Name: "Turret", Category: CategoryPlaceable, Stackable: false},
		{ID: "shelter", Name: "Shelter", Category: CategoryPlaceable, Stackable: false},
		{ID: "sleeping_bag", Name: "Sleeping Bag", Category: CategoryPlaceable, Stackable: false},
		{ID: "wall", Name: "Wall", Category: CategoryPlaceable, Stackable: false},
		{ID: "fence", Name: "Fence", Category: CategoryPlaceable, Stackable: false},
		{ID: "foundation", Name: "Foundation", Category: CategoryPlaceable, Stackable: false},
	}
}

func f64(v float64) *float64        { return &v }
func i64(v int64) *int64            { return &v }
func strPtr(v string) *string       { return &v }
func armorSlotPtr(v ArmorSlot) *ArmorSlot { return &v }
