// Package memorygrid implements the memory grid tech tree (spec §4.O):
// a static DAG of node_id -> (cost, prerequisites), a player's progress
// as a purchased-node list plus a lifetime shard ledger, and the
// purchase reducer that spends Memory Shard items out of a player's
// inventory to unlock a node.
package memorygrid

import (
	"database/sql"
	"strings"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// MinFactionShardsSpent is the lifetime-shards-spent floor a player
// must clear before any faction-unlock node becomes purchasable
// (memory_grid.rs's MIN_TOTAL_SHARDS).
const MinFactionShardsSpent uint64 = 8000

// MemoryShardDefName is the catalog item name the source looks up by
// name rather than by id (memory_grid.rs's count_memory_shards_in_inventory:
// `ctx.db.item_definition().iter().find(|def| def.name == "Memory Shard")`).
const MemoryShardDefName = "Memory Shard"

// Node is one entry of the static tech-tree DAG.
type Node struct {
	ID            string
	DisplayName   string
	Cost          uint64
	Prerequisites []string
}

// Nodes is the complete, static node table (spec §4.O "~170 nodes in 7
// tiers + faction subtrees"; this build carries the 107 nodes the
// grounding source actually defines), grounded verbatim on
// memory_grid.rs's get_node_info/get_node_display_name match tables.
var Nodes = []Node{
	{ID: "center", DisplayName: "Neural Interface", Cost: 0, Prerequisites: []string{}},
	{ID: "crossbow", DisplayName: "Crossbow", Cost: 100, Prerequisites: []string{"center"}},
	{ID: "metal-hatchet", DisplayName: "Metal Hatchet", Cost: 60, Prerequisites: []string{"center"}},
	{ID: "reed-harpoon", DisplayName: "Reed Harpoon", Cost: 75, Prerequisites: []string{"center"}},
	{ID: "lantern", DisplayName: "Lantern", Cost: 80, Prerequisites: []string{"center"}},
	{ID: "metal-pickaxe", DisplayName: "Metal Pickaxe", Cost: 60, Prerequisites: []string{"center"}},
	{ID: "stone-spear", DisplayName: "Stone Spear", Cost: 80, Prerequisites: []string{"center"}},
	{ID: "stone-mace", DisplayName: "Stone Mace", Cost: 70, Prerequisites: []string{"center"}},
	{ID: "machete", DisplayName: "Machete", Cost: 240, Prerequisites: []string{"stone-spear"}},
	{ID: "war-hammer", DisplayName: "War Hammer", Cost: 280, Prerequisites: []string{"stone-mace"}},
	{ID: "battle-axe", DisplayName: "Battle Axe", Cost: 600, Prerequisites: []string{"machete"}},
	{ID: "bone-shiv", DisplayName: "Bone Shiv", Cost: 180, Prerequisites: []string{"crossbow"}},
	{ID: "metal-dagger", DisplayName: "Metal Dagger", Cost: 400, Prerequisites: []string{"bone-shiv"}},
	{ID: "scythe", DisplayName: "Scythe", Cost: 500, Prerequisites: []string{"reed-bellows"}},
	{ID: "kayak-paddle", DisplayName: "Kayak Paddle", Cost: 480, Prerequisites: []string{"bone-gaff-hook"}},
	{ID: "bone-arrow", DisplayName: "Bone Arrow", Cost: 200, Prerequisites: []string{"crossbow"}},
	{ID: "bush-knife", DisplayName: "Bush Knife", Cost: 220, Prerequisites: []string{"metal-hatchet"}},
	{ID: "bone-gaff-hook", DisplayName: "Bone Gaff Hook", Cost: 260, Prerequisites: []string{"reed-harpoon"}},
	{ID: "flashlight", DisplayName: "Flashlight", Cost: 220, Prerequisites: []string{"lantern"}},
	{ID: "headlamp", DisplayName: "Headlamp", Cost: 300, Prerequisites: []string{"lantern"}},
	{ID: "reed-bellows", DisplayName: "Reed Bellows", Cost: 280, Prerequisites: []string{"metal-pickaxe"}},
	{ID: "fire-arrow", DisplayName: "Fire Arrow", Cost: 480, Prerequisites: []string{"bone-arrow"}},
	{ID: "large-wooden-storage-box", DisplayName: "Large Wooden Storage Box", Cost: 600, Prerequisites: []string{"bush-knife"}},
	{ID: "reed-fishing-rod", DisplayName: "Primitive Reed Fishing Rod", Cost: 520, Prerequisites: []string{"bone-gaff-hook"}},
	{ID: "reed-rain-collector", DisplayName: "Reed Rain Collector", Cost: 560, Prerequisites: []string{"bone-gaff-hook"}},
	{ID: "barbecue", DisplayName: "Barbecue", Cost: 600, Prerequisites: []string{"flashlight"}},
	{ID: "refrigerator", DisplayName: "Refrigerator", Cost: 680, Prerequisites: []string{"flashlight"}},
	{ID: "mining-efficiency", DisplayName: "Mining Efficiency", Cost: 720, Prerequisites: []string{"reed-bellows"}},
	{ID: "repair-bench", DisplayName: "Repair Bench", Cost: 560, Prerequisites: []string{"reed-bellows"}},
	{ID: "hollow-reed-arrow", DisplayName: "Hollow Reed Arrow", Cost: 1200, Prerequisites: []string{"fire-arrow"}},
	{ID: "metal-door", DisplayName: "Metal Door", Cost: 1280, Prerequisites: []string{"large-wooden-storage-box"}},
	{ID: "reed-snorkel", DisplayName: "Reed Diver's Helm", Cost: 1400, Prerequisites: []string{"reed-fishing-rod"}},
	{ID: "plastic-water-jug", DisplayName: "Plastic Water Jug", Cost: 1200, Prerequisites: []string{"reed-rain-collector"}},
	{ID: "compost", DisplayName: "Compost", Cost: 1200, Prerequisites: []string{"refrigerator"}},
	{ID: "scarecrow", DisplayName: "Scarecrow", Cost: 2400, Prerequisites: []string{"compost"}},
	{ID: "crafting-speed-1", DisplayName: "Crafting Speed I", Cost: 1600, Prerequisites: []string{"mining-efficiency"}},
	{ID: "9x18mm-round", DisplayName: "9x18mm Round", Cost: 2400, Prerequisites: []string{"hollow-reed-arrow"}},
	{ID: "shelter", DisplayName: "Shelter", Cost: 2800, Prerequisites: []string{"metal-door"}},
	{ID: "crafting-speed-2", DisplayName: "Crafting Speed II", Cost: 3000, Prerequisites: []string{"crafting-speed-1"}},
	{ID: "cooking-station", DisplayName: "Cooking Station", Cost: 3200, Prerequisites: []string{"barbecue"}},
	{ID: "makarov-pm", DisplayName: "Makarov PM", Cost: 3400, Prerequisites: []string{"9x18mm-round"}},
	{ID: "unlock-black-wolves", DisplayName: "Unlock Black Wolves", Cost: 1600, Prerequisites: []string{}},
	{ID: "unlock-hive", DisplayName: "Unlock Hive", Cost: 1600, Prerequisites: []string{}},
	{ID: "unlock-university", DisplayName: "Unlock University", Cost: 1600, Prerequisites: []string{}},
	{ID: "unlock-data-angels", DisplayName: "Unlock DATA ANGELS", Cost: 1600, Prerequisites: []string{}},
	{ID: "unlock-battalion", DisplayName: "Unlock Battalion", Cost: 1600, Prerequisites: []string{}},
	{ID: "unlock-admiralty", DisplayName: "Unlock Admiralty", Cost: 1600, Prerequisites: []string{}},
	{ID: "riot-vest", DisplayName: "Riot Vest", Cost: 1600, Prerequisites: []string{"unlock-black-wolves"}},
	{ID: "pack-tactics", DisplayName: "Pack Tactics", Cost: 2400, Prerequisites: []string{"riot-vest"}},
	{ID: "silver-rounds", DisplayName: "Silver Rounds", Cost: 3600, Prerequisites: []string{"pack-tactics"}},
	{ID: "alpha-howl", DisplayName: "Alpha Howl", Cost: 5600, Prerequisites: []string{"silver-rounds"}},
	{ID: "moonlit-stalker", DisplayName: "Moonlit Stalker", Cost: 10000, Prerequisites: []string{"alpha-howl"}},
	{ID: "combat-stims", DisplayName: "Combat Stims", Cost: 1600, Prerequisites: []string{"unlock-black-wolves"}},
	{ID: "adrenal-gland", DisplayName: "Adrenal Gland", Cost: 2400, Prerequisites: []string{"combat-stims"}},
	{ID: "bloodlust-rig", DisplayName: "Bloodlust Rig", Cost: 3600, Prerequisites: []string{"adrenal-gland"}},
	{ID: "frenzy-core", DisplayName: "Frenzy Core", Cost: 5600, Prerequisites: []string{"bloodlust-rig"}},
	{ID: "berserker-howl", DisplayName: "Berserker Howl", Cost: 10000, Prerequisites: []string{"frenzy-core"}},
	{ID: "spore-grain-vat", DisplayName: "Spore Grain Vat", Cost: 1600, Prerequisites: []string{"unlock-hive"}},
	{ID: "mycelial-armor", DisplayName: "Mycelial Armor", Cost: 2400, Prerequisites: []string{"spore-grain-vat"}},
	{ID: "spore-cloud-trap", DisplayName: "Spore Cloud Trap", Cost: 3600, Prerequisites: []string{"mycelial-armor"}},
	{ID: "hive-mind-link", DisplayName: "Hive Mind Link", Cost: 5600, Prerequisites: []string{"spore-cloud-trap"}},
	{ID: "queen-bloom", DisplayName: "Queen Bloom", Cost: 10000, Prerequisites: []string{"hive-mind-link"}},
	{ID: "venom-knife", DisplayName: "Venom Knife", Cost: 1600, Prerequisites: []string{"unlock-hive"}},
	{ID: "chitin-plating", DisplayName: "Chitin Plating", Cost: 2400, Prerequisites: []string{"venom-knife"}},
	{ID: "symbiote-graft", DisplayName: "Symbiote Graft", Cost: 3600, Prerequisites: []string{"chitin-plating"}},
	{ID: "toxin-reservoir", DisplayName: "Toxin Reservoir", Cost: 5600, Prerequisites: []string{"symbiote-graft"}},
	{ID: "parasite-bloom", DisplayName: "Parasite Bloom", Cost: 10000, Prerequisites: []string{"toxin-reservoir"}},
	{ID: "auto-turret", DisplayName: "Auto Turret", Cost: 1600, Prerequisites: []string{"unlock-university"}},
	{ID: "sentry-optics", DisplayName: "Sentry Optics", Cost: 2400, Prerequisites: []string{"auto-turret"}},
	{ID: "drone-bay", DisplayName: "Drone Bay", Cost: 3600, Prerequisites: []string{"sentry-optics"}},
	{ID: "targeting-mesh", DisplayName: "Targeting Mesh", Cost: 5600, Prerequisites: []string{"drone-bay"}},
	{ID: "overwatch-grid", DisplayName: "Overwatch Grid", Cost: 10000, Prerequisites: []string{"targeting-mesh"}},
	{ID: "logic-furnace", DisplayName: "Logic Furnace", Cost: 1600, Prerequisites: []string{"unlock-university"}},
	{ID: "nano-lathe", DisplayName: "Nano Lathe", Cost: 2400, Prerequisites: []string{"logic-furnace"}},
	{ID: "modular-print", DisplayName: "Modular Print", Cost: 3600, Prerequisites: []string{"nano-lathe"}},
	{ID: "quantum-assembler", DisplayName: "Quantum Assembler", Cost: 5600, Prerequisites: []string{"modular-print"}},
	{ID: "singularity-forge", DisplayName: "Singularity Forge", Cost: 10000, Prerequisites: []string{"quantum-assembler"}},
	{ID: "jammer-tower", DisplayName: "Jammer Tower", Cost: 1600, Prerequisites: []string{"unlock-data-angels"}},
	{ID: "signal-ghost", DisplayName: "Signal Ghost", Cost: 2400, Prerequisites: []string{"jammer-tower"}},
	{ID: "packet-sniffer", DisplayName: "Packet Sniffer", Cost: 3600, Prerequisites: []string{"signal-ghost"}},
	{ID: "uplink-spoof", DisplayName: "Uplink Spoof", Cost: 5600, Prerequisites: []string{"packet-sniffer"}},
	{ID: "ghost-protocol", DisplayName: "Ghost Protocol", Cost: 10000, Prerequisites: []string{"uplink-spoof"}},
	{ID: "backdoor-cloak", DisplayName: "Backdoor Cloak", Cost: 1600, Prerequisites: []string{"unlock-data-angels"}},
	{ID: "root-access", DisplayName: "Root Access", Cost: 2400, Prerequisites: []string{"backdoor-cloak"}},
	{ID: "firewall-breach", DisplayName: "Firewall Breach", Cost: 3600, Prerequisites: []string{"root-access"}},
	{ID: "zero-day-kit", DisplayName: "Zero Day Kit", Cost: 5600, Prerequisites: []string{"firewall-breach"}},
	{ID: "black-ice-suite", DisplayName: "Black Ice Suite", Cost: 10000, Prerequisites: []string{"zero-day-kit"}},
	{ID: "battalion-smg", DisplayName: "Battalion Smg", Cost: 1600, Prerequisites: []string{"unlock-battalion"}},
	{ID: "mortar-nest", DisplayName: "Mortar Nest", Cost: 2400, Prerequisites: []string{"battalion-smg"}},
	{ID: "fragment-armor", DisplayName: "Fragment Armor", Cost: 3600, Prerequisites: []string{"mortar-nest"}},
	{ID: "ammo-press", DisplayName: "Ammo Press", Cost: 5600, Prerequisites: []string{"fragment-armor"}},
	{ID: "ranged-damage", DisplayName: "Ranged Damage", Cost: 10000, Prerequisites: []string{"ammo-press"}},
	{ID: "tactical-optics", DisplayName: "Tactical Optics", Cost: 1600, Prerequisites: []string{"unlock-battalion"}},
	{ID: "supply-cache", DisplayName: "Supply Cache", Cost: 2400, Prerequisites: []string{"tactical-optics"}},
	{ID: "field-ration-kit", DisplayName: "Field Ration Kit", Cost: 3600, Prerequisites: []string{"supply-cache"}},
	{ID: "max-hp", DisplayName: "Max Hp", Cost: 5600, Prerequisites: []string{"field-ration-kit"}},
	{ID: "rally-cry", DisplayName: "Rally Cry", Cost: 10000, Prerequisites: []string{"max-hp"}},
	{ID: "tide-beacon", DisplayName: "Tide Beacon", Cost: 1600, Prerequisites: []string{"unlock-admiralty"}},
	{ID: "storm-sail-raft", DisplayName: "Storm Sail Raft", Cost: 2400, Prerequisites: []string{"tide-beacon"}},
	{ID: "net-cannon", DisplayName: "Net Cannon", Cost: 3600, Prerequisites: []string{"storm-sail-raft"}},
	{ID: "luminous-buoy", DisplayName: "Luminous Buoy", Cost: 5600, Prerequisites: []string{"net-cannon"}},
	{ID: "naval-command", DisplayName: "Naval Command", Cost: 10000, Prerequisites: []string{"luminous-buoy"}},
	{ID: "saltwater-desal", DisplayName: "Saltwater Desal", Cost: 1600, Prerequisites: []string{"unlock-admiralty"}},
	{ID: "weathercock-tower", DisplayName: "Weathercock Tower", Cost: 2400, Prerequisites: []string{"saltwater-desal"}},
	{ID: "weather-resistance", DisplayName: "Weather Resistance", Cost: 3600, Prerequisites: []string{"weathercock-tower"}},
	{ID: "tide-gauge", DisplayName: "Tide Gauge", Cost: 5600, Prerequisites: []string{"weather-resistance"}},
	{ID: "tempest-call", DisplayName: "Tempest Call", Cost: 10000, Prerequisites: []string{"tide-gauge"}},
}

// FactionUnlockNodes lists the six faction-gate nodes (memory_grid.rs
// names a FACTION_UNLOCK_NODES constant that the retrieved source
// doesn't define inline; this is reconstructed from every "unlock-"
// prefixed id the node table actually carries).
var FactionUnlockNodes = []string{
	"unlock-black-wolves", "unlock-hive", "unlock-university",
	"unlock-data-angels", "unlock-battalion", "unlock-admiralty",
}

var byID map[string]Node

func init() {
	byID = make(map[string]Node, len(Nodes))
	for _, n := range Nodes {
		byID[n.ID] = n
	}
}

// Lookup returns a node by id.
func Lookup(nodeID string) (Node, bool) {
	n, ok := byID[nodeID]
	return n, ok
}

// FactionOf returns the faction slug a faction-unlock node id grants,
// e.g. "unlock-black-wolves" -> "black-wolves", or "" if nodeID isn't
// one of FactionUnlockNodes.
func FactionOf(nodeID string) string {
	for _, f := range FactionUnlockNodes {
		if f == nodeID {
			return strings.TrimPrefix(nodeID, "unlock-")
		}
	}
	return ""
}

func isFactionUnlock(nodeID string) bool {
	return strings.HasPrefix(nodeID, "unlock-")
}

// hasNode reports whether csv's comma-separated entries contain node,
// splitting rather than substring-matching so "hive" doesn't false-
// match inside a longer id (memory_grid.rs's has_node).
func hasNode(csv, node string) bool {
	for _, n := range strings.Split(csv, ",") {
		if strings.TrimSpace(n) == node {
			return true
		}
	}
	return false
}

// PlayerHasNode reports whether csv shows node purchased. An empty csv
// is not special-cased here: callers pass ProgressRow.PurchasedCSV,
// which Initialize always seeds with "center" first (memory_grid.rs's
// player_has_node instead treats an entirely-absent progress row as
// implicitly having "center"; that case is handled by getOrInit in reducers.go,
// which always returns an initialized row).
func PlayerHasNode(csv, node string) bool {
	return hasNode(csv, node)
}

// isAvailable implements memory_grid.rs's is_node_available: already
// purchased is never available; a faction-unlock node additionally
// requires no other faction already unlocked and the lifetime shard
// floor met; every other node needs any one prerequisite purchased
// (OR-logic, "FFX-style").
func isAvailable(purchasedCSV, nodeID string, prerequisites []string, totalShardsSpent uint64) bool {
	if hasNode(purchasedCSV, nodeID) {
		return false
	}
	if isFactionUnlock(nodeID) {
		for _, f := range FactionUnlockNodes {
			if hasNode(purchasedCSV, f) {
				return false
			}
		}
		return totalShardsSpent >= MinFactionShardsSpent
	}
	for _, p := range prerequisites {
		if hasNode(purchasedCSV, p) {
			return true
		}
	}
	return false
}

// memoryShardDefID resolves the catalog id behind MemoryShardDefName,
// mirroring the source's lookup-by-name rather than a fixed def id.
func memoryShardDefID(catalog *item.Catalog) (string, bool) {
	for _, d := range catalog.All() {
		if d.Name == MemoryShardDefName {
			return d.ID, true
		}
	}
	return "", false
}

// countShards sums every Memory Shard instance bound to identity's
// inventory or hotbar (memory_grid.rs's count_memory_shards_in_inventory).
func countShards(tx *sql.Tx, catalog *item.Catalog, identity ids.Identity) (uint64, error) {
	defID, ok := memoryShardDefID(catalog)
	if !ok {
		return 0, nil
	}
	var total uint64
	for _, kind := range []item.LocationKind{item.LocationInventory, item.LocationHotbar} {
		insts, err := item.ListInventory(tx, identity, kind)
		if err != nil {
			return 0, reducer.Internalf(err, "listing %s for shard count", kind)
		}
		for _, inst := range insts {
			if inst.DefID == defID {
				total += uint64(inst.Quantity)
			}
		}
	}
	return total, nil
}

// consumeShards removes amount Memory Shard units from identity's
// inventory/hotbar rows in listing order, deleting rows that empty out
// and partially decrementing the row that completes consumption
// (memory_grid.rs's consume_memory_shards). Callers must have already
// verified sufficiency via countShards; an insufficiency here is an
// internal error, not a fresh validation failure.
func consumeShards(tx *sql.Tx, catalog *item.Catalog, identity ids.Identity, amount uint64) error {
	defID, ok := memoryShardDefID(catalog)
	if !ok {
		return reducer.Internalf(nil, "no %q item definition in catalog", MemoryShardDefName)
	}
	remaining := amount
	for _, kind := range []item.LocationKind{item.LocationInventory, item.LocationHotbar} {
		if remaining == 0 {
			break
		}
		insts, err := item.ListInventory(tx, identity, kind)
		if err != nil {
			return reducer.Internalf(err, "listing %s for shard consumption", kind)
		}
		for _, inst := range insts {
			if remaining == 0 {
				break
			}
			if inst.DefID != defID {
				continue
			}
			q := uint64(inst.Quantity)
			if q <= remaining {
				if err := item.Delete(tx, inst.InstanceID); err != nil {
					return reducer.Internalf(err, "consuming shard stack %s", inst.InstanceID)
				}
				remaining -= q
			} else {
				inst.Quantity = int(q - remaining)
				if err := item.Upsert(tx, inst); err != nil {
					return reducer.Internalf(err, "decrementing shard stack %s", inst.InstanceID)
				}
				remaining = 0
			}
		}
	}
	if remaining > 0 {
		return reducer.Internalf(nil, "insufficient memory shards mid-consumption, %d short", remaining)
	}
	return nil
}
