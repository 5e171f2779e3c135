package memorygrid

import (
	"database/sql"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// Initialize seeds a player's memory grid progress row with just
// "center" unlocked, idempotently (memory_grid.rs's
// initialize_memory_grid_progress: a no-op if a row already exists).
func Initialize(tx *sql.Tx, identity ids.Identity) error {
	if _, err := GetProgress(tx, identity); err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return reducer.Internalf(err, "loading memory grid progress for %s", identity)
	}
	return insertProgress(tx, Progress{Identity: identity, PurchasedCSV: "center"})
}

// getOrInit loads a player's progress row, creating it on first touch
// (purchase_memory_grid_node's "get or create player's progress").
func getOrInit(tx *sql.Tx, identity ids.Identity) (Progress, error) {
	p, err := GetProgress(tx, identity)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return Progress{}, reducer.Internalf(err, "loading memory grid progress for %s", identity)
	}
	p = Progress{Identity: identity, PurchasedCSV: "center"}
	if err := insertProgress(tx, p); err != nil {
		return Progress{}, reducer.Internalf(err, "creating memory grid progress for %s", identity)
	}
	return p, nil
}

// Purchase spends Memory Shard items from identity's inventory to
// unlock nodeID (spec §4.O, grounded on memory_grid.rs's
// purchase_memory_grid_node).
func Purchase(tx *sql.Tx, catalog *item.Catalog, identity ids.Identity, nodeID string, nowUs int64) error {
	node, ok := Lookup(nodeID)
	if !ok {
		return reducer.Validationf("Unknown memory grid node: %s", nodeID)
	}

	progress, err := getOrInit(tx, identity)
	if err != nil {
		return err
	}

	if !isAvailable(progress.PurchasedCSV, nodeID, node.Prerequisites, progress.TotalShardsSpent) {
		if hasNode(progress.PurchasedCSV, nodeID) {
			return reducer.Validationf("Node already purchased: %s", nodeID)
		}
		if isFactionUnlock(nodeID) {
			if progress.TotalShardsSpent < MinFactionShardsSpent {
				return reducer.Validationf(
					"Faction unlock requires spending at least %d total shards. Currently spent: %d",
					MinFactionShardsSpent, progress.TotalShardsSpent)
			}
			return reducer.Validationf("Already have a faction unlocked")
		}
		return reducer.Validationf("Node is not available for purchase. Check prerequisites.")
	}

	available, err := countShards(tx, catalog, identity)
	if err != nil {
		return err
	}
	if available < node.Cost {
		return reducer.Validationf("Insufficient memory shards. Need %d but only have %d.", node.Cost, available)
	}
	if err := consumeShards(tx, catalog, identity, node.Cost); err != nil {
		return err
	}

	if progress.PurchasedCSV == "" {
		progress.PurchasedCSV = nodeID
	} else {
		progress.PurchasedCSV = progress.PurchasedCSV + "," + nodeID
	}
	progress.TotalShardsSpent += node.Cost
	if faction := FactionOf(nodeID); faction != "" {
		progress.UnlockedFaction = faction
	}
	if err := saveProgress(tx, progress); err != nil {
		return reducer.Internalf(err, "saving memory grid progress for %s", identity)
	}

	if err := insertPurchaseRecord(tx, identity, nodeID, node.DisplayName, node.Cost, nowUs); err != nil {
		return reducer.Internalf(err, "recording memory grid purchase for %s", identity)
	}
	return nil
}
