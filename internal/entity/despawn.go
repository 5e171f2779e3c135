package entity

import (
	"database/sql"
)

// DespawnDueDroppedItems deletes every dropped-item whose despawn
// timer has elapsed, along with the item instance it was carrying
// (spec §6's 60s dropped-item despawn sweep). Items with no
// despawn_at_us set (never expire) are untouched.
func DespawnDueDroppedItems(tx *sql.Tx, nowUs int64) (int, error) {
	ids, err := DueDroppedItemDespawns(tx, nowUs)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM item_instances WHERE dropped_item_id = ?`, id); err != nil {
			return 0, err
		}
		if err := DeleteDroppedItem(tx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
