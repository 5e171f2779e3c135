package main

import (
	"database/sql"
	"encoding/json"

	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/inventory"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
	"github.com/ownworld/core/internal/transport"
)

// resolveContainer addresses nine of the twelve container.Container
// kinds named in spec §4.D (compost bins, fish traps and player corpses
// are not addressable through it): the three player-scoped ones are always
// built from the authenticated caller's own identity, never from a
// request-supplied owner, so a client can never address another
// player's backpack/hotbar/equip slots through this family of
// reducers (the positioned world containers carry no such
// restriction — see DESIGN.md's note on container-level access).
func resolveContainer(tx *sql.Tx, owner ids.Identity, kind string, containerID int64) (container.Container, error) {
	switch kind {
	case "inventory":
		return inventory.Inventory{Owner: owner}, nil
	case "hotbar":
		return inventory.Hotbar{Owner: owner}, nil
	case "equipped":
		return inventory.Equipped{Owner: owner}, nil
	case "box", "wooden_storage_box":
		return entity.GetBox(tx, containerID)
	case "campfire":
		return entity.GetCampfire(tx, containerID)
	case "furnace":
		return entity.GetFurnace(tx, containerID)
	case "lantern":
		return entity.GetLantern(tx, containerID)
	case "turret":
		return entity.GetTurret(tx, containerID)
	case "rain_collector", "collector":
		return entity.GetRainCollector(tx, containerID)
	default:
		return nil, reducer.Validationf("unknown container_kind %q", kind)
	}
}

type containerRef struct {
	Kind string `json:"container_kind"`
	ID   int64  `json:"container_id"`
}

func translateContainerErr(err error) error {
	switch err {
	case container.ErrItemNotFound:
		return reducer.Validationf("Item not found")
	case container.ErrSlotNotFound:
		return reducer.Validationf("Slot is empty")
	case container.ErrRejected:
		return reducer.Validationf("Destination rejects this item type")
	case container.ErrNoSpace:
		return reducer.Validationf("No space available")
	case container.ErrInvalidSlot:
		return reducer.Validationf("Slot index out of range")
	case container.ErrInvalidQty:
		return reducer.Validationf("Invalid quantity")
	default:
		return err
	}
}

// bindInventoryReducers wires the full move_item_to_*/split_stack_*/
// quick_move_*/move_item_within/split_stack_within/drop_from_slot_to_
// world family (spec §6, §4.D) onto internal/container's free
// functions, addressing containers uniformly via resolveContainer.
func bindInventoryReducers(srv *transport.Server, catalog *item.Catalog) {
	srv.Bind("move_item_to_slot", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			ItemID string `json:"item_id"`
			Slot   int    `json:"slot"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		dst, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.MoveToSlot(tx, catalog, req.ItemID, dst, req.Slot); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("move_item_from_slot", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			Slot    int          `json:"slot"`
			Dst     containerRef `json:"destination"`
			DstSlot int          `json:"destination_slot"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		src, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		dst, err := resolveContainer(tx, identity, req.Dst.Kind, req.Dst.ID)
		if err != nil {
			return nil, err
		}
		dstLoc := dst.SlotLocation(req.DstSlot)
		if err := container.MoveFromSlot(tx, catalog, src, req.Slot, dstLoc, dst.Accepts); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("split_stack_into_slot", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			ItemID string `json:"item_id"`
			Slot   int    `json:"slot"`
			Qty    int    `json:"qty"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		dst, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.SplitIntoSlot(tx, catalog, req.ItemID, req.Qty, dst, req.Slot); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("split_stack_from_slot", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			Slot    int          `json:"slot"`
			Qty     int          `json:"qty"`
			Dst     containerRef `json:"destination"`
			DstSlot int          `json:"destination_slot"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		src, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		dst, err := resolveContainer(tx, identity, req.Dst.Kind, req.Dst.ID)
		if err != nil {
			return nil, err
		}
		dstLoc := dst.SlotLocation(req.DstSlot)
		if err := container.SplitFromSlot(tx, catalog, src, req.Slot, req.Qty, dstLoc, dst.Accepts); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("quick_move_to", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			ItemID string `json:"item_id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		dst, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.QuickMoveTo(tx, catalog, req.ItemID, dst); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("quick_move_from", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			Slot int `json:"slot"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		src, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.QuickMoveFrom(tx, catalog, src, req.Slot, inventory.QuickMoveOrder(identity)); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("move_item_within", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			SrcSlot int `json:"src_slot"`
			DstSlot int `json:"dst_slot"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		c, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.MoveWithin(tx, catalog, c, req.SrcSlot, req.DstSlot); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("split_stack_within", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			SrcSlot int `json:"src_slot"`
			DstSlot int `json:"dst_slot"`
			Qty     int `json:"qty"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		c, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		if err := container.SplitWithin(tx, catalog, c, req.SrcSlot, req.DstSlot, req.Qty); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("drop_from_slot_to_world", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			Slot int     `json:"slot"`
			PosX float32 `json:"pos_x"`
			PosY float32 `json:"pos_y"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		src, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		d := &entity.DroppedItem{PosX: req.PosX, PosY: req.PosY, ChunkIndex: spatial.ChunkIndex(req.PosX, req.PosY), CreatedAtUs: nowUs}
		if err := entity.InsertDroppedItem(tx, d); err != nil {
			return nil, reducer.Internalf(err, "creating dropped item")
		}
		if err := container.DropFromSlot(tx, src, req.Slot, d.ID); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("split_and_drop_from_slot_to_world", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			containerRef
			Slot int     `json:"slot"`
			Qty  int     `json:"qty"`
			PosX float32 `json:"pos_x"`
			PosY float32 `json:"pos_y"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		src, err := resolveContainer(tx, identity, req.Kind, req.ID)
		if err != nil {
			return nil, err
		}
		d := &entity.DroppedItem{PosX: req.PosX, PosY: req.PosY, ChunkIndex: spatial.ChunkIndex(req.PosX, req.PosY), CreatedAtUs: nowUs}
		if err := entity.InsertDroppedItem(tx, d); err != nil {
			return nil, reducer.Internalf(err, "creating dropped item")
		}
		if err := container.SplitAndDropFromSlot(tx, src, req.Slot, req.Qty, d.ID); err != nil {
			return nil, translateContainerErr(err)
		}
		return map[string]bool{"ok": true}, nil
	})
}
