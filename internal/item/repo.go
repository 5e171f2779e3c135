package item

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ownworld/core/internal/ids"
)

// Repo persists item instances to the item_instances table. All
// container/inventory packages go through this rather than writing
// raw SQL themselves, so the location-column mapping lives in one
// place.
type Repo struct {
	DB *sql.DB
}

// NewRepo wraps a *sql.DB as a Repo.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// NewInstanceID mints a fresh instance id.
func NewInstanceID() string {
	return uuid.NewString()
}

func scanInstance(row interface {
	Scan(dest ...interface{}) error
}) (Instance, error) {
	var inst Instance
	var owner sql.NullString
	var slot sql.NullInt64
	var equipSlot sql.NullString
	var containerType sql.NullString
	var containerID sql.NullInt64
	var droppedItemID sql.NullInt64
	var placedAt sql.NullInt64
	var waterLiters sql.NullFloat64
	var isSalt sql.NullBool

	err := row.Scan(
		&inst.InstanceID, &inst.DefID, &inst.Quantity, &inst.Location.Kind,
		&owner, &slot, &equipSlot, &containerType, &containerID, &droppedItemID,
		&placedAt, &waterLiters, &isSalt,
	)
	if err != nil {
		return Instance{}, err
	}
	if owner.Valid {
		id, err := ids.ParseIdentity(owner.String)
		if err != nil {
			return Instance{}, fmt.Errorf("item: parsing owner identity: %w", err)
		}
		inst.Location.Owner = id
	}
	if slot.Valid {
		inst.Location.Slot = int(slot.Int64)
	}
	if equipSlot.Valid {
		inst.Location.EquipSlot = ArmorSlot(equipSlot.String)
	}
	if containerType.Valid {
		inst.Location.ContainerType = ContainerType(containerType.String)
	}
	if containerID.Valid {
		inst.Location.ContainerID = containerID.Int64
	}
	if droppedItemID.Valid {
		inst.Location.DroppedItemID = droppedItemID.Int64
	}
	if placedAt.Valid {
		v := placedAt.Int64
		inst.Data.PlacedAtUs = &v
	}
	if waterLiters.Valid {
		inst.Data.WaterLiters = waterLiters.Float64
	}
	if isSalt.Valid {
		inst.Data.IsSalt = isSalt.Bool
	}
	return inst, nil
}

const selectColumns = `instance_id, def_id, quantity, location_kind,
	owner, slot, equip_slot, container_type, container_id, dropped_item_id,
	placed_at_us, water_liters, is_salt`

// Get loads a single instance by id.
func (r *Repo) Get(instanceID string) (Instance, error) {
	row := r.DB.QueryRow(`SELECT `+selectColumns+` FROM item_instances WHERE instance_id = ?`, instanceID)
	return scanInstance(row)
}

// GetTx is the transactional variant of Get, used inside reducers that
// must read-then-write within one commit.
func GetTx(q interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}, instanceID string) (Instance, error) {
	row := q.QueryRow(`SELECT `+selectColumns+` FROM item_instances WHERE instance_id = ?`, instanceID)
	return scanInstance(row)
}

// ListInventory returns every instance owned by owner in the given
// location kind (Inventory or Hotbar), ordered by slot.
func ListInventory(q interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}, owner ids.Identity, kind LocationKind) ([]Instance, error) {
	rows, err := q.Query(`SELECT `+selectColumns+` FROM item_instances
		WHERE owner = ? AND location_kind = ? ORDER BY slot ASC`, owner.String(), kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ListContainer returns every instance in the given container, ordered
// by slot.
func ListContainer(q interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}, ct ContainerType, containerID int64) ([]Instance, error) {
	rows, err := q.Query(`SELECT `+selectColumns+` FROM item_instances
		WHERE container_type = ? AND container_id = ? ORDER BY slot ASC`, ct, containerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Upsert writes inst, creating it if InstanceID is new.
func Upsert(x execer, inst Instance) error {
	loc := inst.Location
	var owner, containerType, equipSlot interface{}
	var slot, containerID, droppedItemID interface{}
	if !loc.Owner.IsZero() {
		owner = loc.Owner.String()
	}
	if loc.Kind == LocationInventory || loc.Kind == LocationHotbar || loc.Kind == LocationContainer {
		slot = loc.Slot
	}
	if loc.Kind == LocationEquipped {
		equipSlot = string(loc.EquipSlot)
	}
	if loc.Kind == LocationContainer {
		containerType = string(loc.ContainerType)
		containerID = loc.ContainerID
	}
	if loc.Kind == LocationDropped {
		droppedItemID = loc.DroppedItemID
	}
	_, err := x.Exec(`INSERT INTO item_instances
		(instance_id, def_id, quantity, location_kind, owner, slot, equip_slot, container_type, container_id,
		 dropped_item_id, placed_at_us, water_liters, is_salt)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(instance_id) DO UPDATE SET
			def_id=excluded.def_id, quantity=excluded.quantity, location_kind=excluded.location_kind,
			owner=excluded.owner, slot=excluded.slot, equip_slot=excluded.equip_slot,
			container_type=excluded.container_type,
			container_id=excluded.container_id, dropped_item_id=excluded.dropped_item_id,
			placed_at_us=excluded.placed_at_us, water_liters=excluded.water_liters, is_salt=excluded.is_salt`,
		inst.InstanceID, inst.DefID, inst.Quantity, string(loc.Kind), owner, slot, equipSlot, containerType, containerID,
		droppedItemID, inst.Data.PlacedAtUs, inst.Data.WaterLiters, inst.Data.IsSalt,
	)
	return err
}

// GetAt returns the instance occupying loc, or sql.ErrNoRows if the slot
// is empty. Equipped locations are matched on (owner, equip_slot);
// every other kind uses its own unique index.
func GetAt(q interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}, loc Location) (Instance, error) {
	switch loc.Kind {
	case LocationInventory, LocationHotbar:
		row := q.QueryRow(`SELECT `+selectColumns+` FROM item_instances
			WHERE owner = ? AND location_kind = ? AND slot = ?`, loc.Owner.String(), loc.Kind, loc.Slot)
		return scanInstance(row)
	case LocationEquipped:
		row := q.QueryRow(`SELECT `+selectColumns+` FROM item_instances
			WHERE owner = ? AND location_kind = ? AND equip_slot = ?`, loc.Owner.String(), loc.Kind, string(loc.EquipSlot))
		return scanInstance(row)
	case LocationContainer:
		row := q.QueryRow(`SELECT `+selectColumns+` FROM item_instances
			WHERE container_type = ? AND container_id = ? AND slot = ?`, loc.ContainerType, loc.ContainerID, loc.Slot)
		return scanInstance(row)
	case LocationDropped:
		row := q.QueryRow(`SELECT `+selectColumns+` FROM item_instances
			WHERE dropped_item_id = ?`, loc.DroppedItemID)
		return scanInstance(row)
	default:
		return Instance{}, fmt.Errorf("item: GetAt: unsupported location kind %q", loc.Kind)
	}
}

// Delete removes an instance, e.g. when quantity reaches zero (spec §3).
func Delete(x execer, instanceID string) error {
	_, err := x.Exec(`DELETE FROM item_instances WHERE instance_id = ?`, instanceID)
	return err
}
