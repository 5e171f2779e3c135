// Package weather implements per-chunk weather classes and the rain
// collection they drive (spec §4.I): collection-rate table, reservoir
// accumulation, and the salt-tag propagation/reset rules between a
// rain collector's reservoir and the water container sitting in its
// single slot.
package weather

import (
	"database/sql"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// Class is a chunk's current weather (spec §4.I).
type Class string

const (
	Clear      Class = "Clear"
	Light      Class = "Light"
	Moderate   Class = "Moderate"
	Heavy      Class = "Heavy"
	HeavyStorm Class = "HeavyStorm"
)

// CollectionRate is spec §4.I's per-class collection rate, in
// units/second.
func CollectionRate(c Class) float64 {
	switch c {
	case Light:
		return 0.02
	case Moderate:
		return 0.05
	case Heavy:
		return 0.08
	case HeavyStorm:
		return 0.12
	default:
		return 0
	}
}

// MaxWater is the rain collector reservoir's hard cap.
const MaxWater = 40.0

// ContainerCapacity returns the water-container capacity for defID, in
// liters, and whether defID is a water container at all (spec §4.I).
func ContainerCapacity(defID string) (float64, bool) {
	switch defID {
	case "reed_bottle":
		return 2.0, true
	case "plastic_jug":
		return 5.0, true
	default:
		return 0, false
	}
}

// DB is the subset of *sql.DB/*sql.Tx the chunk_weather repo needs.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Get returns chunkIndex's current class, defaulting to Clear for a
// chunk with no row yet (spec §4.I: weather starts calm everywhere).
func Get(db DB, chunkIndex int64) (Class, error) {
	var class string
	err := db.QueryRow(`SELECT class FROM chunk_weather WHERE chunk_index = ?`, chunkIndex).Scan(&class)
	if err == sql.ErrNoRows {
		return Clear, nil
	}
	if err != nil {
		return "", reducer.Internalf(err, "reading chunk_weather for chunk %d", chunkIndex)
	}
	return Class(class), nil
}

// Set records chunkIndex's weather class.
func Set(db DB, chunkIndex int64, class Class, nowUs int64) error {
	_, err := db.Exec(`INSERT INTO chunk_weather (chunk_index, class, updated_at_us) VALUES (?,?,?)
		ON CONFLICT(chunk_index) DO UPDATE SET class=excluded.class, updated_at_us=excluded.updated_at_us`,
		chunkIndex, string(class), nowUs)
	if err != nil {
		return reducer.Internalf(err, "writing chunk_weather for chunk %d", chunkIndex)
	}
	return nil
}

// ListActive returns every chunk currently raining (class != Clear),
// for the collection-tick reducer to iterate without scanning every
// chunk on the map.
func ListActive(db DB) (map[int64]Class, error) {
	rows, err := db.Query(`SELECT chunk_index, class FROM chunk_weather WHERE class != 'Clear'`)
	if err != nil {
		return nil, reducer.Internalf(err, "listing active chunk_weather rows")
	}
	defer rows.Close()
	out := make(map[int64]Class)
	for rows.Next() {
		var idx int64
		var class string
		if err := rows.Scan(&idx, &class); err != nil {
			return nil, reducer.Internalf(err, "scanning chunk_weather row")
		}
		out[idx] = Class(class)
	}
	return out, rows.Err()
}

// CollectChunk applies one tick of rain collection to every active
// rain collector in chunkIndex (the scheduled reducer body). Rain is
// always fresh: an empty reservoir receiving water resets its salt
// tag, mirroring original_source's add_water_to_collector.
func CollectChunk(db DB, chunkIndex int64, class Class, elapsedSeconds float64, nowUs int64) error {
	rate := CollectionRate(class)
	if rate <= 0 {
		return nil
	}
	collectors, err := entity.ListRainCollectorsInChunk(db, chunkIndex)
	if err != nil {
		return reducer.Internalf(err, "listing rain collectors in chunk %d", chunkIndex)
	}
	add := rate * elapsedSeconds
	for _, c := range collectors {
		wasEmpty := c.WaterLiters <= 0
		c.WaterLiters += add
		if c.WaterLiters > MaxWater {
			c.WaterLiters = MaxWater
		}
		if wasEmpty {
			c.IsSalt = false
		}
		if err := entity.UpdateRainCollector(db, c); err != nil {
			return reducer.Internalf(err, "updating rain collector %d", c.ID)
		}
	}
	return nil
}

// FillContainer transfers water from collector's reservoir into the
// water container sitting in its single slot, capped by the
// container's own capacity. Transferring salt water converts the
// whole container to salt; transferring fresh water into an
// already-salt container does not clear the tag (spec §4.I: "Adding
// container water carrying the salt tag converts the whole reservoir
// to salt" — the symmetric container-fill direction).
func FillContainer(tx *sql.Tx, catalog *item.Catalog, c *entity.RainCollector) error {
	if c.WaterLiters <= 0 {
		return reducer.Validationf("Rain collector has no water to transfer")
	}
	inst, ok, err := slotInstance(tx, c)
	if err != nil {
		return err
	}
	if !ok {
		return reducer.Validationf("No water container in rain collector")
	}
	def, found := catalog.Lookup(inst.DefID)
	if !found {
		return reducer.Internalf(nil, "missing item definition %q", inst.DefID)
	}
	capacity, isWater := ContainerCapacity(def.ID)
	if !isWater {
		return reducer.Validationf("Item is not a valid water container")
	}
	available := capacity - inst.Data.WaterLiters
	if available <= 0 {
		return reducer.Validationf("Water container is already full")
	}
	transfer := c.WaterLiters
	if transfer > available {
		transfer = available
	}
	if c.IsSalt {
		inst.Data.IsSalt = true
	}
	inst.Data.WaterLiters += transfer
	if err := item.Upsert(tx, inst); err != nil {
		return reducer.Internalf(err, "filling water container %q", inst.InstanceID)
	}
	c.WaterLiters -= transfer
	if c.WaterLiters <= 0 {
		c.IsSalt = false
	}
	if err := entity.UpdateRainCollector(tx, c); err != nil {
		return reducer.Internalf(err, "updating rain collector %d", c.ID)
	}
	return nil
}

// TransferToReservoir empties the slot's water container into
// collector's reservoir, capped by reservoir capacity, propagating the
// salt tag per spec §4.I ("Adding container water carrying the salt
// tag converts the whole reservoir to salt").
func TransferToReservoir(tx *sql.Tx, catalog *item.Catalog, c *entity.RainCollector) error {
	inst, ok, err := slotInstance(tx, c)
	if err != nil {
		return err
	}
	if !ok {
		return reducer.Validationf("No water container in rain collector")
	}
	if inst.Data.WaterLiters <= 0 {
		return reducer.Validationf("Water container is empty")
	}
	available := MaxWater - c.WaterLiters
	if available <= 0 {
		return reducer.Validationf("Rain collector is already full")
	}
	transfer := inst.Data.WaterLiters
	if transfer > available {
		transfer = available
	}
	if inst.Data.IsSalt || c.IsSalt {
		c.IsSalt = true
	}
	c.WaterLiters += transfer
	if err := entity.UpdateRainCollector(tx, c); err != nil {
		return reducer.Internalf(err, "updating rain collector %d", c.ID)
	}
	inst.Data.WaterLiters -= transfer
	if inst.Data.WaterLiters <= 0.001 {
		inst.Data.WaterLiters = 0
		inst.Data.IsSalt = false
	}
	if err := item.Upsert(tx, inst); err != nil {
		return reducer.Internalf(err, "draining water container %q", inst.InstanceID)
	}
	return nil
}

// EmptyReservoir discards all reservoir water, clearing the salt tag
// so the next rain collected is fresh (spec §4.I).
func EmptyReservoir(db DB, c *entity.RainCollector) error {
	if c.WaterLiters <= 0 {
		return reducer.Validationf("Rain collector reservoir is already empty")
	}
	c.WaterLiters = 0
	c.IsSalt = false
	if err := entity.UpdateRainCollector(db, c); err != nil {
		return reducer.Internalf(err, "updating rain collector %d", c.ID)
	}
	return nil
}

func slotInstance(tx *sql.Tx, c *entity.RainCollector) (item.Instance, bool, error) {
	inst, err := item.GetAt(tx, c.SlotLocation(0))
	if err == sql.ErrNoRows {
		return item.Instance{}, false, nil
	}
	if err != nil {
		return item.Instance{}, false, reducer.Internalf(err, "reading rain collector %d slot 0", c.ID)
	}
	return inst, true, nil
}
