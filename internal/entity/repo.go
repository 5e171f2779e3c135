// Repo functions for every entity table. Each follows the same shape:
// Insert<Type> persists a new row and sets its ID; Get<Type> loads one
// by id; Update<Type> persists the mutable columns back. Owner and
// last_damaged_by columns scan directly into ids.Identity, which
// implements sql.Scanner/driver.Valuer (NULL <-> the zero identity),
// so no per-call NullString plumbing is needed here.
package entity

import (
	"database/sql"

	"github.com/ownworld/core/internal/ids"
)

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// DB is the subset of *sql.DB / *sql.Tx every function below needs.
type DB interface {
	execer
	queryer
}

// --- Campfire ---

func InsertCampfire(db DB, c *Campfire) error {
	res, err := db.Exec(`INSERT INTO campfires
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, is_lit, fuel_remaining_us)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		c.PosX, c.PosY, c.ChunkIndex, c.Owner, c.Health, c.MaxHealth, c.SlotCount, c.IsLit, c.FuelRemainingUs)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func GetCampfire(db DB, id int64) (*Campfire, error) {
	var c Campfire
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, is_lit, fuel_remaining_us
		FROM campfires WHERE id = ?`, id).Scan(
		&c.ID, &c.PosX, &c.PosY, &c.ChunkIndex, &c.Owner, &c.Health, &c.MaxHealth,
		&c.LastHitTimeUs, &c.LastDamagedBy, &c.IsDestroyed, &c.DestroyedAtUs, &c.SlotCount, &c.IsLit, &c.FuelRemainingUs)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func UpdateCampfire(db DB, c *Campfire) error {
	_, err := db.Exec(`UPDATE campfires SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=?, is_lit=?, fuel_remaining_us=? WHERE id=?`,
		c.Health, c.MaxHealth, c.LastHitTimeUs, c.LastDamagedBy, c.IsDestroyed, c.DestroyedAtUs,
		c.IsLit, c.FuelRemainingUs, c.ID)
	return err
}

// ListLitCampfires returns every lit, non-destroyed campfire, for the
// cook scheduled reducer.
func ListLitCampfires(db DB) ([]*Campfire, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, is_lit, fuel_remaining_us
		FROM campfires WHERE is_destroyed = 0 AND is_lit = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Campfire
	for rows.Next() {
		var c Campfire
		if err := rows.Scan(&c.ID, &c.PosX, &c.PosY, &c.ChunkIndex, &c.Owner, &c.Health, &c.MaxHealth,
			&c.LastHitTimeUs, &c.LastDamagedBy, &c.IsDestroyed, &c.DestroyedAtUs, &c.SlotCount,
			&c.IsLit, &c.FuelRemainingUs); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// --- Furnace ---

func InsertFurnace(db DB, f *Furnace) error {
	res, err := db.Exec(`INSERT INTO furnaces
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, is_lit, fuel_remaining_us)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		f.PosX, f.PosY, f.ChunkIndex, f.Owner, f.Health, f.MaxHealth, f.SlotCount, f.IsLit, f.FuelRemainingUs)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

func GetFurnace(db DB, id int64) (*Furnace, error) {
	var f Furnace
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, is_lit, fuel_remaining_us
		FROM furnaces WHERE id = ?`, id).Scan(
		&f.ID, &f.PosX, &f.PosY, &f.ChunkIndex, &f.Owner, &f.Health, &f.MaxHealth,
		&f.LastHitTimeUs, &f.LastDamagedBy, &f.IsDestroyed, &f.DestroyedAtUs, &f.SlotCount, &f.IsLit, &f.FuelRemainingUs)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func UpdateFurnace(db DB, f *Furnace) error {
	_, err := db.Exec(`UPDATE furnaces SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=?, is_lit=?, fuel_remaining_us=? WHERE id=?`,
		f.Health, f.MaxHealth, f.LastHitTimeUs, f.LastDamagedBy, f.IsDestroyed, f.DestroyedAtUs,
		f.IsLit, f.FuelRemainingUs, f.ID)
	return err
}

// ListLitFurnaces returns every lit, non-destroyed furnace, for the
// smelt scheduled reducer.
func ListLitFurnaces(db DB) ([]*Furnace, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, is_lit, fuel_remaining_us
		FROM furnaces WHERE is_destroyed = 0 AND is_lit = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Furnace
	for rows.Next() {
		var f Furnace
		if err := rows.Scan(&f.ID, &f.PosX, &f.PosY, &f.ChunkIndex, &f.Owner, &f.Health, &f.MaxHealth,
			&f.LastHitTimeUs, &f.LastDamagedBy, &f.IsDestroyed, &f.DestroyedAtUs, &f.SlotCount,
			&f.IsLit, &f.FuelRemainingUs); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// --- WoodenStorageBox ---

func InsertBox(db DB, b *WoodenStorageBox) error {
	res, err := db.Exec(`INSERT INTO wooden_storage_boxes
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots) VALUES (?,?,?,?,?,?,?)`,
		b.PosX, b.PosY, b.ChunkIndex, b.Owner, b.Health, b.MaxHealth, b.SlotCount)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

func GetBox(db DB, id int64) (*WoodenStorageBox, error) {
	var b WoodenStorageBox
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots
		FROM wooden_storage_boxes WHERE id = ?`, id).Scan(
		&b.ID, &b.PosX, &b.PosY, &b.ChunkIndex, &b.Owner, &b.Health, &b.MaxHealth,
		&b.LastHitTimeUs, &b.LastDamagedBy, &b.IsDestroyed, &b.DestroyedAtUs, &b.SlotCount)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func UpdateBox(db DB, b *WoodenStorageBox) error {
	_, err := db.Exec(`UPDATE wooden_storage_boxes SET health=?, max_health=?, last_hit_time_us=?,
		last_damaged_by=?, is_destroyed=?, destroyed_at_us=? WHERE id=?`,
		b.Health, b.MaxHealth, b.LastHitTimeUs, b.LastDamagedBy, b.IsDestroyed, b.DestroyedAtUs, b.ID)
	return err
}

// --- Barrel ---

func InsertBarrel(db DB, b *Barrel) error {
	res, err := db.Exec(`INSERT INTO barrels (pos_x, pos_y, chunk_index, health, max_health, loot_tier)
		VALUES (?,?,?,?,?,?)`, b.PosX, b.PosY, b.ChunkIndex, b.Health, b.MaxHealth, b.LootTier)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

func GetBarrel(db DB, id int64) (*Barrel, error) {
	var b Barrel
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, loot_tier, respawn_at_us
		FROM barrels WHERE id = ?`, id).Scan(
		&b.ID, &b.PosX, &b.PosY, &b.ChunkIndex, &b.Health, &b.MaxHealth,
		&b.LastHitTimeUs, &b.LastDamagedBy, &b.IsDestroyed, &b.DestroyedAtUs, &b.LootTier, &b.RespawnAtUs)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func UpdateBarrel(db DB, b *Barrel) error {
	_, err := db.Exec(`UPDATE barrels SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=?, respawn_at_us=? WHERE id=?`,
		b.Health, b.MaxHealth, b.LastHitTimeUs, b.LastDamagedBy, b.IsDestroyed, b.DestroyedAtUs, b.RespawnAtUs, b.ID)
	return err
}

// DueBarrelRespawns returns every destroyed barrel whose respawn_at_us
// has passed (spec §6: "barrel respawn (30 s)").
func DueBarrelRespawns(db DB, nowUs int64) ([]int64, error) {
	rows, err := db.Query(`SELECT id FROM barrels WHERE is_destroyed = 1 AND respawn_at_us IS NOT NULL AND respawn_at_us <= ?`, nowUs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- CompostBin ---

func InsertCompostBin(db DB, c *CompostBin) error {
	res, err := db.Exec(`INSERT INTO compost_bins (pos_x, pos_y, chunk_index, owner, health, max_health, num_slots)
		VALUES (?,?,?,?,?,?,?)`, c.PosX, c.PosY, c.ChunkIndex, c.Owner, c.Health, c.MaxHealth, c.SlotCount)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func GetCompostBin(db DB, id int64) (*CompostBin, error) {
	var c CompostBin
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots
		FROM compost_bins WHERE id = ?`, id).Scan(
		&c.ID, &c.PosX, &c.PosY, &c.ChunkIndex, &c.Owner, &c.Health, &c.MaxHealth,
		&c.LastHitTimeUs, &c.LastDamagedBy, &c.IsDestroyed, &c.DestroyedAtUs, &c.SlotCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveCompostBins returns every non-destroyed compost bin, for
// the 60s compost-processing scheduled reducer (spec §4.H).
func ListActiveCompostBins(db DB) ([]*CompostBin, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots
		FROM compost_bins WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*CompostBin
	for rows.Next() {
		var c CompostBin
		if err := rows.Scan(&c.ID, &c.PosX, &c.PosY, &c.ChunkIndex, &c.Owner, &c.Health, &c.MaxHealth,
			&c.LastHitTimeUs, &c.LastDamagedBy, &c.IsDestroyed, &c.DestroyedAtUs, &c.SlotCount); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// --- FishTrap ---

func InsertFishTrap(db DB, f *FishTrap) error {
	res, err := db.Exec(`INSERT INTO fish_traps (pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, requires_water)
		VALUES (?,?,?,?,?,?,?,?)`, f.PosX, f.PosY, f.ChunkIndex, f.Owner, f.Health, f.MaxHealth, f.SlotCount, f.RequiresWater)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

func GetFishTrap(db DB, id int64) (*FishTrap, error) {
	var f FishTrap
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, requires_water
		FROM fish_traps WHERE id = ?`, id).Scan(
		&f.ID, &f.PosX, &f.PosY, &f.ChunkIndex, &f.Owner, &f.Health, &f.MaxHealth,
		&f.LastHitTimeUs, &f.LastDamagedBy, &f.IsDestroyed, &f.DestroyedAtUs, &f.SlotCount, &f.RequiresWater)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListActiveFishTraps returns every non-destroyed fish trap, for the
// 60s fish-trap-processing scheduled reducer (spec §4.H).
func ListActiveFishTraps(db DB) ([]*FishTrap, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, requires_water
		FROM fish_traps WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*FishTrap
	for rows.Next() {
		var f FishTrap
		if err := rows.Scan(&f.ID, &f.PosX, &f.PosY, &f.ChunkIndex, &f.Owner, &f.Health, &f.MaxHealth,
			&f.LastHitTimeUs, &f.LastDamagedBy, &f.IsDestroyed, &f.DestroyedAtUs, &f.SlotCount, &f.RequiresWater); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// --- RainCollector ---

func InsertRainCollector(db DB, r *RainCollector) error {
	res, err := db.Exec(`INSERT INTO rain_collectors
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, water_liters, is_salt)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.PosX, r.PosY, r.ChunkIndex, r.Owner, r.Health, r.MaxHealth, r.SlotCount, r.WaterLiters, r.IsSalt)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func GetRainCollector(db DB, id int64) (*RainCollector, error) {
	var r RainCollector
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, water_liters, is_salt
		FROM rain_collectors WHERE id = ?`, id).Scan(
		&r.ID, &r.PosX, &r.PosY, &r.ChunkIndex, &r.Owner, &r.Health, &r.MaxHealth,
		&r.LastHitTimeUs, &r.LastDamagedBy, &r.IsDestroyed, &r.DestroyedAtUs, &r.SlotCount, &r.WaterLiters, &r.IsSalt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func UpdateRainCollector(db DB, r *RainCollector) error {
	_, err := db.Exec(`UPDATE rain_collectors SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=?, water_liters=?, is_salt=? WHERE id=?`,
		r.Health, r.MaxHealth, r.LastHitTimeUs, r.LastDamagedBy, r.IsDestroyed, r.DestroyedAtUs,
		r.WaterLiters, r.IsSalt, r.ID)
	return err
}

// ListRainCollectorsInChunk returns every non-destroyed rain collector
// in a chunk, for the weather-driven collection-rate update (spec §4.I).
func ListRainCollectorsInChunk(db DB, chunkIndex int64) ([]*RainCollector, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, water_liters, is_salt
		FROM rain_collectors WHERE chunk_index = ? AND is_destroyed = 0`, chunkIndex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*RainCollector
	for rows.Next() {
		var r RainCollector
		if err := rows.Scan(&r.ID, &r.PosX, &r.PosY, &r.ChunkIndex, &r.Owner, &r.Health, &r.MaxHealth,
			&r.LastHitTimeUs, &r.LastDamagedBy, &r.IsDestroyed, &r.DestroyedAtUs, &r.SlotCount, &r.WaterLiters, &r.IsSalt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Lantern ---

func InsertLantern(db DB, l *Lantern) error {
	res, err := db.Exec(`INSERT INTO lanterns
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, is_lit, fuel_remaining_us)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		l.PosX, l.PosY, l.ChunkIndex, l.Owner, l.Health, l.MaxHealth, l.SlotCount, l.IsLit, l.FuelRemainingUs)
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

func GetLantern(db DB, id int64) (*Lantern, error) {
	var l Lantern
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, is_lit, fuel_remaining_us
		FROM lanterns WHERE id = ?`, id).Scan(
		&l.ID, &l.PosX, &l.PosY, &l.ChunkIndex, &l.Owner, &l.Health, &l.MaxHealth,
		&l.LastHitTimeUs, &l.LastDamagedBy, &l.IsDestroyed, &l.DestroyedAtUs, &l.SlotCount, &l.IsLit, &l.FuelRemainingUs)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func UpdateLantern(db DB, l *Lantern) error {
	_, err := db.Exec(`UPDATE lanterns SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=?, is_lit=?, fuel_remaining_us=? WHERE id=?`,
		l.Health, l.MaxHealth, l.LastHitTimeUs, l.LastDamagedBy, l.IsDestroyed, l.DestroyedAtUs,
		l.IsLit, l.FuelRemainingUs, l.ID)
	return err
}

// --- Turret ---

func InsertTurret(db DB, t *Turret) error {
	res, err := db.Exec(`INSERT INTO turrets
		(pos_x, pos_y, chunk_index, owner, health, max_health, num_slots, kind, facing)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		t.PosX, t.PosY, t.ChunkIndex, t.Owner, t.Health, t.MaxHealth, t.SlotCount, t.Kind, t.Facing)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func GetTurret(db DB, id int64) (*Turret, error) {
	var t Turret
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, kind,
		last_fire_time_us, facing, owner_pvp_active
		FROM turrets WHERE id = ?`, id).Scan(
		&t.ID, &t.PosX, &t.PosY, &t.ChunkIndex, &t.Owner, &t.Health, &t.MaxHealth,
		&t.LastHitTimeUs, &t.LastDamagedBy, &t.IsDestroyed, &t.DestroyedAtUs, &t.SlotCount, &t.Kind,
		&t.LastFireTimeUs, &t.Facing, &t.OwnerPvPActive)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func UpdateTurret(db DB, t *Turret) error {
	_, err := db.Exec(`UPDATE turrets SET health=?, is_destroyed=?, destroyed_at_us=?,
		last_fire_time_us=?, facing=?, owner_pvp_active=? WHERE id=?`,
		t.Health, t.IsDestroyed, t.DestroyedAtUs, t.LastFireTimeUs, t.Facing, t.OwnerPvPActive, t.ID)
	return err
}

// ListActiveTurrets returns every non-destroyed turret, for the 500ms
// targeting reducer (spec §4.K).
func ListActiveTurrets(db DB) ([]*Turret, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, num_slots, kind,
		last_fire_time_us, facing, owner_pvp_active FROM turrets WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Turret
	for rows.Next() {
		var t Turret
		if err := rows.Scan(&t.ID, &t.PosX, &t.PosY, &t.ChunkIndex, &t.Owner, &t.Health, &t.MaxHealth,
			&t.LastHitTimeUs, &t.LastDamagedBy, &t.IsDestroyed, &t.DestroyedAtUs, &t.SlotCount, &t.Kind,
			&t.LastFireTimeUs, &t.Facing, &t.OwnerPvPActive); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// --- Wall ---

func InsertWall(db DB, w *Wall) error {
	res, err := db.Exec(`INSERT INTO walls (pos_x, pos_y, chunk_index, owner, health, max_health, kind, facing)
		VALUES (?,?,?,?,?,?,?,?)`, w.PosX, w.PosY, w.ChunkIndex, w.Owner, w.Health, w.MaxHealth, w.Kind, w.Facing)
	if err != nil {
		return err
	}
	w.ID, err = res.LastInsertId()
	return err
}

func GetWall(db DB, id int64) (*Wall, error) {
	var w Wall
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, kind, facing
		FROM walls WHERE id = ?`, id).Scan(
		&w.ID, &w.PosX, &w.PosY, &w.ChunkIndex, &w.Owner, &w.Health, &w.MaxHealth,
		&w.LastHitTimeUs, &w.LastDamagedBy, &w.IsDestroyed, &w.DestroyedAtUs, &w.Kind, &w.Facing)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func UpdateWall(db DB, w *Wall) error {
	_, err := db.Exec(`UPDATE walls SET health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=? WHERE id=?`,
		w.Health, w.LastHitTimeUs, w.LastDamagedBy, w.IsDestroyed, w.DestroyedAtUs, w.ID)
	return err
}

// ListActiveWalls returns every non-destroyed wall, for the fire-patch
// structure-damage/propagation pass (spec §4.N).
func ListActiveWalls(db DB) ([]*Wall, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us, kind, facing
		FROM walls WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Wall
	for rows.Next() {
		var w Wall
		if err := rows.Scan(&w.ID, &w.PosX, &w.PosY, &w.ChunkIndex, &w.Owner, &w.Health, &w.MaxHealth,
			&w.LastHitTimeUs, &w.LastDamagedBy, &w.IsDestroyed, &w.DestroyedAtUs, &w.Kind, &w.Facing); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// --- Shelter ---

func InsertShelter(db DB, s *Shelter) error {
	res, err := db.Exec(`INSERT INTO shelters (pos_x, pos_y, chunk_index, owner, health, max_health)
		VALUES (?,?,?,?,?,?)`, s.PosX, s.PosY, s.ChunkIndex, s.Owner, s.Health, s.MaxHealth)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func GetShelter(db DB, id int64) (*Shelter, error) {
	var s Shelter
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, health, max_health,
		last_hit_time_us, last_damaged_by, is_destroyed, destroyed_at_us
		FROM shelters WHERE id = ?`, id).Scan(
		&s.ID, &s.PosX, &s.PosY, &s.ChunkIndex, &s.Owner, &s.Health, &s.MaxHealth,
		&s.LastHitTimeUs, &s.LastDamagedBy, &s.IsDestroyed, &s.DestroyedAtUs)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func UpdateShelter(db DB, s *Shelter) error {
	_, err := db.Exec(`UPDATE shelters SET health=?, max_health=?, last_hit_time_us=?, last_damaged_by=?,
		is_destroyed=?, destroyed_at_us=? WHERE id=?`,
		s.Health, s.MaxHealth, s.LastHitTimeUs, s.LastDamagedBy, s.IsDestroyed, s.DestroyedAtUs, s.ID)
	return err
}

// --- SleepingBag ---

func InsertSleepingBag(db DB, s *SleepingBag) error {
	res, err := db.Exec(`INSERT INTO sleeping_bags (pos_x, pos_y, chunk_index, owner, placed_at_us, condition)
		VALUES (?,?,?,?,?,?)`, s.PosX, s.PosY, s.ChunkIndex, s.Owner, s.PlacedAtUs, s.Condition)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func GetSleepingBag(db DB, id int64) (*SleepingBag, error) {
	var s SleepingBag
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, is_destroyed, placed_at_us, condition
		FROM sleeping_bags WHERE id = ?`, id).Scan(
		&s.ID, &s.PosX, &s.PosY, &s.ChunkIndex, &s.Owner, &s.IsDestroyed, &s.PlacedAtUs, &s.Condition)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListOwnerSleepingBags returns a player's sleeping bags, ordered most
// recently placed first, used by the "respawn at bag" reducer (spec §4.L).
func ListOwnerSleepingBags(db DB, owner interface{}) ([]*SleepingBag, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, is_destroyed, placed_at_us, condition
		FROM sleeping_bags WHERE owner = ? AND is_destroyed = 0 ORDER BY placed_at_us DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*SleepingBag
	for rows.Next() {
		var s SleepingBag
		if err := rows.Scan(&s.ID, &s.PosX, &s.PosY, &s.ChunkIndex, &s.Owner, &s.IsDestroyed, &s.PlacedAtUs, &s.Condition); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func UpdateSleepingBagCondition(db DB, id int64, condition float64, destroyed bool) error {
	_, err := db.Exec(`UPDATE sleeping_bags SET condition=?, is_destroyed=? WHERE id=?`, condition, destroyed, id)
	return err
}

// ListActiveSleepingBags returns every bag not yet destroyed, used by
// the sleeping-bag deterioration job (spec §6, 1 h cadence).
func ListActiveSleepingBags(db DB) ([]*SleepingBag, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, is_destroyed, placed_at_us, condition
		FROM sleeping_bags WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*SleepingBag
	for rows.Next() {
		var s SleepingBag
		if err := rows.Scan(&s.ID, &s.PosX, &s.PosY, &s.ChunkIndex, &s.Owner, &s.IsDestroyed, &s.PlacedAtUs, &s.Condition); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// --- PlayerCorpse ---

func InsertPlayerCorpse(db DB, c *PlayerCorpse) error {
	res, err := db.Exec(`INSERT INTO player_corpses
		(pos_x, pos_y, chunk_index, owner, created_at_us, despawn_at_us, killed_by, cause, num_slots)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		c.PosX, c.PosY, c.ChunkIndex, c.Owner, c.CreatedAtUs, c.DespawnAtUs, c.KilledBy, c.Cause, c.SlotCount)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func GetPlayerCorpse(db DB, id int64) (*PlayerCorpse, error) {
	var c PlayerCorpse
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, owner, created_at_us, despawn_at_us,
		killed_by, cause, num_slots FROM player_corpses WHERE id = ?`, id).Scan(
		&c.ID, &c.PosX, &c.PosY, &c.ChunkIndex, &c.Owner, &c.CreatedAtUs, &c.DespawnAtUs,
		&c.KilledBy, &c.Cause, &c.SlotCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --- DroppedItem ---

func InsertDroppedItem(db DB, d *DroppedItem) error {
	res, err := db.Exec(`INSERT INTO dropped_items (pos_x, pos_y, chunk_index, created_at_us, despawn_at_us)
		VALUES (?,?,?,?,?)`, d.PosX, d.PosY, d.ChunkIndex, d.CreatedAtUs, d.DespawnAtUs)
	if err != nil {
		return err
	}
	d.ID, err = res.LastInsertId()
	return err
}

// DueDroppedItemDespawns returns dropped-item ids past their despawn
// time, for the 60s despawn sweep (spec §6).
func DueDroppedItemDespawns(db DB, nowUs int64) ([]int64, error) {
	rows, err := db.Query(`SELECT id FROM dropped_items WHERE despawn_at_us IS NOT NULL AND despawn_at_us <= ?`, nowUs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func DeleteDroppedItem(db DB, id int64) error {
	_, err := db.Exec(`DELETE FROM dropped_items WHERE id = ?`, id)
	return err
}

// --- RuneStone (original_source-supplemented) ---

func InsertRuneStone(db DB, r *RuneStone) error {
	res, err := db.Exec(`INSERT INTO rune_stones (pos_x, pos_y, chunk_index, cooldown_us)
		VALUES (?,?,?,?)`, r.PosX, r.PosY, r.ChunkIndex, r.CooldownUs)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func GetRuneStone(db DB, id int64) (*RuneStone, error) {
	var r RuneStone
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, last_activated_us, cooldown_us
		FROM rune_stones WHERE id = ?`, id).Scan(&r.ID, &r.PosX, &r.PosY, &r.ChunkIndex, &r.LastActivatedUs, &r.CooldownUs)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func UpdateRuneStoneActivation(db DB, id int64, activatedAtUs int64) error {
	_, err := db.Exec(`UPDATE rune_stones SET last_activated_us = ? WHERE id = ?`, activatedAtUs, id)
	return err
}

// --- PlantedSeed (original_source-supplemented) ---

func InsertPlantedSeed(db DB, p *PlantedSeed) error {
	res, err := db.Exec(`INSERT INTO planted_seeds
		(pos_x, pos_y, chunk_index, owner, def_id, planted_at_us, grows_in_us, yield_def_id, yield_qty)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		p.PosX, p.PosY, p.ChunkIndex, p.Owner, p.DefID, p.PlantedAtUs, p.GrowsInUs, p.YieldDefID, p.YieldQty)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

// ListUnharvestedSeeds returns every planted seed not yet harvested,
// for the harvest-readiness sweep.
func ListUnharvestedSeeds(db DB) ([]*PlantedSeed, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, owner, def_id, planted_at_us,
		grows_in_us, yield_def_id, yield_qty, harvested FROM planted_seeds WHERE harvested = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*PlantedSeed
	for rows.Next() {
		var p PlantedSeed
		if err := rows.Scan(&p.ID, &p.PosX, &p.PosY, &p.ChunkIndex, &p.Owner, &p.DefID, &p.PlantedAtUs,
			&p.GrowsInUs, &p.YieldDefID, &p.YieldQty, &p.Harvested); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func MarkSeedHarvested(db DB, id int64) error {
	_, err := db.Exec(`UPDATE planted_seeds SET harvested = 1 WHERE id = ?`, id)
	return err
}

// --- ResourceNode (original_source-supplemented) ---

func InsertResourceNode(db DB, n *ResourceNode) error {
	res, err := db.Exec(`INSERT INTO resource_nodes (pos_x, pos_y, chunk_index, kind, health, max_health, yield_def_id, yield_qty)
		VALUES (?,?,?,?,?,?,?,?)`, n.PosX, n.PosY, n.ChunkIndex, n.Kind, n.Health, n.MaxHealth, n.YieldDefID, n.YieldQty)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

func GetResourceNode(db DB, id int64) (*ResourceNode, error) {
	var n ResourceNode
	err := db.QueryRow(`SELECT id, pos_x, pos_y, chunk_index, kind, health, max_health,
		yield_def_id, yield_qty, is_destroyed, respawn_at_us FROM resource_nodes WHERE id = ?`, id).Scan(
		&n.ID, &n.PosX, &n.PosY, &n.ChunkIndex, &n.Kind, &n.Health, &n.MaxHealth,
		&n.YieldDefID, &n.YieldQty, &n.IsDestroyed, &n.RespawnAtUs)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func UpdateResourceNode(db DB, n *ResourceNode) error {
	_, err := db.Exec(`UPDATE resource_nodes SET health=?, is_destroyed=?, respawn_at_us=? WHERE id=?`,
		n.Health, n.IsDestroyed, n.RespawnAtUs, n.ID)
	return err
}

// DueResourceNodeRespawns returns destroyed resource nodes past their
// respawn time.
func DueResourceNodeRespawns(db DB, nowUs int64) ([]int64, error) {
	rows, err := db.Query(`SELECT id FROM resource_nodes WHERE is_destroyed = 1 AND respawn_at_us IS NOT NULL AND respawn_at_us <= ?`, nowUs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- FirePatch ---

func InsertFirePatch(db DB, f *FirePatch) error {
	res, err := db.Exec(`INSERT INTO fire_patches
		(pos_x, pos_y, chunk_index, radius, created_at_us, expires_at_us, damage_per_tick, source_identity)
		VALUES (?,?,?,?,?,?,?,?)`,
		f.PosX, f.PosY, f.ChunkIndex, f.Radius, f.CreatedAtUs, f.ExpiresAtUs, f.DamagePerTick, f.SourceIdentity)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

// ListFirePatches returns every active fire patch, for the 2s damage
// tick and propagation pass.
func ListFirePatches(db DB) ([]*FirePatch, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, radius, created_at_us, expires_at_us,
		damage_per_tick, source_identity FROM fire_patches`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*FirePatch
	for rows.Next() {
		var f FirePatch
		if err := rows.Scan(&f.ID, &f.PosX, &f.PosY, &f.ChunkIndex, &f.Radius, &f.CreatedAtUs, &f.ExpiresAtUs,
			&f.DamagePerTick, &f.SourceIdentity); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// DeleteFirePatch removes an expired or extinguished fire patch.
func DeleteFirePatch(db DB, id int64) error {
	_, err := db.Exec(`DELETE FROM fire_patches WHERE id = ?`, id)
	return err
}

// --- WaterPatch ---

func InsertWaterPatch(db DB, w *WaterPatch) error {
	res, err := db.Exec(`INSERT INTO water_patches (pos_x, pos_y, chunk_index, radius, created_at_us, expires_at_us)
		VALUES (?,?,?,?,?,?)`,
		w.PosX, w.PosY, w.ChunkIndex, w.Radius, w.CreatedAtUs, w.ExpiresAtUs)
	if err != nil {
		return err
	}
	w.ID, err = res.LastInsertId()
	return err
}

// ListWaterPatches returns every active water patch, for fire
// extinguishing and placement/terrain exclusion checks.
func ListWaterPatches(db DB) ([]*WaterPatch, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, radius, created_at_us, expires_at_us FROM water_patches`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WaterPatch
	for rows.Next() {
		var w WaterPatch
		if err := rows.Scan(&w.ID, &w.PosX, &w.PosY, &w.ChunkIndex, &w.Radius, &w.CreatedAtUs, &w.ExpiresAtUs); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// DeleteWaterPatch removes an expired water patch.
func DeleteWaterPatch(db DB, id int64) error {
	_, err := db.Exec(`DELETE FROM water_patches WHERE id = ?`, id)
	return err
}

// --- DeathMarker ---

// InsertDeathMarker records the public-boundary death event row (spec
// §4.L step 4, §6 table-stability list).
func InsertDeathMarker(db DB, m *DeathMarker) error {
	res, err := db.Exec(`INSERT INTO death_markers (player_identity, pos_x, pos_y, ts_us, killed_by, cause)
		VALUES (?,?,?,?,?,?)`, m.PlayerIdentity, m.PosX, m.PosY, m.TsUs, m.KilledBy, m.Cause)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// --- KnockedOutStatus ---

func InsertKnockedOutStatus(db DB, s *KnockedOutStatus) error {
	_, err := db.Exec(`INSERT INTO knocked_out_status (player_identity, knocked_out_at_us, last_tick_us)
		VALUES (?,?,?)`, s.PlayerIdentity, s.KnockedOutAtUs, s.LastTickUs)
	return err
}

func GetKnockedOutStatus(db DB, identity ids.Identity) (*KnockedOutStatus, error) {
	var s KnockedOutStatus
	err := db.QueryRow(`SELECT player_identity, knocked_out_at_us, last_tick_us
		FROM knocked_out_status WHERE player_identity = ?`, identity).
		Scan(&s.PlayerIdentity, &s.KnockedOutAtUs, &s.LastTickUs)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func UpdateKnockedOutStatus(db DB, s *KnockedOutStatus) error {
	_, err := db.Exec(`UPDATE knocked_out_status SET last_tick_us = ? WHERE player_identity = ?`,
		s.LastTickUs, s.PlayerIdentity)
	return err
}

// DeleteKnockedOutStatus removes the row, cancelling the recovery
// reducer's self-reschedule (spec §5 "self-cancels when the player is
// no longer is_knocked_out").
func DeleteKnockedOutStatus(db DB, identity ids.Identity) error {
	_, err := db.Exec(`DELETE FROM knocked_out_status WHERE player_identity = ?`, identity)
	return err
}

// ListKnockedOutStatuses returns every player currently tracked as
// knocked out, for the 3s recovery-check sweep (spec §4.I, §6).
func ListKnockedOutStatuses(db DB) ([]*KnockedOutStatus, error) {
	rows, err := db.Query(`SELECT player_identity, knocked_out_at_us, last_tick_us FROM knocked_out_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*KnockedOutStatus
	for rows.Next() {
		var s KnockedOutStatus
		if err := rows.Scan(&s.PlayerIdentity, &s.KnockedOutAtUs, &s.LastTickUs); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// --- ActiveEffect ---

// UpsertEffect re-stacks Remaining/DurationUs onto an existing row of
// the same (player, kind) rather than inserting a second one (spec
// §4.J "accumulator-style").
func UpsertEffect(db DB, e *ActiveEffect) error {
	var existingID int64
	err := db.QueryRow(`SELECT id FROM active_effects WHERE player_identity = ? AND kind = ?`,
		e.PlayerIdentity, e.Kind).Scan(&existingID)
	if err == nil {
		e.ID = existingID
		_, err = db.Exec(`UPDATE active_effects SET remaining = ?, duration_us = ?, tick_interval_us = ?,
			source_identity = ?, started_at_us = ?, last_tick_us = ? WHERE id = ?`,
			e.Remaining, e.DurationUs, e.TickIntervalUs, e.SourceIdentity, e.StartedAtUs, e.LastTickUs, e.ID)
		return err
	}
	if err != sql.ErrNoRows {
		return err
	}
	res, err := db.Exec(`INSERT INTO active_effects
		(player_identity, kind, remaining, duration_us, tick_interval_us, source_identity, started_at_us, last_tick_us)
		VALUES (?,?,?,?,?,?,?,?)`,
		e.PlayerIdentity, e.Kind, e.Remaining, e.DurationUs, e.TickIntervalUs, e.SourceIdentity, e.StartedAtUs, e.LastTickUs)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

// ListEffects returns a player's active effect stack.
func ListEffects(db DB, identity ids.Identity) ([]*ActiveEffect, error) {
	rows, err := db.Query(`SELECT id, player_identity, kind, remaining, duration_us, tick_interval_us,
		source_identity, started_at_us, last_tick_us FROM active_effects WHERE player_identity = ?`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ActiveEffect
	for rows.Next() {
		var e ActiveEffect
		if err := rows.Scan(&e.ID, &e.PlayerIdentity, &e.Kind, &e.Remaining, &e.DurationUs, &e.TickIntervalUs,
			&e.SourceIdentity, &e.StartedAtUs, &e.LastTickUs); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ClearEffects deletes every active effect for a player (spec §4.J
// "death clears all effects").
func ClearEffects(db DB, identity ids.Identity) error {
	_, err := db.Exec(`DELETE FROM active_effects WHERE player_identity = ?`, identity)
	return err
}

// DeleteEffect removes a single effect row, e.g. once Remaining reaches 0.
func DeleteEffect(db DB, id int64) error {
	_, err := db.Exec(`DELETE FROM active_effects WHERE id = ?`, id)
	return err
}

// --- WildAnimal / SpawnZone (spec §4.M) ---

func InsertWildAnimal(db DB, a *WildAnimal) error {
	res, err := db.Exec(`INSERT INTO wild_animals
		(pos_x, pos_y, chunk_index, species, health, max_health, state, state_reason,
		 target_identity, spawn_zone_id, facing, sex, last_tick_us)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.PosX, a.PosY, a.ChunkIndex, a.Species, a.Health, a.MaxHealth, a.State, a.StateReason,
		a.TargetIdentity, a.SpawnZoneID, a.Facing, a.Sex, a.LastTickUs)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func scanWildAnimal(row interface{ Scan(dest ...interface{}) error }) (*WildAnimal, error) {
	var a WildAnimal
	if err := row.Scan(&a.ID, &a.PosX, &a.PosY, &a.ChunkIndex, &a.Species, &a.Health, &a.MaxHealth,
		&a.State, &a.StateReason, &a.TargetIdentity, &a.SpawnZoneID, &a.Facing, &a.Sex, &a.LastTickUs, &a.IsDestroyed); err != nil {
		return nil, err
	}
	return &a, nil
}

const wildAnimalColumns = `id, pos_x, pos_y, chunk_index, species, health, max_health, state, state_reason,
	target_identity, spawn_zone_id, facing, sex, last_tick_us, is_destroyed`

func GetWildAnimal(db DB, id int64) (*WildAnimal, error) {
	row := db.QueryRow(`SELECT `+wildAnimalColumns+` FROM wild_animals WHERE id = ?`, id)
	return scanWildAnimal(row)
}

// ListActiveWildAnimals returns every non-destroyed animal, for the AI
// scheduler tick.
func ListActiveWildAnimals(db DB) ([]*WildAnimal, error) {
	rows, err := db.Query(`SELECT ` + wildAnimalColumns + ` FROM wild_animals WHERE is_destroyed = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WildAnimal
	for rows.Next() {
		a, err := scanWildAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountActiveWildAnimalsBySpecies returns the live population per
// species, for the global population-maintenance reducer.
func CountActiveWildAnimalsBySpecies(db DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT species, COUNT(*) FROM wild_animals WHERE is_destroyed = 0 GROUP BY species`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var species string
		var n int
		if err := rows.Scan(&species, &n); err != nil {
			return nil, err
		}
		out[species] = n
	}
	return out, rows.Err()
}

func UpdateWildAnimal(db DB, a *WildAnimal) error {
	_, err := db.Exec(`UPDATE wild_animals SET pos_x=?, pos_y=?, chunk_index=?, health=?, state=?, state_reason=?,
		target_identity=?, facing=?, last_tick_us=?, is_destroyed=? WHERE id=?`,
		a.PosX, a.PosY, a.ChunkIndex, a.Health, a.State, a.StateReason,
		a.TargetIdentity, a.Facing, a.LastTickUs, a.IsDestroyed, a.ID)
	return err
}

func DeleteWildAnimal(db DB, id int64) error {
	_, err := db.Exec(`DELETE FROM wild_animals WHERE id = ?`, id)
	return err
}

func InsertSpawnZone(db DB, z *SpawnZone) error {
	res, err := db.Exec(`INSERT INTO spawn_zones (pos_x, pos_y, chunk_index, species, target_count, radius, anchor_kind)
		VALUES (?,?,?,?,?,?,?)`, z.PosX, z.PosY, z.ChunkIndex, z.Species, z.TargetCount, z.Radius, z.AnchorKind)
	if err != nil {
		return err
	}
	z.ID, err = res.LastInsertId()
	return err
}

func ListSpawnZones(db DB) ([]*SpawnZone, error) {
	rows, err := db.Query(`SELECT id, pos_x, pos_y, chunk_index, species, target_count, radius, anchor_kind FROM spawn_zones`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*SpawnZone
	for rows.Next() {
		var z SpawnZone
		if err := rows.Scan(&z.ID, &z.PosX, &z.PosY, &z.ChunkIndex, &z.Species, &z.TargetCount, &z.Radius, &z.AnchorKind); err != nil {
			return nil, err
		}
		out = append(out, &z)
	}
	return out, rows.Err()
}

// CountAnimalsInZone returns the live population anchored to a zone,
// for the ~8 min spawn-zone maintenance reducer's target-count check.
func CountAnimalsInZone(db DB, zoneID int64) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM wild_animals WHERE spawn_zone_id = ? AND is_destroyed = 0`, zoneID).Scan(&n)
	return n, err
}
