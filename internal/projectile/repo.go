package projectile

import "database/sql"

type db interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Insert appends a new projectile row.
func Insert(x db, p *Projectile) error {
	res, err := x.Exec(`INSERT INTO projectiles
		(owner, item_def_id, ammo_def_id, source_type, start_time_us, start_x, start_y, vel_x, vel_y, max_range)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.Owner, p.ItemDefID, p.AmmoDefID, p.SourceType, p.StartTimeUs, p.StartX, p.StartY, p.VelX, p.VelY, p.MaxRange)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

// List returns every live projectile row.
func List(x db) ([]*Projectile, error) {
	rows, err := x.Query(`SELECT id, owner, item_def_id, ammo_def_id, source_type, start_time_us,
		start_x, start_y, vel_x, vel_y, max_range FROM projectiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Projectile
	for rows.Next() {
		var p Projectile
		if err := rows.Scan(&p.ID, &p.Owner, &p.ItemDefID, &p.AmmoDefID, &p.SourceType, &p.StartTimeUs,
			&p.StartX, &p.StartY, &p.VelX, &p.VelY, &p.MaxRange); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Delete removes a single projectile, e.g. on sweep expiry or hit.
func Delete(x db, id int64) error {
	_, err := x.Exec(`DELETE FROM projectiles WHERE id = ?`, id)
	return err
}
