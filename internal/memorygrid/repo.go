package memorygrid

import (
	"database/sql"

	"github.com/ownworld/core/internal/ids"
)

// Progress mirrors the memory_grid_progress table row (spec §4.O).
type Progress struct {
	Identity         ids.Identity
	PurchasedCSV     string
	TotalShardsSpent uint64
	UnlockedFaction  string
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// DB is the subset of *sql.DB / *sql.Tx this package needs.
type DB interface {
	execer
	queryer
}

func scanProgress(row interface{ Scan(...interface{}) error }) (Progress, error) {
	var p Progress
	err := row.Scan(&p.Identity, &p.PurchasedCSV, &p.TotalShardsSpent, &p.UnlockedFaction)
	return p, err
}

// GetProgress loads a player's memory grid progress row.
func GetProgress(db DB, identity ids.Identity) (Progress, error) {
	row := db.QueryRow(`SELECT player_identity, purchased_csv, total_shards_spent, unlocked_faction
		FROM memory_grid_progress WHERE player_identity = ?`, identity)
	return scanProgress(row)
}

// insertProgress writes a brand new progress row.
func insertProgress(db DB, p Progress) error {
	_, err := db.Exec(`INSERT INTO memory_grid_progress
		(player_identity, purchased_csv, total_shards_spent, unlocked_faction) VALUES (?,?,?,?)`,
		p.Identity, p.PurchasedCSV, p.TotalShardsSpent, p.UnlockedFaction)
	return err
}

// saveProgress persists every mutable column of an existing row.
func saveProgress(db DB, p Progress) error {
	_, err := db.Exec(`UPDATE memory_grid_progress SET purchased_csv=?, total_shards_spent=?,
		unlocked_faction=? WHERE player_identity=?`,
		p.PurchasedCSV, p.TotalShardsSpent, p.UnlockedFaction, p.Identity)
	return err
}

// insertPurchaseRecord appends a row to the memory_grid_purchases audit log.
func insertPurchaseRecord(db DB, identity ids.Identity, nodeID, displayName string, cost uint64, atUs int64) error {
	_, err := db.Exec(`INSERT INTO memory_grid_purchases
		(player_identity, node_id, display_name, cost, at_us) VALUES (?,?,?,?,?)`,
		identity, nodeID, displayName, cost, atUs)
	return err
}

// ListPurchases returns a player's purchase audit log, oldest first.
func ListPurchases(db DB, identity ids.Identity) ([]PurchaseRecord, error) {
	rows, err := db.Query(`SELECT id, player_identity, node_id, display_name, cost, at_us
		FROM memory_grid_purchases WHERE player_identity = ? ORDER BY id ASC`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseRecord
	for rows.Next() {
		var pr PurchaseRecord
		if err := rows.Scan(&pr.ID, &pr.Identity, &pr.NodeID, &pr.DisplayName, &pr.Cost, &pr.AtUs); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// PurchaseRecord mirrors one memory_grid_purchases row.
type PurchaseRecord struct {
	ID          int64
	Identity    ids.Identity
	NodeID      string
	DisplayName string
	Cost        uint64
	AtUs        int64
}
