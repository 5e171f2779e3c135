// Package schedule implements the schedule registry (spec §4.G): one
// row per recurring or one-shot job, a dispatcher that fires due jobs,
// and an idempotent Register so subsystem init doesn't duplicate a
// schedule row across restarts.
package schedule

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/reducer"
)

// Kind discriminates a schedule row's "scheduled_at" sum type (spec
// §3: "Interval(d) | Time(t)").
type Kind string

const (
	KindInterval Kind = "interval"
	KindOnce     Kind = "once"
)

// Row is one schedule table entry.
type Row struct {
	JobID        string
	ReducerName  string
	Kind         Kind
	IntervalUs   ids.Duration
	AtUs         ids.Timestamp
	NextRunUs    ids.Timestamp
}

// Reducer is the function a schedule row invokes when due. now is the
// tick time; the reducer returns a non-nil error to abort this firing
// without crashing the dispatcher (spec §7: "scheduler re-fires on its
// next interval regardless of the previous run's outcome").
type Reducer func(tx *sql.Tx, now ids.Timestamp) error

// Registry holds the bound Go functions behind each ReducerName; the
// schedule table only stores the name, so a process restart re-binds
// the same names to (possibly recompiled) functions.
type Registry struct {
	db      *sql.DB
	log     zerolog.Logger
	module  ids.Identity
	reducers map[string]Reducer
}

// NewRegistry builds a Registry bound to db, logging via log, with
// module as the only identity scheduled reducers accept as sender.
func NewRegistry(db *sql.DB, log zerolog.Logger, module ids.Identity) *Registry {
	return &Registry{db: db, log: log, module: module, reducers: make(map[string]Reducer)}
}

// Bind associates a reducer name with its Go implementation. Subsystem
// init calls this once per reducer it owns, before any Register calls
// for rows naming it.
func (r *Registry) Bind(name string, fn Reducer) {
	r.reducers[name] = fn
}

// Register idempotently inserts a schedule row: if jobID already
// exists, this is a no-op, so repeated subsystem init (e.g. on
// restart) never duplicates a schedule (spec §4.G: "a helper ensures
// idempotence so restarts do not duplicate schedules").
func (r *Registry) Register(jobID, reducerName string, kind Kind, interval ids.Duration, at ids.Timestamp) error {
	if _, bound := r.reducers[reducerName]; !bound {
		return fmt.Errorf("schedule: Register(%s): reducer %q not bound", jobID, reducerName)
	}
	var nextRun ids.Timestamp
	switch kind {
	case KindInterval:
		nextRun = ids.NowMicros().Add(interval)
	case KindOnce:
		nextRun = at
	default:
		return fmt.Errorf("schedule: Register(%s): unknown kind %q", jobID, kind)
	}
	_, err := r.db.Exec(`INSERT INTO schedule (job_id, reducer_name, kind, interval_us, at_us, next_run_us)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`,
		jobID, reducerName, string(kind), int64(interval), int64(at), int64(nextRun),
	)
	return err
}

// Cancel deletes a job's schedule row (spec §5: "cancelled by deleting
// its schedule row").
func (r *Registry) Cancel(jobID string) error {
	_, err := r.db.Exec(`DELETE FROM schedule WHERE job_id = ?`, jobID)
	return err
}

// Due returns every row whose next_run_us is at or before now.
func (r *Registry) Due(now ids.Timestamp) ([]Row, error) {
	rows, err := r.db.Query(`SELECT job_id, reducer_name, kind, interval_us, at_us, next_run_us
		FROM schedule WHERE next_run_us <= ? ORDER BY next_run_us ASC`, int64(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		var kind string
		var interval, at, next int64
		if err := rows.Scan(&row.JobID, &row.ReducerName, &kind, &interval, &at, &next); err != nil {
			return nil, err
		}
		row.Kind = Kind(kind)
		row.IntervalUs = ids.Duration(interval)
		row.AtUs = ids.Timestamp(at)
		row.NextRunUs = ids.Timestamp(next)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Tick fires every due row's bound reducer inside its own transaction
// (spec §5: a client command that arrives mid-tick sees the post-commit
// state of the previous reducer — i.e. one reducer invocation per
// commit, not one commit for the whole tick). A reducer whose sender
// check would fail never applies here since Tick always invokes with
// r.module as sender (spec §4.G first line, T-SCH); failures are
// logged and do not stop later rows from firing (spec §7 partial-
// failure isolation).
func (r *Registry) Tick(now ids.Timestamp) {
	due, err := r.Due(now)
	if err != nil {
		r.log.Error().Err(err).Msg("schedule: listing due rows")
		return
	}
	for _, row := range due {
		r.fireOne(row, now)
	}
}

// fireOne runs the bound reducer in its own transaction and advances
// the schedule row in a second, independent transaction, regardless of
// whether the reducer succeeded. Splitting the two is what makes spec
// §7's "transient conversion errors recover on the next tick" true:
// if advancing were inside the same transaction as a failing reducer,
// rolling back the reducer's writes would also roll back the
// reschedule, leaving the row perpetually due instead of retried on
// its own cadence.
func (r *Registry) fireOne(row Row, now ids.Timestamp) {
	fn, bound := r.reducers[row.ReducerName]
	if !bound {
		r.log.Error().Str("job_id", row.JobID).Str("reducer", row.ReducerName).
			Msg("schedule: no reducer bound for job")
		return
	}
	if err := reducer.Tx(r.db, r.log, row.ReducerName, func(tx *sql.Tx) error {
		return fn(tx, now)
	}); err != nil {
		r.log.Warn().Err(err).Str("job_id", row.JobID).Str("reducer", row.ReducerName).
			Msg("schedule: job firing failed, will retry next interval")
	}
	if err := reducer.Tx(r.db, r.log, row.ReducerName+":advance", func(tx *sql.Tx) error {
		return r.advance(tx, row, now)
	}); err != nil {
		r.log.Error().Err(err).Str("job_id", row.JobID).Msg("schedule: failed to advance schedule row")
	}
}

// advance reschedules an Interval row or deletes a Once row once fired,
// regardless of whether fn itself succeeded — spec §7 requires the
// scheduler to re-fire on the job's own cadence even after a transient
// failure, not to wedge the row at its old due time.
func (r *Registry) advance(tx *sql.Tx, row Row, now ids.Timestamp) error {
	switch row.Kind {
	case KindInterval:
		next := now.Add(row.IntervalUs)
		_, err := tx.Exec(`UPDATE schedule SET next_run_us = ? WHERE job_id = ?`, int64(next), row.JobID)
		return err
	case KindOnce:
		_, err := tx.Exec(`DELETE FROM schedule WHERE job_id = ?`, row.JobID)
		return err
	default:
		return fmt.Errorf("schedule: advance: unknown kind %q", row.Kind)
	}
}
