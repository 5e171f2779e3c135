package schedule

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)
	reg.Bind("noop", func(tx *sql.Tx, now ids.Timestamp) error { return nil })

	require.NoError(t, reg.Register("job1", "noop", KindInterval, 60*ids.Second, 0))
	require.NoError(t, reg.Register("job1", "noop", KindInterval, 60*ids.Second, 0))

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM schedule WHERE job_id = 'job1'`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestRegisterRejectsUnboundReducer(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)

	err := reg.Register("job1", "missing", KindInterval, ids.Second, 0)
	require.Error(t, err)
}

func TestTickFiresDueIntervalJobAndReschedules(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)

	fired := 0
	reg.Bind("tick_job", func(tx *sql.Tx, now ids.Timestamp) error {
		fired++
		return nil
	})
	require.NoError(t, reg.Register("job1", "tick_job", KindInterval, 60*ids.Second, 0))

	now := ids.NowMicros()
	reg.Tick(now.Add(120 * ids.Second))
	require.Equal(t, 1, fired)

	due, err := reg.Due(now.Add(120 * ids.Second))
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestTickFailureStillAdvancesSchedule(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)

	reg.Bind("flaky", func(tx *sql.Tx, now ids.Timestamp) error {
		return sql.ErrTxDone
	})
	require.NoError(t, reg.Register("job1", "flaky", KindInterval, 60*ids.Second, 0))

	firstTick := ids.NowMicros().Add(61 * ids.Second)
	reg.Tick(firstTick)

	rows, err := reg.Due(firstTick)
	require.NoError(t, err)
	require.Empty(t, rows, "row must be rescheduled even though the reducer failed")

	rows, err = reg.Due(firstTick.Add(61 * ids.Second))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestOnceJobIsDeletedAfterFiring(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)

	at := ids.NowMicros()
	reg.Bind("one_shot", func(tx *sql.Tx, now ids.Timestamp) error { return nil })
	require.NoError(t, reg.Register("job1", "one_shot", KindOnce, 0, at))

	reg.Tick(at.Add(ids.Second))

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM schedule WHERE job_id = 'job1'`).Scan(&count))
	require.Equal(t, 0, count)
}

func TestCancelRemovesRow(t *testing.T) {
	s := testutil.OpenStore(t)
	reg := NewRegistry(s.DB, zerolog.Nop(), s.ModuleIdentity)
	reg.Bind("noop", func(tx *sql.Tx, now ids.Timestamp) error { return nil })
	require.NoError(t, reg.Register("job1", "noop", KindInterval, ids.Second, 0))

	require.NoError(t, reg.Cancel("job1"))

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM schedule WHERE job_id = 'job1'`).Scan(&count))
	require.Equal(t, 0, count)
}
