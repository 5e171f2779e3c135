// Package reducer wraps every state-mutating operation in the
// transactional shape spec.md calls a "reducer" (§2): a short-lived
// function that either commits atomically or fails with a
// human-readable error and rolls back. It also carries the error
// taxonomy (§7) and the module-identity check every scheduled reducer
// must perform as its first line (§4.G, T-SCH).
package reducer

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ownworld/core/internal/ids"
)

// Category is one of the four error classes spec §7 names.
type Category string

const (
	// CategoryValidation is the caller's fault: surfaced verbatim to the UI.
	CategoryValidation Category = "validation"
	// CategoryState means the target was destroyed/changed between
	// command and execution; surfaced as "X is destroyed".
	CategoryState Category = "state"
	// CategoryInternal should never happen in a correct build; logged
	// at WARN/ERROR with context, transaction rolls back.
	CategoryInternal Category = "internal"
	// CategorySecurity is a scheduled reducer invoked by a non-module
	// sender; always an error, logged at INFO.
	CategorySecurity Category = "security"
)

// Error is a categorized reducer failure. Its Error() text is exactly
// what spec §7 says gets surfaced to the caller for Validation/State
// errors; Internal/Security errors are logged server-side with more
// detail than the message alone carries.
type Error struct {
	Category Category
	Message  string
	cause    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// Validationf builds a caller-visible validation error (spec §7 examples:
// "Player not found", "Too far away", "Slot occupied by incompatible
// item", "Not enough shards", "Cannot place on water", "Item not owned").
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// Statef builds a "target no longer exists" error, e.g. "Campfire is destroyed".
func Statef(format string, args ...interface{}) *Error {
	return &Error{Category: CategoryState, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps an unexpected failure (missing item definition,
// missing schedule row, invalid slot index) that should never happen
// in a correct deployment.
func Internalf(cause error, format string, args ...interface{}) *Error {
	return &Error{Category: CategoryInternal, Message: fmt.Sprintf(format, args...), cause: cause}
}

// ErrWrongSender is returned by RequireModuleSender.
var ErrWrongSender = &Error{Category: CategorySecurity, Message: "scheduled reducer invoked by non-module identity"}

// RequireModuleSender is the first line of every scheduled reducer
// (spec §4.G): it rejects any invocation where sender != module.
func RequireModuleSender(sender, module ids.Identity) error {
	if sender != module {
		return ErrWrongSender
	}
	return nil
}

// Tx runs fn inside a transaction on db, committing on success and
// rolling back on any error (including a panic, which is re-panicked
// after rollback). Categorized errors are logged at the level their
// category calls for; uncategorized errors are treated as internal.
func Tx(db *sql.DB, log zerolog.Logger, name string, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return Internalf(err, "reducer: beginning transaction for %s", name)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		logError(log, name, err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return Internalf(err, "reducer: committing %s", name)
	}
	return nil
}

func logError(log zerolog.Logger, name string, err error) {
	var rErr *Error
	if !errors.As(err, &rErr) {
		log.Error().Err(err).Str("reducer", name).Msg("uncategorized reducer error")
		return
	}
	switch rErr.Category {
	case CategorySecurity:
		log.Info().Str("reducer", name).Str("category", string(rErr.Category)).Msg(rErr.Message)
	case CategoryInternal:
		log.Error().Err(rErr.cause).Str("reducer", name).Str("category", string(rErr.Category)).Msg(rErr.Message)
	default:
		log.Debug().Str("reducer", name).Str("category", string(rErr.Category)).Msg(rErr.Message)
	}
}
