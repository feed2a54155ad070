package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors returned by Store implementations. Handlers classify
// with errors.Is; the wrapped message names the entity or field involved.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("datastore unavailable")
)

// postgres error codes for constraint violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}
	return nil, false
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// translateItemWrite maps store-level failures of item inserts/updates into
// the handler vocabulary. A foreign-key rejection here means a referenced
// user or category vanished between pre-validation and the write, which the
// client sees the same way as a pre-validated miss.
func translateItemWrite(err error) error {
	if pgErr, ok := pgErrCode(err, pgForeignKeyViolation); ok {
		switch {
		case strings.Contains(pgErr.ConstraintName, "user"):
			return fmt.Errorf("%w: referenced user no longer exists", ErrNotFound)
		case strings.Contains(pgErr.ConstraintName, "categor"):
			return fmt.Errorf("%w: referenced category no longer exists", ErrNotFound)
		default:
			return fmt.Errorf("%w: referenced record no longer exists", ErrNotFound)
		}
	}
	return translate(err)
}

// translateUserWrite maps unique violations on users to a conflict naming
// the offending field.
func translateUserWrite(err error) error {
	if pgErr, ok := pgErrCode(err, pgUniqueViolation); ok {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return fmt.Errorf("%w: email already in use", ErrConflict)
		}
		return fmt.Errorf("%w: username already taken", ErrConflict)
	}
	return translate(err)
}

func translateCategoryWrite(err error) error {
	if _, ok := pgErrCode(err, pgUniqueViolation); ok {
		return fmt.Errorf("%w: category name already exists", ErrConflict)
	}
	if _, ok := pgErrCode(err, pgForeignKeyViolation); ok {
		return fmt.Errorf("%w: category is referenced by existing items", ErrConflict)
	}
	return translate(err)
}

// translate handles the classes common to every operation.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUnavailable(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("datastore error: %w", err)
	}
}
