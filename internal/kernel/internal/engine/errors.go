package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

// errIdempotencyRace is returned from inside a create transaction when another
// create already claimed the same idempotency key.
var errIdempotencyRace = errors.New("idempotency key claimed by a concurrent create")

const internalMessage = "internal error"

func validationError(op, format string, args ...any) error {
	return mutation.NewError(mutation.CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

func notFoundError(op string, ns mutation.Namespace, id string) error {
	return mutation.NewError(mutation.CodeNotFound, op, fmt.Sprintf("%s %s not found", ns, id), nil)
}

func conflictError(op string, current *int64) error {
	return &mutation.Error{
		Code:           mutation.CodeConflictVersion,
		Op:             strings.TrimSpace(op),
		Message:        "entity version changed since it was read",
		CurrentVersion: current,
	}
}

// mapError classifies infrastructure failures into kernel codes. Messages of
// internal errors are generic; the cause stays on the error for logging.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var kerr *mutation.Error
	if errors.As(err, &kerr) {
		return kerr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mutation.NewError(mutation.CodeNotFound, op, "entity not found", err)
	case isUniqueViolation(err):
		return mutation.NewError(mutation.CodeValidation, op, "a record with the same unique value already exists", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return mutation.NewError(mutation.CodeInternal, op, "mutation cancelled before commit", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23503": // foreign_key_violation
			return mutation.NewError(mutation.CodeValidation, op, "referenced record does not exist", err)
		case "23514", "22001": // check_violation, string_data_right_truncation
			return mutation.NewError(mutation.CodeValidation, op, "value rejected by storage constraints", err)
		case "40001", "40P01", "55P03": // serialization, deadlock, lock_not_available
			return mutation.NewError(mutation.CodeInternal, op, "transient storage conflict, retry", err)
		}
	}
	return mutation.NewError(mutation.CodeInternal, op, internalMessage, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
