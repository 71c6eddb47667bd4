package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/lingostake/internal/custody"
	"github.com/mmynk/lingostake/internal/models"
)

// codeFor maps ledger errors to Connect codes.
func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidDuration),
		errors.Is(err, models.ErrInsufficientCapacity),
		errors.Is(err, models.ErrInvalidMode),
		errors.Is(err, models.ErrInvalidAttestation),
		errors.Is(err, custody.ErrInvalidTransfer):
		return connect.CodeInvalidArgument
	case errors.Is(err, models.ErrGroupNotFound),
		errors.Is(err, models.ErrNotAMember):
		return connect.CodeNotFound
	case errors.Is(err, models.ErrAlreadyStaked),
		errors.Is(err, models.ErrAlreadyAttested):
		return connect.CodeAlreadyExists
	case errors.Is(err, models.ErrGroupFull):
		return connect.CodeResourceExhausted
	case errors.Is(err, models.ErrNotSettleable),
		errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrNotCompleted),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, custody.ErrInsufficientAllowance),
		errors.Is(err, custody.ErrInsufficientBalance):
		return connect.CodeFailedPrecondition
	case errors.Is(err, models.ErrUnauthorized):
		return connect.CodePermissionDenied
	case errors.Is(err, models.ErrVaultUnavailable):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

func toConnectError(err error) error {
	return connect.NewError(codeFor(err), err)
}
