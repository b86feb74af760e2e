package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/kakeibo/internal/auth"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
)

var (
	// ErrNoGroup is returned when the caller has not created or joined a household.
	ErrNoGroup = errors.New("join or create a household first")
	// ErrHasGroup is returned when the caller already belongs to a household.
	ErrHasGroup = errors.New("you already belong to a household")
)

var invalidArgument = []error{
	models.ErrInvalidDate,
	models.ErrEmptyItem,
	models.ErrItemTooLong,
	models.ErrInvalidAmount,
	models.ErrEmptyPayer,
	ledger.ErrEmptyPatch,
	auth.ErrWeakPassword,
	auth.ErrInvalidEmail,
	auth.ErrEmptyDisplayName,
	models.ErrDuplicateMemberName,
}

// toConnectError maps domain errors onto Connect codes. Errors that are
// already *connect.Error pass through unchanged.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeInvalidArgument, target)
		}
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrGroupFull), errors.Is(err, ErrNoGroup):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrEmailExists), errors.Is(err, storage.ErrAlreadyMember), errors.Is(err, ErrHasGroup):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
