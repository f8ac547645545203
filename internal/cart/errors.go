package cart

import (
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

var (
	ErrCartNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	ErrCartNotActive = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")
	ErrCartEmpty     = pkgerrors.New(pkgerrors.CodeStateConflict, "cart has no lines")
	ErrCartLocked    = pkgerrors.New(pkgerrors.CodeStateConflict, "cart cannot change while it is being paid")
	ErrLineNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")

	ErrCartStatusChanged = pkgerrors.New(pkgerrors.CodeStateConflict, "cart status changed concurrently")
)
