package tickets

import pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"

var (
	ErrTicketNotFound           = pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	ErrTicketAlreadyUsed        = pkgerrors.New(pkgerrors.CodeStateConflict, "ticket already used")
	ErrTicketAlreadyTransferred = pkgerrors.New(pkgerrors.CodeStateConflict, "ticket already transferred")
	ErrTicketWithoutQR          = pkgerrors.New(pkgerrors.CodeStateConflict, "ticket has no qr code")
	ErrInvalidAttachment        = pkgerrors.New(pkgerrors.CodeValidation, "attachment must be a base64 pdf data uri")
	ErrEventNotFound            = pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	ErrInvalidTrigram           = pkgerrors.New(pkgerrors.CodeValidation, "event has no valid 3-letter code")
	ErrQRCollision              = pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique qr code")
)
