package purchases

import pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"

var ErrPurchaseNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
