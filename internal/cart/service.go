package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/internal/pricing"
	"github.com/angelmondragon/ticketing-backend/pkg/db"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

const (
	// MaxQuantity bounds the quantity accepted by a single add or update.
	MaxQuantity = 10

	openCartConstraint = "carts_user_open_key"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type priceResolver interface {
	Resolve(ctx context.Context, db *gorm.DB, c pricing.Candidate) (*pricing.Quote, error)
}

// Service owns a user's cart and keeps its totals consistent with its lines.
type Service interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.Cart, error)
	UpdateLine(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	RecomputeTotals(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	MarkAbandoned(ctx context.Context, userID uuid.UUID) error
}

// AddLineInput identifies what to add. Prices are never accepted from callers.
type AddLineInput struct {
	Kind       enums.CartLineKind
	EventID    uuid.UUID
	StageID    *uuid.UUID
	TicketType string
	PackageID  *uuid.UUID
	BoxID      *uuid.UUID
	Quantity   int
}

type service struct {
	repo     *Repository
	tx       txRunner
	resolver priceResolver
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the cart engine.
func NewService(repo *Repository, tx txRunner, resolver priceResolver, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, resolver: resolver, logg: logg, now: now}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var out *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := s.openCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if c.Status == enums.CartStatusPaid {
			if err := repo.Transition(ctx, c.ID, enums.CartStatusPaid, enums.CartStatusActive); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reopen cart")
			}
			c.Status = enums.CartStatusActive
		}

		pruned, err := repo.DeleteLinesWithEndedStage(ctx, c.ID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prune expired cart lines")
		}
		if pruned > 0 {
			if s.logg != nil {
				s.logg.Info(s.logg.WithFields(ctx, map[string]any{"cart_id": c.ID.String(), "pruned": pruned}), "removed cart lines of ended stages")
			}
			if err := s.recompute(ctx, repo, c); err != nil {
				return err
			}
		}

		out, err = s.reload(ctx, repo, c.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.Cart, error) {
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	candidate := pricing.Candidate{
		Kind:       input.Kind,
		EventID:    input.EventID,
		StageID:    input.StageID,
		TicketType: input.TicketType,
		PackageID:  input.PackageID,
		BoxID:      input.BoxID,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(repo *Repository, tx *gorm.DB, c *models.Cart) error {
		quote, err := s.resolver.Resolve(ctx, tx, candidate)
		if err != nil {
			return err
		}

		key := quoteKey(quote)
		for i := range c.Lines {
			existing := &c.Lines[i]
			if lineKey(existing) != key {
				continue
			}
			merged := existing.Quantity + input.Quantity
			if err := validateQuantity(merged); err != nil {
				return err
			}
			applyQuote(existing, quote, merged)
			return repo.SaveLine(ctx, existing)
		}

		line := &models.CartLine{CartID: c.ID}
		applyQuote(line, quote, input.Quantity)
		return repo.CreateLine(ctx, line)
	})
}

func (s *service) UpdateLine(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(repo *Repository, tx *gorm.DB, c *models.Cart) error {
		line, err := repo.FindLine(ctx, c.ID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLineNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		quote, err := s.resolver.Resolve(ctx, tx, candidateFromLine(line))
		if err != nil {
			return err
		}
		applyQuote(line, quote, quantity)
		return repo.SaveLine(ctx, line)
	})
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(repo *Repository, _ *gorm.DB, c *models.Cart) error {
		removed, err := repo.DeleteLine(ctx, c.ID, lineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		if removed == 0 {
			return ErrLineNotFound
		}
		return nil
	})
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(repo *Repository, _ *gorm.DB, c *models.Cart) error {
		return repo.DeleteLines(ctx, c.ID)
	})
}

// RecomputeTotals rewrites the aggregates of the user's cart from its lines.
func (s *service) RecomputeTotals(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var out *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := s.openCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := s.recompute(ctx, repo, c); err != nil {
			return err
		}
		out, err = s.reload(ctx, repo, c.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) MarkAbandoned(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindOpenByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if c.Status != enums.CartStatusActive {
			return ErrCartNotActive
		}
		return repo.Transition(ctx, c.ID, c.Status, enums.CartStatusAbandoned)
	})
}

// mutate runs fn against the user's active cart and recomputes totals after it.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(repo *Repository, tx *gorm.DB, c *models.Cart) error) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var out *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := s.openCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if !c.Status.AcceptsMutation() {
			return ErrCartLocked
		}
		if err := fn(repo, tx, c); err != nil {
			return err
		}
		if err := s.recompute(ctx, repo, c); err != nil {
			return err
		}
		out, err = s.reload(ctx, repo, c.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// openCart returns the user's open cart in whatever status it holds, creating
// an active one when none exists. Only GetOrCreateCart reopens a paid cart.
func (s *service) openCart(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.Cart, error) {
	c, err := repo.FindOpenByUser(ctx, userID)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	c = &models.Cart{UserID: userID, Status: enums.CartStatusActive}
	if err := repo.Create(ctx, c); err != nil {
		if db.IsUniqueViolation(err, openCartConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was created concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"cart_id": c.ID.String(), "user_id": userID.String()}), "cart created")
	}
	return c, nil
}

func (s *service) recompute(ctx context.Context, repo *Repository, c *models.Cart) error {
	lines, err := repo.ListLines(ctx, c.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
	}
	applyTotals(c, ComputeTotals(lines))
	if err := repo.SaveTotals(ctx, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart totals")
	}
	return nil
}

func (s *service) reload(ctx context.Context, repo *Repository, id, userID uuid.UUID) (*models.Cart, error) {
	c, err := repo.FindByIDForUser(ctx, id, userID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return c, nil
}

func validateQuantity(q int) error {
	if q < 1 || q > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity))
	}
	return nil
}
