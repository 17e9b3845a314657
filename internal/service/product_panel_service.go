package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"faishion-storefront/internal/backend"
	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/logger"
	"faishion-storefront/internal/repository"
	"faishion-storefront/internal/selector"

	"go.uber.org/zap"
)

// PanelResult is the purchase panel after an operation
type PanelResult struct {
	View selector.PanelView
	Outcome
}

// ProductPanelService defines the purchase panel operations. Every call
// re-fetches the product and applies the operation to the session's stored
// selection.
type ProductPanelService interface {
	Open(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error)
	SelectColor(ctx context.Context, sess domain.Session, productID int64, color string) (*PanelResult, error)
	SelectSize(ctx context.Context, sess domain.Session, productID int64, size string) (*PanelResult, error)
	ChangeQuantity(ctx context.Context, sess domain.Session, productID int64, index, delta int) (*PanelResult, error)
	RemoveLine(ctx context.Context, sess domain.Session, productID int64, index int) (*PanelResult, error)
	SaveCart(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error)
	CreateDirectOrder(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error)
	AddToWishlist(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error)
	TryOn(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error)
}

type productPanelService struct {
	backend ProductBackend
	states  repository.ViewStateRepository
	locks   *viewLocks
	notices NoticeRecorder
	logger  *zap.Logger
}

// NewProductPanelService creates a new instance of ProductPanelService
func NewProductPanelService(
	backend ProductBackend,
	states repository.ViewStateRepository,
	notices NoticeRecorder,
	logger *zap.Logger,
) ProductPanelService {
	if notices == nil {
		notices = nopRecorder{}
	}
	return &productPanelService{
		backend: backend,
		states:  states,
		locks:   newViewLocks(),
		notices: notices,
		logger:  logger,
	}
}

// Open renders the panel with the session's current selection
func (s *productPanelService) Open(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error) {
	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}
	return &PanelResult{View: sel.View()}, nil
}

// SelectColor sets the pending color
func (s *productPanelService) SelectColor(ctx context.Context, sess domain.Session, productID int64, color string) (*PanelResult, error) {
	return s.mutate(ctx, sess, productID, func(sel *selector.Selector) error {
		return sel.SelectColor(color)
	})
}

// SelectSize picks a size for the pending color, adding or incrementing a line
func (s *productPanelService) SelectSize(ctx context.Context, sess domain.Session, productID int64, size string) (*PanelResult, error) {
	return s.mutate(ctx, sess, productID, func(sel *selector.Selector) error {
		return sel.SelectSize(size)
	})
}

// ChangeQuantity moves a line's quantity by delta within [1, stock]
func (s *productPanelService) ChangeQuantity(ctx context.Context, sess domain.Session, productID int64, index, delta int) (*PanelResult, error) {
	return s.mutate(ctx, sess, productID, func(sel *selector.Selector) error {
		return sel.ChangeQuantity(index, delta)
	})
}

// RemoveLine deletes a line
func (s *productPanelService) RemoveLine(ctx context.Context, sess domain.Session, productID int64, index int) (*PanelResult, error) {
	return s.mutate(ctx, sess, productID, func(sel *selector.Selector) error {
		return sel.Remove(index)
	})
}

// SaveCart submits the lines to the cart and clears them on success. Picks
// made while the save is in flight wait for it and land on the cleared panel.
func (s *productPanelService) SaveCart(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error) {
	unlock, err := s.locks.lock(ctx, repository.SelectorKey(sess.Subject, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	if result, rejected := s.reject(sel, sel.RequireSelection()); rejected {
		return result, nil
	}
	if result, rejected := s.reject(sel, sel.ValidateForCart()); rejected {
		return result, nil
	}

	if err := s.backend.SaveCart(ctx, sess, sel.CartLines()); err != nil {
		s.log(ctx).Warn("Cart save failed", zap.Int64("product_id", productID), zap.Error(err))
		return s.notice(sel, NoticeCartFailed, "cart_failed"), nil
	}

	sel.Clear()
	if err := s.save(ctx, sess, productID, sel); err != nil {
		return nil, err
	}
	return s.notice(sel, NoticeCartSaved, "cart_saved"), nil
}

// CreateDirectOrder starts an order and sends the client to the order screen
func (s *productPanelService) CreateDirectOrder(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error) {
	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	if result, rejected := s.reject(sel, sel.RequireSelection()); rejected {
		return result, nil
	}

	items, err := s.backend.CreateDirectOrder(ctx, sess, sel.DirectOrder())
	if err != nil {
		s.log(ctx).Warn("Direct order failed", zap.Int64("product_id", productID), zap.Error(err))
		return s.notice(sel, NoticeOrderFailed, "order_failed"), nil
	}

	return &PanelResult{
		View: sel.View(),
		Outcome: Outcome{Navigate: &Navigation{
			To:    OrderNewPath,
			State: map[string]interface{}{"directItems": items},
		}},
	}, nil
}

// AddToWishlist adds the product to the wishlist and shows the backend message
func (s *productPanelService) AddToWishlist(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error) {
	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	if result, rejected := s.reject(sel, sel.RequireSelection()); rejected {
		return result, nil
	}

	msg, err := s.backend.SaveWish(ctx, sess, productID)
	if err != nil {
		s.log(ctx).Warn("Wishlist add failed", zap.Int64("product_id", productID), zap.Error(err))
		return s.notice(sel, NoticeWishFailed, "wish_failed"), nil
	}
	return s.notice(sel, msg, "wish_saved"), nil
}

// TryOn sends the client to the AI try-on screen
func (s *productPanelService) TryOn(ctx context.Context, sess domain.Session, productID int64) (*PanelResult, error) {
	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}
	return &PanelResult{
		View:    sel.View(),
		Outcome: Outcome{Navigate: &Navigation{To: tryOnPathBase + strconv.FormatInt(productID, 10)}},
	}, nil
}

// mutate applies op and persists the result. Rejections leave the stored
// state as it was, except that pending picks are always reset by an add.
func (s *productPanelService) mutate(ctx context.Context, sess domain.Session, productID int64, op func(*selector.Selector) error) (*PanelResult, error) {
	unlock, err := s.locks.lock(ctx, repository.SelectorKey(sess.Subject, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sel, err := s.load(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	opErr := op(sel)
	if opErr != nil {
		if _, _, ok := selectorNotice(opErr); !ok {
			return nil, opErr
		}
	}

	if err := s.save(ctx, sess, productID, sel); err != nil {
		return nil, err
	}

	if result, rejected := s.reject(sel, opErr); rejected {
		return result, nil
	}
	return &PanelResult{View: sel.View()}, nil
}

func (s *productPanelService) reject(sel *selector.Selector, err error) (*PanelResult, bool) {
	if err == nil {
		return nil, false
	}
	notice, kind, ok := selectorNotice(err)
	if !ok {
		return nil, false
	}
	return s.notice(sel, notice, kind), true
}

// notice counts only notices the user will see
func (s *productPanelService) notice(sel *selector.Selector, notice, kind string) *PanelResult {
	if notice != "" {
		s.notices.IncNotice("panel", kind)
	}
	return &PanelResult{View: sel.View(), Outcome: Outcome{Notice: notice}}
}

func (s *productPanelService) load(ctx context.Context, sess domain.Session, productID int64) (*selector.Selector, error) {
	product, err := s.backend.GetProduct(ctx, sess, productID)
	if err != nil {
		if backend.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("%w: fetch product: %v", ErrBackendFailure, err)
	}

	var state selector.State
	err = s.states.Load(ctx, repository.SelectorKey(sess.Subject, productID), &state)
	if err != nil && !errors.Is(err, repository.ErrViewStateNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}

	return selector.New(product, state), nil
}

func (s *productPanelService) save(ctx context.Context, sess domain.Session, productID int64, sel *selector.Selector) error {
	if err := s.states.Save(ctx, repository.SelectorKey(sess.Subject, productID), sel.State()); err != nil {
		return fmt.Errorf("%w: %v", ErrViewStateFailure, err)
	}
	return nil
}

func (s *productPanelService) log(ctx context.Context) *zap.Logger {
	return logger.WithRequest(ctx, s.logger)
}
