package transport

import (
	"context"
	"net/http"

	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/middleware"
	"faishion-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ColorRequest picks a color; an empty color clears the pick
type ColorRequest struct {
	Color string `json:"color" validate:"max=50"`
}

// SizeRequest picks a size for the pending color
type SizeRequest struct {
	Size string `json:"size" validate:"max=50"`
}

// QuantityRequest moves a line's quantity by one
type QuantityRequest struct {
	Delta int `json:"delta" validate:"required,oneof=-1 1"`
}

// QuestionRequest asks a question about a product
type QuestionRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=2000"`
	Secret  bool   `json:"secret"`
}

// ProductPanelHandler handles HTTP requests for the purchase panel and the
// product question list
type ProductPanelHandler struct {
	panelService service.ProductPanelService
	qnaService   service.QnaService
	logger       *zap.Logger
}

// NewProductPanelHandler creates a new ProductPanelHandler
func NewProductPanelHandler(panelService service.ProductPanelService, qnaService service.QnaService, logger *zap.Logger) *ProductPanelHandler {
	return &ProductPanelHandler{
		panelService: panelService,
		qnaService:   qnaService,
		logger:       logger,
	}
}

// RegisterRoutes registers the panel routes. All of them need a session.
func (h *ProductPanelHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products/{productID}", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/panel", func(r chi.Router) {
			r.Get("/", h.Open)
			r.Post("/color", h.SelectColor)
			r.Post("/size", h.SelectSize)
			r.Post("/lines/{index}/quantity", h.ChangeQuantity)
			r.Delete("/lines/{index}", h.RemoveLine)
			r.Post("/cart", h.SaveCart)
			r.Post("/order", h.CreateDirectOrder)
			r.Post("/wish", h.AddToWishlist)
			r.Get("/try-on", h.TryOn)
		})

		r.Get("/questions", h.ListQuestions)
		r.Post("/questions", h.AskQuestion)
	})
}

type panelOp func(ctx context.Context, sess domain.Session, productID int64) (*service.PanelResult, error)

// run resolves the session and product id, then renders op's result
func (h *ProductPanelHandler) run(w http.ResponseWriter, r *http.Request, op panelOp) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	result, err := op(r.Context(), sess, productID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondView(w, result.View, result.Outcome)
}

// Open renders the panel
func (h *ProductPanelHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.panelService.Open)
}

// SelectColor handles a color pick
func (h *ProductPanelHandler) SelectColor(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, productID int64) (*service.PanelResult, error) {
		return h.panelService.SelectColor(ctx, sess, productID, req.Color)
	})
}

// SelectSize handles a size pick
func (h *ProductPanelHandler) SelectSize(w http.ResponseWriter, r *http.Request) {
	var req SizeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, productID int64) (*service.PanelResult, error) {
		return h.panelService.SelectSize(ctx, sess, productID, req.Size)
	})
}

// ChangeQuantity handles the ± buttons of a line
func (h *ProductPanelHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, productID int64) (*service.PanelResult, error) {
		return h.panelService.ChangeQuantity(ctx, sess, productID, index, req.Delta)
	})
}

// RemoveLine deletes a line
func (h *ProductPanelHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, productID int64) (*service.PanelResult, error) {
		return h.panelService.RemoveLine(ctx, sess, productID, index)
	})
}

// SaveCart moves the selection into the cart
func (h *ProductPanelHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.panelService.SaveCart)
}

// CreateDirectOrder starts an order from the selection
func (h *ProductPanelHandler) CreateDirectOrder(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.panelService.CreateDirectOrder)
}

// AddToWishlist adds the product to the wishlist
func (h *ProductPanelHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.panelService.AddToWishlist)
}

// TryOn navigates to the AI try-on screen
func (h *ProductPanelHandler) TryOn(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.panelService.TryOn)
}

// ListQuestions lists the product's questions
func (h *ProductPanelHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	result, err := h.qnaService.ProductQuestions(r.Context(), sess, productID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondView(w, result.Questions, result.Outcome)
}

// AskQuestion registers a question and returns the refreshed list
func (h *ProductPanelHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	var req QuestionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.qnaService.AskQuestion(r.Context(), sess, domain.NewQuestion{
		ProductID: productID,
		Title:     req.Title,
		Content:   req.Content,
		Secret:    req.Secret,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondView(w, result.Questions, result.Outcome)
}
