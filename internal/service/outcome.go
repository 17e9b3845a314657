package service

import (
	"context"
	"encoding/json"
	"errors"

	"faishion-storefront/internal/domain"
)

var (
	ErrViewNotOpen      = errors.New("view is not open")
	ErrStaleFetch       = errors.New("fetch superseded by a newer view")
	ErrBackendFailure   = errors.New("backend call failed")
	ErrViewStateFailure = errors.New("view state store failed")
	ErrProductNotFound  = errors.New("product not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// Navigation tells the client to move to another screen
type Navigation struct {
	To    string      `json:"to"`
	State interface{} `json:"state,omitempty"`
}

// Outcome is what a view operation asks the client to show besides the view
type Outcome struct {
	Notice   string      `json:"notice,omitempty"`
	Navigate *Navigation `json:"navigate,omitempty"`
	Confirm  string      `json:"confirm,omitempty"`
}

// NoticeRecorder counts notices shown to users
type NoticeRecorder interface {
	IncNotice(screen, kind string)
}

type nopRecorder struct{}

func (nopRecorder) IncNotice(string, string) {}

// ProductBackend is the part of the commerce backend the purchase panel uses
type ProductBackend interface {
	GetProduct(ctx context.Context, sess domain.Session, productID int64) (*domain.Product, error)
	CreateDirectOrder(ctx context.Context, sess domain.Session, req domain.DirectOrderRequest) (json.RawMessage, error)
	SaveCart(ctx context.Context, sess domain.Session, lines []domain.CartLine) error
	SaveWish(ctx context.Context, sess domain.Session, productID int64) (string, error)
}

// QnaBackend is the part of the commerce backend the Q&A screens use
type QnaBackend interface {
	GetQna(ctx context.Context, sess domain.Session, qnaID int64) (*domain.QnaRecord, error)
	UpdateQna(ctx context.Context, sess domain.Session, qnaID int64, title, content string) error
	DeleteQna(ctx context.Context, sess domain.Session, qnaID int64) error
	AnswerQna(ctx context.Context, sess domain.Session, qnaID int64, answer string) error
	ListQna(ctx context.Context, sess domain.Session, q string, page, size int) (*domain.QnaPage, error)
	ProductQuestions(ctx context.Context, sess domain.Session, productID int64) ([]domain.ProductQuestion, error)
	AskQuestion(ctx context.Context, sess domain.Session, q domain.NewQuestion) (string, error)
}
