// Package backend is the REST client for the commerce backend the
// storefront renders from and submits to.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"faishion-storefront/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusError is returned for any non-2xx backend response
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// StatusCode returns the upstream status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Observer receives one observation per backend call
type Observer interface {
	ObserveBackendCall(endpoint string, status int, duration time.Duration)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default timeout'd http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithObserver attaches a call observer, typically the metrics registry
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client talks to the commerce backend on behalf of a session
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// NewClient creates a backend client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProduct fetches a product with its stock table
func (c *Client) GetProduct(ctx context.Context, sess domain.Session, productID int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, sess, "product.get", http.MethodGet, fmt.Sprintf("/product/%d", productID), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateDirectOrder starts an order without the cart. The response is kept
// opaque and handed to the order screen as navigation state.
func (c *Client) CreateDirectOrder(ctx context.Context, sess domain.Session, req domain.DirectOrderRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, sess, "order.newdirect", http.MethodPost, "/order/newdirect", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCart stores cart lines
func (c *Client) SaveCart(ctx context.Context, sess domain.Session, lines []domain.CartLine) error {
	return c.do(ctx, sess, "cart.save", http.MethodPost, "/cart/save", nil, lines, nil)
}

// SaveWish adds a product to the wishlist and returns the backend message
func (c *Client) SaveWish(ctx context.Context, sess domain.Session, productID int64) (string, error) {
	var raw []byte
	if err := c.do(ctx, sess, "wish.save", http.MethodPost, fmt.Sprintf("/wish/save/%d", productID), nil, nil, &raw); err != nil {
		return "", err
	}
	return messageFrom(raw), nil
}

// GetQna fetches a single question
func (c *Client) GetQna(ctx context.Context, sess domain.Session, qnaID int64) (*domain.QnaRecord, error) {
	var rec domain.QnaRecord
	if err := c.do(ctx, sess, "qna.get", http.MethodGet, fmt.Sprintf("/qna/%d", qnaID), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateQna rewrites a question's title and content
func (c *Client) UpdateQna(ctx context.Context, sess domain.Session, qnaID int64, title, content string) error {
	body := map[string]string{"title": title, "content": content}
	return c.do(ctx, sess, "qna.update", http.MethodPut, fmt.Sprintf("/qna/%d", qnaID), nil, body, nil)
}

// DeleteQna removes a question
func (c *Client) DeleteQna(ctx context.Context, sess domain.Session, qnaID int64) error {
	return c.do(ctx, sess, "qna.delete", http.MethodDelete, fmt.Sprintf("/qna/%d", qnaID), nil, nil, nil)
}

// AnswerQna submits an answer to a question
func (c *Client) AnswerQna(ctx context.Context, sess domain.Session, qnaID int64, answer string) error {
	body := map[string]string{"answer": answer}
	return c.do(ctx, sess, "qna.answer", http.MethodPut, fmt.Sprintf("/qna/answer/%d", qnaID), nil, body, nil)
}

// ListQna fetches one page of questions, optionally filtered by q
func (c *Client) ListQna(ctx context.Context, sess domain.Session, q string, page, size int) (*domain.QnaPage, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}
	query.Set("page", fmt.Sprint(page))
	query.Set("size", fmt.Sprint(size))

	var out domain.QnaPage
	if err := c.do(ctx, sess, "qna.list", http.MethodGet, "/qna/list", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductQuestions lists the questions asked about a product
func (c *Client) ProductQuestions(ctx context.Context, sess domain.Session, productID int64) ([]domain.ProductQuestion, error) {
	out := []domain.ProductQuestion{}
	if err := c.do(ctx, sess, "qna.product", http.MethodGet, fmt.Sprintf("/qna/product/%d", productID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AskQuestion registers a new question and returns the backend message
func (c *Client) AskQuestion(ctx context.Context, sess domain.Session, q domain.NewQuestion) (string, error) {
	var raw []byte
	if err := c.do(ctx, sess, "qna.save", http.MethodPost, "/qna/save", nil, q, &raw); err != nil {
		return "", err
	}
	return messageFrom(raw), nil
}

// do sends one request. out may be nil (body discarded), *[]byte (raw body)
// or anything encoding/json can decode into.
func (c *Client) do(ctx context.Context, sess domain.Session, endpoint, method, path string, query url.Values, in, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	requestID := middleware.GetReqID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		c.logger.Warn("Backend call failed",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Backend returned error status",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
		)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	switch dst := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case *[]byte:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s response: %w", endpoint, err)
		}
		*dst = raw
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nil
	}
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(endpoint, status, time.Since(start))
	}
}

// messageFrom reads a plain-text or JSON-string message body
func messageFrom(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	var s string
	if len(trimmed) > 0 && trimmed[0] == '"' && json.Unmarshal(trimmed, &s) == nil {
		return s
	}
	return string(trimmed)
}
