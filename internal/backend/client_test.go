package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"faishion-storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedCall struct {
	endpoint string
	status   int
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveBackendCall(endpoint string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{endpoint, status})
}

var testSession = domain.Session{Subject: "alice", Token: "token-abc"}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second, zap.NewNop(), opts...)
}

func TestClient_GetProductForwardsToken(t *testing.T) {
	obs := &fakeObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/product/101", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		fmt.Fprint(w, `{"id":101,"brand":"B","name":"Shirt","price":10000,
			"stockByColorAndSize":{"Red":{"M":2,"L":0},"Black":{"S":5}}}`)
	}, WithObserver(obs))

	product, err := client.GetProduct(context.Background(), testSession, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(101), product.ID)
	assert.Equal(t, []string{"Red", "Black"}, product.Stock.Colors())
	assert.Equal(t, 2, product.Stock.Quantity("Red", "M"))

	require.Len(t, obs.calls, 1)
	assert.Equal(t, recordedCall{"product.get", http.StatusOK}, obs.calls[0])
}

func TestClient_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "denied")
	})

	err := client.AnswerQna(context.Background(), testSession, 7, "yes")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/qna/answer/7", se.Path)
	assert.Equal(t, "denied", se.Body)
}

func TestClient_TransportErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, time.Second, zap.NewNop())

	_, err := client.GetQna(context.Background(), testSession, 1)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_SaveCartSendsLines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart/save", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var lines []domain.CartLine
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lines))
		assert.Equal(t, []domain.CartLine{{Quantity: 2, Color: "Red", Size: "M", ProductID: 101}}, lines)
		fmt.Fprint(w, "true")
	})

	err := client.SaveCart(context.Background(), testSession, []domain.CartLine{{Quantity: 2, Color: "Red", Size: "M", ProductID: 101}})
	assert.NoError(t, err)
}

func TestClient_SaveWishMessage(t *testing.T) {
	for _, body := range []string{`Added to wishlist`, `"Added to wishlist"`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/wish/save/101", r.URL.Path)
			fmt.Fprint(w, body)
		})

		msg, err := client.SaveWish(context.Background(), testSession, 101)
		require.NoError(t, err)
		assert.Equal(t, "Added to wishlist", msg)
	}
}

func TestClient_CreateDirectOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req domain.DirectOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(101), req.ProductID)
		require.Len(t, req.Items, 1)
		fmt.Fprint(w, `[{"productId":101,"color":"Red","size":"M","quantity":1}]`)
	})

	out, err := client.CreateDirectOrder(context.Background(), testSession, domain.DirectOrderRequest{
		ProductID: 101,
		Items:     []domain.OrderItem{{Color: "Red", Size: "M", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":101,"color":"Red","size":"M","quantity":1}]`, string(out))
}

func TestClient_QnaCalls(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, r.Method+" "+r.URL.RequestURI()+" "+string(body))
		switch r.URL.Path {
		case "/qna/7":
			if r.Method == http.MethodGet {
				fmt.Fprint(w, `{"id":7,"user_id":"alice","title":"t","content":"c","created_at":"2024-03-09T10:30:00","answer":null}`)
			}
		case "/qna/list":
			fmt.Fprint(w, `{"content":[{"id":7,"title":"t"}],"totalElements":1,"totalPages":1,"number":0,"size":10}`)
		case "/qna/product/101":
			fmt.Fprint(w, `[{"id":7,"userName":"alice","title":"t","content":"c","secret":true,"isAuthor":true}]`)
		case "/qna/save":
			fmt.Fprint(w, `Question registered`)
		}
	})
	ctx := context.Background()

	rec, err := client.GetQna(ctx, testSession, 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.UserID)
	assert.False(t, rec.Answered())

	require.NoError(t, client.UpdateQna(ctx, testSession, 7, "nt", "nc"))
	require.NoError(t, client.DeleteQna(ctx, testSession, 7))

	page, err := client.ListQna(ctx, testSession, "size", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	questions, err := client.ProductQuestions(ctx, testSession, 101)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.True(t, questions[0].IsAuthor)

	msg, err := client.AskQuestion(ctx, testSession, domain.NewQuestion{ProductID: 101, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "Question registered", msg)

	assert.Equal(t, []string{
		"GET /qna/7 ",
		`PUT /qna/7 {"content":"nc","title":"nt"}`,
		"DELETE /qna/7 ",
		"GET /qna/list?page=0&q=size&size=10 ",
		"GET /qna/product/101 ",
		`POST /qna/save {"productId":101,"title":"t","content":"c","secret":false}`,
	}, seen)
}
