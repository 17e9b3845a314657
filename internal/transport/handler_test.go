package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"faishion-storefront/internal/backend"
	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/middleware"
	"faishion-storefront/internal/qnaview"
	"faishion-storefront/internal/repository"
	"faishion-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// commerceStub plays the commerce backend
type commerceStub struct {
	mu        sync.Mutex
	cartSaves int
	deletes   int
	listQuery string
}

func (c *commerceStub) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/product/101", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":101,"brand":"FAISHION","name":"Linen Shirt","price":10000,
			"originalPrice":12000,"discountRate":17,
			"stockByColorAndSize":{"Red":{"M":2,"L":0},"Black":{"S":5}}}`)
	})
	r.Get("/product/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/cart/save", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.cartSaves++
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/qna/list", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.listQuery = r.URL.RawQuery
		c.mu.Unlock()
		io.WriteString(w, `{"content":[],"totalElements":0,"totalPages":0,"number":0,"size":10}`)
	})
	r.Get("/qna/product/101", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"title":"Fit?","secret":false},{"id":2,"title":"Secret","secret":true}]`)
	})
	r.Get("/qna/7", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":7,"user_id":"alice","title":"Sizing","content":"Runs small?","created_at":"2024-03-09T10:30:00"}`)
	})
	r.Delete("/qna/7", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.deletes++
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// testAuth injects a session from X-Test-Subject, or rejects the request
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get("X-Test-Subject")
		if subject == "" {
			middleware.RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		sess := domain.Session{Subject: subject, Token: "token-" + subject}
		if roles := r.Header.Get("X-Test-Roles"); roles != "" {
			sess.Roles = strings.Split(roles, ",")
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), sess)))
	})
}

func newTestRouter(t *testing.T) (http.Handler, *commerceStub) {
	t.Helper()
	stub := &commerceStub{}
	upstream := httptest.NewServer(stub.router())
	t.Cleanup(upstream.Close)

	logger := zap.NewNop()
	client := backend.NewClient(upstream.URL, 2*time.Second, logger)
	states := repository.NewMemoryViewStateRepository(time.Hour)

	panel := service.NewProductPanelService(client, states, nil, logger)
	qna := service.NewQnaService(client, states, qnaview.NewGuard(), nil, logger)

	r := chi.NewRouter()
	NewProductPanelHandler(panel, qna, logger).RegisterRoutes(r, testAuth)
	NewQnaHandler(qna, logger).RegisterRoutes(r, testAuth)
	return r, stub
}

type decodedView struct {
	View     json.RawMessage     `json:"view"`
	Notice   string              `json:"notice"`
	Navigate *service.Navigation `json:"navigate"`
	Confirm  string              `json:"confirm"`
}

func call(t *testing.T, h http.Handler, method, path, subject string, body interface{}) (*httptest.ResponseRecorder, decodedView) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if subject != "" {
		req.Header.Set("X-Test-Subject", subject)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out decodedView
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestPanelRoutes_SelectAndSaveCart(t *testing.T) {
	h, stub := newTestRouter(t)

	w, res := call(t, h, http.MethodGet, "/api/products/101/panel", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(res.View, &view))
	assert.Equal(t, []interface{}{"Red", "Black"}, view["colors"])
	assert.Equal(t, "12,000", view["originalPrice"])

	_, _ = call(t, h, http.MethodPost, "/api/products/101/panel/color", "alice", ColorRequest{Color: "Red"})
	w, res = call(t, h, http.MethodPost, "/api/products/101/panel/size", "alice", SizeRequest{Size: "M"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(res.View, &view))
	assert.EqualValues(t, 1, view["totalQuantity"])
	assert.Equal(t, "10,000", view["totalPrice"])

	w, res = call(t, h, http.MethodPost, "/api/products/101/panel/lines/0/quantity", "alice", QuantityRequest{Delta: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w, res = call(t, h, http.MethodPost, "/api/products/101/panel/lines/0/quantity", "alice", QuantityRequest{Delta: 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.NoticeExceedsStock, res.Notice)

	w, res = call(t, h, http.MethodPost, "/api/products/101/panel/cart", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.NoticeCartSaved, res.Notice)
	assert.Equal(t, 1, stub.cartSaves)
}

func TestPanelRoutes_ErrorStatuses(t *testing.T) {
	h, _ := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		want   int
	}{
		{"no session", http.MethodGet, "/api/products/101/panel", "", nil, http.StatusUnauthorized},
		{"bad product id", http.MethodGet, "/api/products/abc/panel", "alice", nil, http.StatusBadRequest},
		{"unknown product", http.MethodGet, "/api/products/999/panel", "alice", nil, http.StatusNotFound},
		{"unknown color", http.MethodPost, "/api/products/101/panel/color", "alice", ColorRequest{Color: "Green"}, http.StatusBadRequest},
		{"missing line", http.MethodDelete, "/api/products/101/panel/lines/3", "alice", nil, http.StatusNotFound},
		{"bad index", http.MethodDelete, "/api/products/101/panel/lines/x", "alice", nil, http.StatusBadRequest},
		{"delta out of range", http.MethodPost, "/api/products/101/panel/lines/0/quantity", "alice", QuantityRequest{Delta: 5}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := call(t, h, tc.method, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.want, w.Code)

			var errResp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error.Message)
		})
	}
}

func TestPanelRoutes_TryOnNavigates(t *testing.T) {
	h, _ := newTestRouter(t)

	w, res := call(t, h, http.MethodGet, "/api/products/101/panel/try-on", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, res.Navigate)
	assert.Equal(t, "/gemini/101", res.Navigate.To)
}

func TestProductQuestionRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	w, res := call(t, h, http.MethodGet, "/api/products/101/questions", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var questions []domain.ProductQuestion
	require.NoError(t, json.Unmarshal(res.View, &questions))
	require.Len(t, questions, 2)
	assert.True(t, questions[0].CanView)
	assert.False(t, questions[1].CanView)

	w, res = call(t, h, http.MethodPost, "/api/products/101/questions", "alice", QuestionRequest{Title: "", Content: "x"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.NoticeQuestionIncomplete, res.Notice)
}

func TestQnaRoutes_DetailLifecycle(t *testing.T) {
	h, stub := newTestRouter(t)

	w, _ := call(t, h, http.MethodPost, "/api/qna/7/edit", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "operations need an open view")

	w, res := call(t, h, http.MethodGet, "/api/qna/7", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(res.View, &detail))
	assert.Equal(t, "loaded", detail["status"])
	assert.Equal(t, "2024.03.09", detail["createdDate"])

	w, _ = call(t, h, http.MethodPut, "/api/qna/7/edit", "alice", DraftRequest{Title: "x", Content: "y"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, res = call(t, h, http.MethodPost, "/api/qna/7/delete", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.NoticeConfirmDelete, res.Confirm)
	assert.Zero(t, stub.deletes)

	w, res = call(t, h, http.MethodPost, "/api/qna/7/delete", "alice", DeleteRequest{Confirm: true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, res.Navigate)
	assert.Equal(t, service.QnaListPath, res.Navigate.To)
	assert.Equal(t, 1, stub.deletes)
}

func TestQnaRoutes_CloseView(t *testing.T) {
	h, _ := newTestRouter(t)

	_, _ = call(t, h, http.MethodGet, "/api/qna/7", "alice", nil)
	w, _ := call(t, h, http.MethodDelete, "/api/qna/7/view", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = call(t, h, http.MethodPost, "/api/qna/7/edit", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQnaRoutes_ListForwardsQuery(t *testing.T) {
	h, stub := newTestRouter(t)

	w, _ := call(t, h, http.MethodGet, "/api/qna?q=linen&page=2&size=20", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, stub.listQuery, "q=linen")
	assert.Contains(t, stub.listQuery, "page=2")
	assert.Contains(t, stub.listQuery, "size=20")
}

// Property: out-of-range page sizes are rejected before reaching the backend
func TestProperty_InvalidPageSizeRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("size outside 1..100 returns 400", prop.ForAll(
		func(size int) bool {
			h, stub := newTestRouter(t)
			req := httptest.NewRequest(http.MethodGet, "/api/qna?size="+strconv.Itoa(size), nil)
			req.Header.Set("X-Test-Subject", "alice")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w.Code == http.StatusBadRequest && stub.listQuery == ""
		},
		gen.OneGenOf(gen.IntRange(-1000, 0), gen.IntRange(maxPageSize+1, 10000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
