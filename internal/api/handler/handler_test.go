package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rrens/rag-chatbot/internal/api/handler"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Helper to make JSON request
func makeJSONRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func sessionRouter(svc handler.ChatService) http.Handler {
	h := handler.NewSessionHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/chat/history/{sessionID}", h.GetHistory)
	r.Delete("/api/chat/history/{sessionID}", h.Delete)
	return r
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestReadyCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	t.Run("all dependencies up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ReadyCheck(map[string]handler.ReadinessCheck{"redis": ok, "qdrant": ok})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("one dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ReadyCheck(map[string]handler.ReadinessCheck{"redis": ok, "qdrant": down})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeBody(t, rec)
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "ok", checks["redis"])
		assert.Equal(t, "unavailable", checks["qdrant"])
	})
}

func TestChatHandler_Chat(t *testing.T) {
	valid := map[string]any{"message": "hello", "apiKey": "gsk_key", "serviceType": "groq"}

	t.Run("success", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("Chat", mock.Anything, domain.ChatRequest{Message: "hello", APIKey: "gsk_key", ServiceType: "groq"}).
			Return(&domain.ChatResponse{
				Response:  "Hi",
				SessionID: "abc",
				History: []domain.ChatTurn{
					{Role: domain.RoleUser, Content: "hello"},
					{Role: domain.RoleAssistant, Content: "Hi"},
				},
			}, nil)

		rec := httptest.NewRecorder()
		handler.NewChatHandler(svc).Chat(rec, makeJSONRequest(http.MethodPost, "/api/chat", valid))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Hi", body["response"])
		assert.Equal(t, "abc", body["sessionId"])
		assert.Len(t, body["history"], 2)
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := map[string]struct {
			body  map[string]any
			field string
		}{
			"missing message":        {map[string]any{"apiKey": "k", "serviceType": "groq"}, "message"},
			"message too long":       {map[string]any{"message": strings.Repeat("a", 1001), "apiKey": "k", "serviceType": "groq"}, "message"},
			"missing key":            {map[string]any{"message": "hi", "serviceType": "groq"}, "apiKey"},
			"unknown service":        {map[string]any{"message": "hi", "apiKey": "k", "serviceType": "claude"}, "serviceType"},
			"unknown characteristic": {map[string]any{"message": "hi", "apiKey": "k", "serviceType": "groq", "characteristic": "poetry"}, "characteristic"},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				svc := new(MockChatService)
				rec := httptest.NewRecorder()
				handler.NewChatHandler(svc).Chat(rec, makeJSONRequest(http.MethodPost, "/api/chat", tc.body))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				body := decodeBody(t, rec)
				assert.NotEmpty(t, body["error"])
				assert.Contains(t, body["details"], tc.field)
				svc.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		handler.NewChatHandler(new(MockChatService)).Chat(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := map[string]struct {
			err     error
			status  int
			message string
		}{
			"auth":        {&domain.AuthError{Service: domain.ServiceGroq}, http.StatusUnauthorized, "Invalid API key"},
			"provider":    {&domain.ProviderCallError{Provider: "groq", Err: errors.New("status 500: secret detail")}, http.StatusInternalServerError, "Failed to get response from groq"},
			"unsupported": {&domain.UnsupportedProviderError{Service: "groq"}, http.StatusInternalServerError, "unsupported service type: groq"},
			"internal":    {&domain.InternalError{Err: errors.New("redis: READONLY")}, http.StatusInternalServerError, "Internal server error"},
			"unknown":     {errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				svc := new(MockChatService)
				svc.On("Chat", mock.Anything, mock.Anything).Return(nil, tc.err)

				rec := httptest.NewRecorder()
				handler.NewChatHandler(svc).Chat(rec, makeJSONRequest(http.MethodPost, "/api/chat", valid))

				assert.Equal(t, tc.status, rec.Code)
				assert.Equal(t, tc.message, decodeBody(t, rec)["error"])
			})
		}
	})
}

func TestSessionHandler(t *testing.T) {
	t.Run("history found", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("History", mock.Anything, "s1").Return([]domain.ChatTurn{{Role: domain.RoleUser, Content: "hi"}}, nil)

		rec := httptest.NewRecorder()
		sessionRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/s1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["history"], 1)
	})

	t.Run("history unknown session", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("History", mock.Anything, "unknown-id").Return(nil, &domain.NotFoundError{Resource: "Session", ID: "unknown-id"})

		rec := httptest.NewRecorder()
		sessionRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/unknown-id", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Session not found", decodeBody(t, rec)["error"])
	})

	t.Run("clear", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("Clear", mock.Anything, "s1").Return(nil)

		rec := httptest.NewRecorder()
		sessionRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/chat/history/s1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Session cleared successfully", decodeBody(t, rec)["message"])
	})
}

func TestKeyHandler_Validate(t *testing.T) {
	t.Run("reports outcome", func(t *testing.T) {
		keys := new(MockKeyValidator)
		keys.On("Validate", mock.Anything, "sk-test", "openai").Return(true)

		rec := httptest.NewRecorder()
		handler.NewKeyHandler(keys).Validate(rec, makeJSONRequest(http.MethodPost, "/api/validate-key",
			map[string]string{"apiKey": "sk-test", "serviceType": "openai"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, "openai", body["service"])
	})

	t.Run("unknown service is not a request error", func(t *testing.T) {
		keys := new(MockKeyValidator)
		keys.On("Validate", mock.Anything, "k", "claude").Return(false)

		rec := httptest.NewRecorder()
		handler.NewKeyHandler(keys).Validate(rec, makeJSONRequest(http.MethodPost, "/api/validate-key",
			map[string]string{"apiKey": "k", "serviceType": "claude"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["valid"])
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.NewKeyHandler(new(MockKeyValidator)).Validate(rec, makeJSONRequest(http.MethodPost, "/api/validate-key",
			map[string]string{"apiKey": "k"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "API key and service type are required", decodeBody(t, rec)["error"])
	})
}

func TestRAGHandler(t *testing.T) {
	t.Run("ingest reports failures", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("Ingest", mock.Anything, mock.MatchedBy(func(docs []domain.Document) bool { return len(docs) == 2 })).
			Return(&domain.IngestResult{
				Ingested: 1,
				Failed:   1,
				IDs:      []string{"a"},
				Failures: []domain.IngestFailure{{Index: 1, Error: "text is empty"}},
			}, nil)

		rec := httptest.NewRecorder()
		handler.NewRAGHandler(svc).Ingest(rec, makeJSONRequest(http.MethodPost, "/api/rag/ingest", map[string]any{
			"documents": []map[string]string{{"content": "doc1"}, {"content": ""}},
		}))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Successfully ingested 1 documents", body["message"])
		assert.EqualValues(t, 1, body["ingested"])
		assert.EqualValues(t, 1, body["failed"])
		assert.Len(t, body["failures"], 1)
	})

	t.Run("ingest without documents", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.NewRAGHandler(new(MockRAGService)).Ingest(rec, makeJSONRequest(http.MethodPost, "/api/rag/ingest", map[string]any{}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Documents array is required", decodeBody(t, rec)["error"])
	})

	t.Run("ingest empty documents", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("Ingest", mock.Anything, []domain.Document{}).Return(&domain.IngestResult{}, nil)

		rec := httptest.NewRecorder()
		handler.NewRAGHandler(svc).Ingest(rec, makeJSONRequest(http.MethodPost, "/api/rag/ingest", map[string]any{
			"documents": []map[string]string{},
		}))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Successfully ingested 0 documents", body["message"])
		assert.EqualValues(t, 0, body["ingested"])
		assert.EqualValues(t, 0, body["failed"])
		svc.AssertExpectations(t)
	})

	t.Run("search", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("Search", mock.Anything, "election", 0).Return([]domain.SearchHit{{ID: "1", Score: 0.8, Content: "c"}}, nil)

		rec := httptest.NewRecorder()
		handler.NewRAGHandler(svc).Search(rec, makeJSONRequest(http.MethodPost, "/api/rag/search", map[string]any{"query": "election"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["results"], 1)
	})

	t.Run("search without query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.NewRAGHandler(new(MockRAGService)).Search(rec, makeJSONRequest(http.MethodPost, "/api/rag/search", map[string]any{"limit": 3}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Query is required", decodeBody(t, rec)["error"])
	})

	t.Run("collection info", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("CollectionInfo", mock.Anything).Return(&domain.CollectionInfo{
			Name: "news-articles", Status: "green", VectorsCount: 4, PointsCount: 4,
		}, nil)

		rec := httptest.NewRecorder()
		handler.NewRAGHandler(svc).CollectionInfo(rec, httptest.NewRequest(http.MethodGet, "/api/rag/collection-info", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "news-articles", body["name"])
		assert.EqualValues(t, 4, body["pointsCount"])
	})

	t.Run("collection info unavailable", func(t *testing.T) {
		svc := new(MockRAGService)
		svc.On("CollectionInfo", mock.Anything).Return(nil, errors.New("rpc error: unavailable"))

		rec := httptest.NewRecorder()
		handler.NewRAGHandler(svc).CollectionInfo(rec, httptest.NewRequest(http.MethodGet, "/api/rag/collection-info", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
	})
}

func TestAdminHandler_Stats(t *testing.T) {
	stats := new(MockStatsProvider)
	stats.On("Stats", mock.Anything).Return(&domain.UsageStats{
		TotalSessions: 2, TotalMessages: 8, APIUsage: map[string]int64{"gemini": 2},
	}, nil)

	rec := httptest.NewRecorder()
	handler.NewAdminHandler(stats, nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["totalSessions"])
	assert.EqualValues(t, 8, body["totalMessages"])
}

func TestAdminHandler_FlushKeyCache(t *testing.T) {
	t.Run("flushes", func(t *testing.T) {
		cache := new(MockKeyCacheFlusher)
		cache.On("FlushKeyCache", mock.Anything).Return(int64(3), nil)

		rec := httptest.NewRecorder()
		handler.NewAdminHandler(nil, cache).FlushKeyCache(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/key-cache", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Key cache flushed", body["message"])
		assert.EqualValues(t, 3, body["deleted"])
	})

	t.Run("cache failure", func(t *testing.T) {
		cache := new(MockKeyCacheFlusher)
		cache.On("FlushKeyCache", mock.Anything).Return(int64(0), &domain.InternalError{Err: errors.New("connection refused")})

		rec := httptest.NewRecorder()
		handler.NewAdminHandler(nil, cache).FlushKeyCache(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/key-cache", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
	})
}
