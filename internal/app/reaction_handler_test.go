package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ranklist/internal/model"
	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- MOCK SERVICE ---

type MockReactionService struct {
	mock.Mock
}

func (m *MockReactionService) Toggle(userID, targetType, targetID, emoji string) (bool, error) {
	args := m.Called(userID, targetType, targetID, emoji)
	return args.Bool(0), args.Error(1)
}

func (m *MockReactionService) ToggleCommentLike(userID, commentID string) (bool, error) {
	args := m.Called(userID, commentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReactionService) ListReactions(targetType, targetID, actingUserID string) ([]model.ReactionSummary, error) {
	args := m.Called(targetType, targetID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReactionSummary), args.Error(1)
}

// --- SETUP ---

// fakeAuth plants a user ID the way the auth middleware would
func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}
}

func setupReactionRouter(mockService *MockReactionService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReactionHandler(mockService)

	r.POST("/api/v1/reactions", fakeAuth(userID), h.Toggle)
	r.GET("/api/v1/reactions", fakeAuth(userID), h.List)
	r.POST("/api/v1/comments/:id/like", fakeAuth(userID), h.ToggleCommentLike)
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) util.Response {
	var resp util.Response
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- TESTS ---

func TestReactionHandler_Toggle(t *testing.T) {
	body := `{"target_type":"ranking","target_id":"r1","emoji":"❤️"}`

	t.Run("toggles on", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("Toggle", "u1", "ranking", "r1", "❤️").Return(true, nil)
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/reactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, true, resp.Data.(map[string]interface{})["reacted"])
		mockService.AssertExpectations(t)
	})

	t.Run("toggles off", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("Toggle", "u1", "ranking", "r1", "❤️").Return(false, nil)
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/reactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeEnvelope(t, w).Data.(map[string]interface{})["reacted"])
	})

	t.Run("rejects unauthenticated callers", func(t *testing.T) {
		mockService := new(MockReactionService)
		r := setupReactionRouter(mockService, "")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/reactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "Toggle")
	})

	t.Run("rejects incomplete bodies", func(t *testing.T) {
		mockService := new(MockReactionService)
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/reactions", bytes.NewBufferString(`{"target_type":"ranking"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Toggle")
	})

	t.Run("maps service errors onto statuses", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{fmt.Errorf("%w: ranking r1", service.ErrNotFound), http.StatusNotFound},
			{fmt.Errorf("%w: %q", service.ErrInvalidTargetType, "post"), http.StatusBadRequest},
			{fmt.Errorf("%w: emoji is required", service.ErrInvalidArgument), http.StatusBadRequest},
			{fmt.Errorf("connection refused"), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			mockService := new(MockReactionService)
			mockService.On("Toggle", "u1", "ranking", "r1", "❤️").Return(false, tc.err)
			r := setupReactionRouter(mockService, "u1")

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/reactions", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
			assert.False(t, decodeEnvelope(t, w).Success)
		}
	})
}

func TestReactionHandler_List(t *testing.T) {
	summaries := []model.ReactionSummary{
		{Emoji: "❤️", Count: 3, UserReacted: true},
		{Emoji: "🔥", Count: 1},
	}

	t.Run("authenticated caller gets user_reacted flags", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("ListReactions", "ranking", "r1", "u1").Return(summaries, nil)
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reactions?target_type=ranking&target_id=r1", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("anonymous caller passes no user", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("ListReactions", "ranking", "r1", "").Return(summaries, nil)
		r := setupReactionRouter(mockService, "")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reactions?target_type=ranking&target_id=r1", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("requires both query params", func(t *testing.T) {
		mockService := new(MockReactionService)
		r := setupReactionRouter(mockService, "")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/reactions?target_type=ranking", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "ListReactions")
	})
}

func TestReactionHandler_ToggleCommentLike(t *testing.T) {
	t.Run("likes the comment", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("ToggleCommentLike", "u1", "c1").Return(true, nil)
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/comments/c1/like", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeEnvelope(t, w).Data.(map[string]interface{})["liked"])
	})

	t.Run("missing comment", func(t *testing.T) {
		mockService := new(MockReactionService)
		mockService.On("ToggleCommentLike", "u1", "c1").Return(false, fmt.Errorf("%w: comment c1", service.ErrNotFound))
		r := setupReactionRouter(mockService, "u1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/comments/c1/like", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
