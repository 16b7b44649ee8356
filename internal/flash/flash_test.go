package flash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/timeoff/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryStoreTakeIsReadOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Minute)

	require.NoError(t, store.Put(ctx, "k", Messages{Errors: []string{"first"}}))
	require.NoError(t, store.Put(ctx, "k", Messages{Messages: []string{"second"}}))

	msgs, err := store.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Messages{Errors: []string{"first"}, Messages: []string{"second"}}, msgs)

	msgs, err = store.Take(ctx, "k")
	require.NoError(t, err)
	assert.True(t, msgs.Empty())
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, 20*time.Millisecond)
	require.NoError(t, store.Put(ctx, "k", Messages{Messages: []string{"saved"}}))

	time.Sleep(60 * time.Millisecond)

	msgs, err := store.Take(ctx, "k")
	require.NoError(t, err)
	assert.True(t, msgs.Empty())
}

func TestManagerRoundTripThroughCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewManager(NewMemoryStore(10, time.Minute), config.Config{}, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/save", func(c *gin.Context) {
		manager.Add(c, Messages{Messages: []string{"Settings were saved"}})
		c.Redirect(http.StatusSeeOther, "/show")
	})
	r.GET("/show", func(c *gin.Context) {
		c.JSON(http.StatusOK, manager.Pop(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	show := func() string {
		req := httptest.NewRequest(http.MethodGet, "/show", nil)
		req.AddCookie(cookies[0])
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Body.String()
	}
	assert.JSONEq(t, `{"messages":["Settings were saved"]}`, show())
	assert.JSONEq(t, `{}`, show())
}

func TestManagerPopWithoutCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewManager(NewMemoryStore(10, time.Minute), config.Config{}, zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.True(t, manager.Pop(c).Empty())
	assert.Empty(t, w.Result().Cookies())
}
