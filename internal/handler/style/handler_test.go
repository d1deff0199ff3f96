package style

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lumina-interior/backend/internal/model/style"
)

func TestListStyles(t *testing.T) {
	r := chi.NewRouter()
	New(style.NewMemoryStore(style.Seed())).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/styles", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got []style.Style
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "scandinavian", got[0].ID)
	assert.NotEmpty(t, got[0].Thumbnail)
}
