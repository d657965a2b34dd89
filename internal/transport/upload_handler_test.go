package transport

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testPNG = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func uploadRouter() (chi.Router, afero.Fs) {
	logger := zap.NewNop()
	fs := afero.NewMemMapFs()
	store := storage.NewImageStore(fs, "http://localhost:8080", "/uploads", logger)

	r := chi.NewRouter()
	NewUploadHandler(store, logger).RegisterRoutes(r,
		middleware.AuthMiddleware(testSecret, logger),
		middleware.RequireAdmin(logger),
	)
	return r, fs
}

func uploadRequest(t *testing.T, folder string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	if data != nil {
		part, err := mw.CreateFormFile("file", "figure.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), domain.RoleAdmin))
	return req
}

func TestUploadHandler_UploadAndDelete(t *testing.T) {
	router, fs := uploadRouter()

	w := serve(router, uploadRequest(t, storage.FolderBanners, testPNG))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp["url"], "http://localhost:8080/uploads/banners/"))

	exists, err := afero.Exists(fs, strings.TrimPrefix(resp["url"], "http://localhost:8080/uploads/"))
	require.NoError(t, err)
	assert.True(t, exists)

	del := adminRequest(t, http.MethodDelete, "/api/admin/uploads?url="+url.QueryEscape(resp["url"]), nil)
	assert.Equal(t, http.StatusNoContent, serve(router, del).Code)

	again := adminRequest(t, http.MethodDelete, "/api/admin/uploads?url="+url.QueryEscape(resp["url"]), nil)
	assert.Equal(t, http.StatusNotFound, serve(router, again).Code)
}

func TestUploadHandler_DefaultsToProducts(t *testing.T) {
	router, _ := uploadRouter()

	w := serve(router, uploadRequest(t, "", testPNG))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "/uploads/products/")
}

func TestUploadHandler_Rejects(t *testing.T) {
	router, _ := uploadRouter()

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"slips folder is not for admins", uploadRequest(t, storage.FolderSlips, testPNG), http.StatusBadRequest},
		{"missing file", uploadRequest(t, storage.FolderProducts, nil), http.StatusBadRequest},
		{"not an image", uploadRequest(t, storage.FolderProducts, []byte("%PDF-1.7")), http.StatusUnsupportedMediaType},
		{"foreign url", adminRequest(t, http.MethodDelete, "/api/admin/uploads?url="+url.QueryEscape("https://elsewhere.example/a.png"), nil), http.StatusBadRequest},
		{"missing url", adminRequest(t, http.MethodDelete, "/api/admin/uploads", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(router, tt.req).Code)
		})
	}
}

func TestUploadHandler_RequiresAdmin(t *testing.T) {
	router, _ := uploadRouter()
	req := uploadRequest(t, storage.FolderProducts, testPNG)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), domain.RoleUser))

	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)
}
