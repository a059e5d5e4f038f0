package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupControllerTest points the package at a fresh in-memory database and
// restores the previous globals when the test ends.
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	previousDB := config.GetDB()
	previousLogger := apiLogger
	config.SetDB(db)
	SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(func() {
		config.SetDB(previousDB)
		SetLogger(previousLogger)
	})
	return db
}

// callHandler drives handler directly with a single JSON request.
func callHandler(t *testing.T, handler gin.HandlerFunc, method, target string, params gin.Params, body any) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, jsonBody(t, body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	handler(c)
	return w
}

func jsonBody(t *testing.T, body any) io.Reader {
	t.Helper()
	if body == nil {
		return http.NoBody
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"])
	return response["error"].(map[string]any)["code"].(string)
}

func idParam(key, value string) gin.Params {
	return gin.Params{{Key: key, Value: value}}
}
