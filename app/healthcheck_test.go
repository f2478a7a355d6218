package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckHandler(t *testing.T) {
	app := newBareApplication(&Config{
		Environment: "test",
		Version:     "1.0.0",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	res := httptest.NewRecorder()

	app.healthCheckHandler(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var got struct {
		Status     string `json:"status"`
		SystemInfo struct {
			Environment string `json:"environment"`
			Version     string `json:"version"`
		} `json:"system_info"`
	}
	unmarshalJSON(t, res.Body.Bytes(), &got)

	assert.Equal(t, "available", got.Status)
	assert.Equal(t, "test", got.SystemInfo.Environment)
	assert.Equal(t, "1.0.0", got.SystemInfo.Version)
}
