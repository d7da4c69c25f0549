package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New("debug")
	logger.SetOutput(buf)
	return logger, buf
}

func TestNewLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, New("warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("nonsense").GetLevel())
}

func TestRequestLogger(t *testing.T) {
	logger, buf := bufferLogger()
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping", line["uri"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, "request handled", line["msg"])
}

func TestCronLogger(t *testing.T) {
	logger, buf := bufferLogger()
	l := CronLogger{Logger: logger}

	l.Error(errors.New("boom"), "job panicked", "entry", 3, 42, "ignored")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job panicked", line["msg"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, float64(3), line["entry"])
	assert.Equal(t, "cron", line["component"])
}

func TestGormWriter(t *testing.T) {
	logger, buf := bufferLogger()
	GormWriter{Logger: logger}.Printf("slow query %d", 7)
	assert.Contains(t, buf.String(), "slow query 7")
}
