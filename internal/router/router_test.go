package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcards/internal/auth"
	"bankcards/internal/errors"
	"bankcards/internal/handler"
	"bankcards/internal/model"
	"bankcards/internal/repository/memory"
	"bankcards/internal/service"
)

type testServer struct {
	e          *echo.Echo
	store      *memory.Store
	adminToken string
	userToken  string
	userID     uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := memory.New()
	jwtService := auth.NewJWTService("router-test-secret-123")
	cardService := service.NewCardService(store, nil, log)
	transferService := service.NewTransferService(store, nil, service.TransferPolicy{}, log)
	sweeper := service.NewExpirationSweeper(store, nil, time.UTC, time.Minute, log)

	e := echo.New()
	Register(e, jwtService, log, Handlers{
		Cards:     handler.NewCardHandler(cardService),
		Transfers: handler.NewTransferHandler(transferService),
		Sweeps:    handler.NewSweepHandler(sweeper),
	})

	userID := uuid.New()
	adminToken, err := jwtService.GenerateAccessToken(uuid.New(), auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	userToken, err := jwtService.GenerateAccessToken(userID, auth.RoleUser, time.Hour)
	require.NoError(t, err)

	return &testServer{e: e, store: store, adminToken: adminToken, userToken: userToken, userID: userID}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seed(t *testing.T, number string, balance int64, status model.CardStatus, owner uuid.UUID, expires time.Time) *model.Card {
	t.Helper()
	card := &model.Card{
		Number:         number,
		Status:         status,
		Balance:        decimal.NewFromInt(balance),
		ExpirationDate: expires,
		OwnerID:        owner,
	}
	require.NoError(t, s.store.Cards().Create(context.Background(), card))
	return card
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var future = time.Date(2031, 1, 31, 0, 0, 0, 0, time.UTC)

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTransferEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "4000000000000002", 1000, model.CardStatusActive, s.userID, future)
	s.seed(t, "4000000000000010", 200, model.CardStatusActive, s.userID, future)

	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no token", "", `{"from_card_number":"4000000000000002","to_card_number":"4000000000000010","amount":"1"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"success", s.userToken, `{"from_card_number":"4000000000000002","to_card_number":"4000000000000010","amount":"500"}`, http.StatusOK, ""},
		{"insufficient funds", s.userToken, `{"from_card_number":"4000000000000002","to_card_number":"4000000000000010","amount":"1000"}`, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{"same card", s.userToken, `{"from_card_number":"4000000000000002","to_card_number":"4000000000000002","amount":"1"}`, http.StatusBadRequest, "SAME_ACCOUNT"},
		{"negative amount", s.userToken, `{"from_card_number":"4000000000000002","to_card_number":"4000000000000010","amount":"-1"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"three decimals", s.userToken, `{"from_card_number":"4000000000000002","to_card_number":"4000000000000010","amount":"1.005"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"short number", s.userToken, `{"from_card_number":"4000","to_card_number":"4000000000000010","amount":"1"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown card", s.userToken, `{"from_card_number":"4999999999999999","to_card_number":"4000000000000010","amount":"1"}`, http.StatusNotFound, "CARD_NOT_FOUND"},
		{"malformed body", s.userToken, `{"amount":`, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/transactions", tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var resp handler.TransferResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "500.00", resp.Amount)
			assert.Equal(t, "**** **** **** 0002", resp.FromCardNumber)
		})
	}

	rec := s.do(http.MethodGet, "/api/transactions/4000000000000010", s.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []handler.TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = s.do(http.MethodGet, "/api/transactions/4999999999999999", s.userToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardEndpoints(t *testing.T) {
	s := newTestServer(t)
	active := s.seed(t, "4000000000000002", 750, model.CardStatusActive, s.userID, future)
	blocked := s.seed(t, "4000000000000010", 10, model.CardStatusBlocked, s.userID, future)
	expired := s.seed(t, "4000000000000028", 0, model.CardStatusExpired, s.userID, future)

	t.Run("balance of active card", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/cards/"+itoa(active.ID)+"/balance", s.userToken, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.BalanceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "750.00", resp.Balance)
	})

	t.Run("balance of blocked card", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/cards/"+itoa(blocked.ID)+"/balance", s.userToken, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ILLEGAL_STATE", decodeError(t, rec).Code)
	})

	t.Run("balance of missing card", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/cards/999/balance", s.userToken, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/cards/abc", s.userToken, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", decodeError(t, rec).Code)
	})

	t.Run("get card masks number", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/cards/"+itoa(active.ID), s.userToken, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.CardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "**** **** **** 0002", resp.Number)
		assert.Equal(t, "2031-01-31", resp.ExpirationDate)
	})

	t.Run("user cannot change status", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/cards/"+itoa(active.ID)+"/status", s.userToken, `{"status":"BLOCKED"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin blocks card", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/cards/"+itoa(active.ID)+"/status", s.adminToken, `{"status":"blocked"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.CardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "BLOCKED", resp.Status)
	})

	t.Run("status unchanged", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/cards/"+itoa(blocked.ID)+"/status", s.adminToken, `{"status":"BLOCKED"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ILLEGAL_TRANSITION", decodeError(t, rec).Code)
	})

	t.Run("expired card is terminal", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/cards/"+itoa(expired.ID)+"/status", s.adminToken, `{"status":"ACTIVE"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ILLEGAL_TRANSITION", decodeError(t, rec).Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/cards/"+itoa(blocked.ID)+"/status", s.adminToken, `{"status":"EXPIRED"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_STATUS", decodeError(t, rec).Code)
	})
}

func TestCreateAndDeleteCard(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()
	body := `{"owner_id":"` + owner.String() + `","balance":"25.50","expiration_date":"2030-06-30"}`

	rec := s.do(http.MethodPost, "/api/cards", s.userToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/cards", s.adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created handler.CardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.Number, 16)
	assert.Equal(t, "ACTIVE", created.Status)
	assert.Equal(t, "25.50", created.Balance)

	rec = s.do(http.MethodPost, "/api/cards", s.adminToken, `{"owner_id":"`+owner.String()+`","expiration_date":"30/06/2030"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/cards/"+itoa(created.ID), s.adminToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/cards/"+itoa(created.ID), s.adminToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUserCards(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "4000000000000002", 1, model.CardStatusActive, s.userID, future)
	s.seed(t, "4000000000000010", 1, model.CardStatusBlocked, s.userID, future)
	s.seed(t, "4000000000000028", 1, model.CardStatusActive, uuid.New(), future)

	rec := s.do(http.MethodGet, "/api/users/"+s.userID.String()+"/cards?status=active", s.userToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page handler.CardPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.Size)

	rec = s.do(http.MethodGet, "/api/users/"+uuid.NewString()+"/cards", s.userToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/users/"+s.userID.String()+"/cards?page=-1", s.adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/users/"+s.userID.String()+"/cards?size=1", s.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
}

func TestRunSweepEndpoint(t *testing.T) {
	s := newTestServer(t)
	card := s.seed(t, "4000000000000002", 90, model.CardStatusActive, s.userID, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	rec := s.do(http.MethodPost, "/api/admin/sweeps", s.userToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/sweeps", s.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.SweepResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Expired)

	stored, _, err := s.store.Cards().FindByID(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusExpired, stored.Status)
	assert.True(t, stored.Balance.IsZero())
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
