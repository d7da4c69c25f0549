package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"bankcards/internal/auth"
	"bankcards/internal/errors"
	"bankcards/internal/service"
)

// CardHandler handles card endpoints.
type CardHandler struct {
	cardService service.CardService
}

// NewCardHandler creates a new card handler.
func NewCardHandler(cardService service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// CreateCardRequest represents a card creation request.
type CreateCardRequest struct {
	OwnerID        string `json:"owner_id" validate:"required,uuid"`
	Number         string `json:"number" validate:"omitempty,len=16,numeric"`
	Status         string `json:"status" validate:"omitempty"`
	Balance        string `json:"balance" validate:"omitempty"`
	ExpirationDate string `json:"expiration_date" validate:"required,datetime=2006-01-02"`
}

// StatusChangeRequest represents a card status change request.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// BalanceResponse represents a card balance.
type BalanceResponse struct {
	CardID  uint64 `json:"card_id"`
	Balance string `json:"balance"`
}

// CardPageResponse represents one page of cards.
type CardPageResponse struct {
	Items []CardResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// CreateCard godoc
// @Summary Create a card
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCardRequest true "Card data"
// @Success 201 {object} CardResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards [post]
func (h *CardHandler) CreateCard(c echo.Context) error {
	var req CreateCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return badRequest("invalid owner_id", "INVALID_UUID")
	}
	expires, err := time.Parse(dateLayout, req.ExpirationDate)
	if err != nil {
		return badRequest("invalid expiration_date", "INVALID_DATE")
	}
	balance := decimal.Zero
	if req.Balance != "" {
		balance, err = parseMoney(req.Balance)
		if err != nil {
			return err
		}
	}

	card, err := h.cardService.CreateCard(c.Request().Context(), service.CreateCardInput{
		OwnerID:        ownerID,
		Number:         req.Number,
		Status:         req.Status,
		Balance:        balance,
		ExpirationDate: expires,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, newCardResponse(card, true))
}

// GetCard godoc
// @Summary Get a card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} CardResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id} [get]
func (h *CardHandler) GetCard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	card, err := h.cardService.GetCard(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, newCardResponse(card, false))
}

// GetBalance godoc
// @Summary Get the balance of an active card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id}/balance [get]
func (h *CardHandler) GetBalance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	balance, err := h.cardService.Balance(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{CardID: id, Balance: balance.StringFixed(2)})
}

// ChangeStatus godoc
// @Summary Block or activate a card
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Param request body StatusChangeRequest true "Requested status (ACTIVE or BLOCKED)"
// @Success 200 {object} CardResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id}/status [patch]
func (h *CardHandler) ChangeStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req StatusChangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	card, err := h.cardService.ChangeStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, newCardResponse(card, false))
}

// DeleteCard godoc
// @Summary Delete a card
// @Tags cards
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.cardService.DeleteCard(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserCards godoc
// @Summary List a user's cards
// @Description Users may only list their own cards.
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param search query string false "Card number fragment"
// @Param status query string false "ACTIVE, BLOCKED or EXPIRED"
// @Param page query int false "Zero based page"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} CardPageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{userId}/cards [get]
func (h *CardHandler) ListUserCards(c echo.Context) error {
	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return badRequest("invalid userId", "INVALID_UUID")
	}

	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{Error: "missing or invalid token", Code: "UNAUTHORIZED"})
	}
	if claims.Role != auth.RoleAdmin {
		if subject, err := claims.UserID(); err != nil || subject != ownerID {
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{Error: "cannot list cards of another user", Code: "FORBIDDEN"})
		}
	}

	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return err
	}

	result, err := h.cardService.ListOwnerCards(c.Request().Context(), ownerID, service.CardListFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return fail(err)
	}

	items := make([]CardResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, newCardResponse(&result.Items[i], false))
	}
	return c.JSON(http.StatusOK, CardPageResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Size:  result.Size,
	})
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, badRequest("invalid "+name, "INVALID_QUERY")
	}
	return v, nil
}

// parseMoney parses an amount with at most two decimal places. Sign checks are left to the services.
func parseMoney(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.Equal(amount.Round(2)) {
		return decimal.Zero, badRequest("invalid amount: at most two decimal places", "INVALID_AMOUNT")
	}
	return amount, nil
}
