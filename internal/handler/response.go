package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"bankcards/internal/errors"
	"bankcards/internal/model"
	"bankcards/internal/service"
)

const dateLayout = "2006-01-02"

// CardResponse represents a card. Number is masked unless the card was just created.
type CardResponse struct {
	ID             uint64 `json:"id"`
	Number         string `json:"number"`
	Status         string `json:"status"`
	Balance        string `json:"balance"`
	ExpirationDate string `json:"expiration_date"`
	OwnerID        string `json:"owner_id"`
}

func newCardResponse(card *model.Card, revealNumber bool) CardResponse {
	number := service.MaskCardNumber(card.Number)
	if revealNumber {
		number = card.Number
	}
	return CardResponse{
		ID:             card.ID,
		Number:         number,
		Status:         string(card.Status),
		Balance:        card.Balance.StringFixed(2),
		ExpirationDate: card.ExpirationDate.Format(dateLayout),
		OwnerID:        card.OwnerID.String(),
	}
}

// TransferResponse represents a ledger entry.
type TransferResponse struct {
	ID             uint64    `json:"id"`
	FromCardNumber string    `json:"from_card_number"`
	ToCardNumber   string    `json:"to_card_number"`
	Amount         string    `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func newTransferResponse(record *model.TransferRecord) TransferResponse {
	return TransferResponse{
		ID:             record.ID,
		FromCardNumber: service.MaskCardNumber(record.FromCardNumber),
		ToCardNumber:   service.MaskCardNumber(record.ToCardNumber),
		Amount:         record.Amount.StringFixed(2),
		CreatedAt:      record.CreatedAt,
	}
}

// fail converts a service error into an echo HTTP error with the standard body.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bindAndValidate binds the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}
	return nil
}

func parseID(c echo.Context, param string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid "+param, "INVALID_ID")
	}
	return id, nil
}
