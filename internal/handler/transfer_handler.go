package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bankcards/internal/service"
)

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferService service.TransferService
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// TransferRequest represents a transfer request.
type TransferRequest struct {
	FromCardNumber string `json:"from_card_number" validate:"required,len=16,numeric"`
	ToCardNumber   string `json:"to_card_number" validate:"required,len=16,numeric"`
	Amount         string `json:"amount" validate:"required"`
}

// Transfer godoc
// @Summary Transfer funds between two cards
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer data"
// @Success 200 {object} TransferResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /transactions [post]
func (h *TransferHandler) Transfer(c echo.Context) error {
	var req TransferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		return err
	}

	record, err := h.transferService.Transfer(c.Request().Context(), req.FromCardNumber, req.ToCardNumber, amount)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, newTransferResponse(record))
}

// ListCardTransactions godoc
// @Summary List transfers touching a card, oldest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param cardNumber path string true "Card number"
// @Success 200 {array} TransferResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions/{cardNumber} [get]
func (h *TransferHandler) ListCardTransactions(c echo.Context) error {
	records, err := h.transferService.TransactionsForCard(c.Request().Context(), c.Param("cardNumber"))
	if err != nil {
		return fail(err)
	}

	resp := make([]TransferResponse, 0, len(records))
	for i := range records {
		resp = append(resp, newTransferResponse(&records[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
