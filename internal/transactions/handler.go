package transactions

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/accounts"
)

// Handler exposes the posting submission endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Type                string            `json:"type"`
	Amount              string            `json:"amount"`
	Denomination        string            `json:"denomination"`
	ClientTransactionID string            `json:"client_transaction_id"`
	Details             map[string]string `json:"details"`
}

type rejectionResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Submit handles a posting submission against an account.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	postingType, err := ParseType(req.Type)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	if !amount.IsPositive() {
		return fiber.NewError(http.StatusBadRequest, "amount must be positive")
	}

	result, err := h.service.Submit(c.UserContext(), Submission{
		AccountID:           c.Params("accountId"),
		Type:                postingType,
		Amount:              amount,
		Denomination:        req.Denomination,
		ClientTransactionID: req.ClientTransactionID,
		Details:             req.Details,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	if !result.Accepted {
		return c.Status(http.StatusUnprocessableEntity).JSON(rejectionResponse{
			Reason:  string(result.Rejection.Reason),
			Message: result.Rejection.Message,
		})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"batch_id": result.BatchID})
}
