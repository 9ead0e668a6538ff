package accounts

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atlas-bank/atlas_core/internal/product"
)

// Handler exposes account and plan endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type openRequest struct {
	ProductCode string            `json:"product_code"`
	Parameters  map[string]string `json:"parameters"`
}

type accountResponse struct {
	AccountID   string `json:"account_id"`
	ProductCode string `json:"product_code"`
	PlanID      string `json:"plan_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type balanceEntry struct {
	Address      string `json:"address"`
	Asset        string `json:"asset"`
	Denomination string `json:"denomination"`
	Phase        string `json:"phase"`
	Amount       string `json:"amount"`
}

type createPlanRequest struct {
	SupervisorCode string `json:"supervisor_code"`
}

type attachRequest struct {
	AccountID string `json:"account_id"`
}

// Open creates a new account on a product.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.Open(c.UserContext(), req.ProductCode, req.Parameters)
	if err != nil {
		if errors.Is(err, product.ErrUnknownProduct) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}

// Get returns account metadata.
func (h *Handler) Get(c *fiber.Ctx) error {
	account, err := h.service.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toAccountResponse(account))
}

// Balances returns the live balance snapshot of an account.
func (h *Handler) Balances(c *fiber.Ctx) error {
	snapshot, err := h.service.Balances(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	entries := make([]balanceEntry, 0, len(snapshot))
	for coord, amount := range snapshot {
		entries = append(entries, balanceEntry{
			Address:      coord.Address,
			Asset:        coord.Asset,
			Denomination: coord.Denomination,
			Phase:        string(coord.Phase),
			Amount:       amount.String(),
		})
	}
	return c.JSON(fiber.Map{"balances": entries, "total": snapshot.Total().String()})
}

// Parameters returns the account's current parameter values.
func (h *Handler) Parameters(c *fiber.Ctx) error {
	values, err := h.service.Parameters(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"parameters": values})
}

// Derived returns the product's derived values for the account.
func (h *Handler) Derived(c *fiber.Ctx) error {
	values, err := h.service.Derived(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make(map[string]string, len(values))
	for name, value := range values {
		out[name] = value.String()
	}
	return c.JSON(fiber.Map{"derived": out})
}

// CreatePlan creates a supervisor plan.
func (h *Handler) CreatePlan(c *fiber.Ctx) error {
	var req createPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	plan, err := h.service.CreatePlan(c.UserContext(), req.SupervisorCode)
	if err != nil {
		if errors.Is(err, product.ErrUnknownProduct) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"plan_id":         plan.ID,
		"supervisor_code": plan.SupervisorCode,
	})
}

// Attach binds an account to a plan.
func (h *Handler) Attach(c *fiber.Ctx) error {
	var req attachRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.AttachToPlan(c.UserContext(), c.Params("planId"), req.AccountID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPlanNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

func toAccountResponse(account Account) accountResponse {
	return accountResponse{
		AccountID:   account.ID,
		ProductCode: account.ProductCode,
		PlanID:      account.PlanID,
		CreatedAt:   account.CreatedAt.Format(time.RFC3339),
	}
}
