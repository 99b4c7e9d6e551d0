package wallet

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

const defaultPageSize = 20

// Handler exposes the wallet endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a wallet HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func httpError(err error) error {
	return fiber.NewError(apperr.HTTPStatus(err), apperr.Message(err))
}

func sessionEmail(c *fiber.Ctx) (string, error) {
	email, _ := c.Locals("email").(string)
	if email == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "missing session identity")
	}
	return email, nil
}

type walletResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

func toWalletResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		AccountID: w.AccountID,
		Email:     w.Email,
		Balance:   w.Balance,
		Currency:  w.Currency,
		CreatedAt: w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Create provisions a wallet for the authenticated account.
func (h *Handler) Create(c *fiber.Ctx) error {
	email, err := sessionEmail(c)
	if err != nil {
		return err
	}
	w, err := h.svc.Create(c.UserContext(), email)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
}

// Details returns the wallet with the owner's public profile.
func (h *Handler) Details(c *fiber.Ctx) error {
	email, err := sessionEmail(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Details(c.UserContext(), email)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet":     toWalletResponse(d.Wallet),
		"mxe_tag":    d.MxeTag,
		"first_name": d.FirstName,
		"last_name":  d.LastName,
	})
}

type transactionResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
	Amount    int64  `json:"amount"`
	Narration string `json:"narration"`
	CreatedAt string `json:"created_at"`
}

func toTransactionResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		Reference: tx.Reference,
		Kind:      tx.Kind,
		Amount:    tx.Amount,
		Narration: tx.Narration,
		CreatedAt: tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Transactions pages over the wallet history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	email, err := sessionEmail(c)
	if err != nil {
		return err
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", defaultPageSize)

	result, err := h.svc.Transactions(c.UserContext(), email, page, pageSize)
	if err != nil {
		return httpError(err)
	}
	out := make([]transactionResponse, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		out = append(out, toTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": out,
		"currentPage":  result.Page,
		"pageSize":     result.PageSize,
	})
}

// Transaction returns one movement by id.
func (h *Handler) Transaction(c *fiber.Ctx) error {
	email, err := sessionEmail(c)
	if err != nil {
		return err
	}
	tx, err := h.svc.Transaction(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toTransactionResponse(tx))
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
