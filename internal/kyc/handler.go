package kyc

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

const (
	defaultPageSize = 20
	maxUploadBytes  = 5 << 20
)

// Handler exposes the verification endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a KYC HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func httpError(err error) error {
	return fiber.NewError(apperr.HTTPStatus(err), apperr.Message(err))
}

// Request accepts a multipart submission with the ID-card image and BVN.
func (h *Handler) Request(c *fiber.Ctx) error {
	email, _ := c.Locals("email").(string)
	if email == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing session identity")
	}

	bvn := c.FormValue("bvn")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(http.StatusBadRequest, "file exceeds the upload limit")
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageType(contentType) {
		return fiber.NewError(http.StatusBadRequest, "file must be a png or jpeg image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file could not be read")
	}
	defer file.Close()

	err = h.svc.RequestVerification(c.UserContext(), email, bvn, Document{
		Name:        fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "your account is being reviewed"})
}

type approveRequest struct {
	AccountEmail string `json:"account_email"`
}

// Approve marks a pending account as verified.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountEmail == "" {
		return fiber.NewError(http.StatusBadRequest, "account_email is required")
	}
	if err := h.svc.Approve(c.UserContext(), req.AccountEmail); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "account has been verified"})
}

type pendingVerification struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ListPending pages over accounts awaiting review.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", defaultPageSize)

	result, err := h.svc.ListPending(c.UserContext(), page, pageSize)
	if err != nil {
		return httpError(err)
	}

	out := make([]pendingVerification, 0, len(result.Pending))
	for _, v := range result.Pending {
		out = append(out, pendingVerification{
			AccountID: v.AccountID,
			Status:    string(v.Status),
			CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt: v.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"pendingVerifications": out,
		"currentPage":          result.Page,
		"pageSize":             result.PageSize,
	})
}

func allowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/png", "image/jpeg", "image/jpg":
		return true
	default:
		return false
	}
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
