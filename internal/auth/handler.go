package auth

import (
	"net/http"
	"net/mail"

	"github.com/gofiber/fiber/v2"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
)

// Handler exposes registration, verification and credential endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func httpError(err error) error {
	return fiber.NewError(apperr.HTTPStatus(err), apperr.Message(err))
}

type registerRequest struct {
	MobileNumber string `json:"mobile_number"`
	CountryCode  string `json:"country_code"`
}

// Register starts mobile verification for a new account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.MobileNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile_number is required")
	}
	acct, err := h.svc.StartVerification(c.UserContext(), req.MobileNumber, req.CountryCode)
	if err != nil {
		return httpError(err)
	}
	// The OTP itself never travels over this channel.
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":    "verification message sent",
		"account_id": acct.ID,
	})
}

type resendRequest struct {
	AccountID string `json:"account_id"`
}

// Resend replaces the live token and re-sends the code.
func (h *Handler) Resend(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountID == "" {
		return fiber.NewError(http.StatusBadRequest, "account_id is required")
	}
	if err := h.svc.ResendVerification(c.UserContext(), req.AccountID); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "verification message sent"})
}

type verifyRequest struct {
	MobileNumber string `json:"mobile_number"`
	OTP          string `json:"otp"`
}

// Verify confirms the submitted OTP and marks the mobile number verified.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.MobileNumber == "" || req.OTP == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile_number and otp are required")
	}
	if err := h.svc.VerifyMobile(c.UserContext(), req.MobileNumber, req.OTP); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "mobile number verified successfully"})
}

type createAccountRequest struct {
	MobileNumber string `json:"mobile_number"`
	PIN          string `json:"pin"`
	ConfirmPIN   string `json:"confirm_pin"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MxeTag       string `json:"mxe_tag"`
	BVN          string `json:"bvn"`
}

type accountResponse struct {
	ID              string `json:"id"`
	MobileNumber    string `json:"mobile_number"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	MxeTag          string `json:"mxe_tag"`
	Role            string `json:"role"`
	MobileVerified  bool   `json:"is_mobile_verified"`
	AccountVerified bool   `json:"is_account_verified"`
}

func toAccountResponse(acct account.Account) accountResponse {
	return accountResponse{
		ID:              acct.ID,
		MobileNumber:    acct.MobileNumber,
		Email:           acct.Email,
		FirstName:       acct.FirstName,
		LastName:        acct.LastName,
		MxeTag:          acct.MxeTag,
		Role:            string(acct.Role),
		MobileVerified:  acct.MobileVerified,
		AccountVerified: acct.AccountVerified,
	}
}

// CreateAccount completes a verified registration with profile and PIN.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.MobileNumber == "" || req.PIN == "" || req.Email == "" || req.MxeTag == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile_number, pin, email and mxe_tag are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fiber.NewError(http.StatusBadRequest, "email is not valid")
	}
	acct, err := h.svc.CompleteProfile(c.UserContext(), CompleteProfileInput{
		MobileNumber: req.MobileNumber,
		PIN:          req.PIN,
		ConfirmPIN:   req.ConfirmPIN,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MxeTag:       req.MxeTag,
		BVN:          req.BVN,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "account created",
		"account": toAccountResponse(acct),
	})
}

// TagCheck reports whether an mxe tag is still free.
func (h *Handler) TagCheck(c *fiber.Ctx) error {
	tag := c.Params("tag")
	if tag == "" {
		return fiber.NewError(http.StatusBadRequest, "tag is required")
	}
	available, err := h.svc.TagAvailable(c.UserContext(), tag)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"tag": tag, "available": available})
}

type loginRequest struct {
	MobileNumber string `json:"mobile_number"`
	PIN          string `json:"pin"`
}

// Login validates the PIN and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.MobileNumber == "" || req.PIN == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile_number and pin are required")
	}
	token, acct, err := h.svc.Login(c.UserContext(), req.MobileNumber, req.PIN)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"expires_in":   int64(h.svc.issuer.TTL().Seconds()),
		"account_id":   acct.ID,
	})
}

type federatedRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Federated logs in an identity already attested by an external provider.
// The surrounding gateway has verified the provider assertion before this
// endpoint is reached.
func (h *Handler) Federated(c *fiber.Ctx) error {
	var req federatedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}
	token, acct, err := h.svc.FederatedLogin(c.UserContext(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"expires_in":   int64(h.svc.issuer.TTL().Seconds()),
		"account_id":   acct.ID,
	})
}

type changePinRequest struct {
	OldPIN string `json:"old_pin"`
	NewPIN string `json:"new_pin"`
}

// ChangePin replaces the caller's PIN after verifying the old one.
func (h *Handler) ChangePin(c *fiber.Ctx) error {
	email, _ := c.Locals("email").(string)
	if email == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing session identity")
	}
	var req changePinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.OldPIN == "" || req.NewPIN == "" {
		return fiber.NewError(http.StatusBadRequest, "old_pin and new_pin are required")
	}
	if err := h.svc.ChangePin(c.UserContext(), email, req.OldPIN, req.NewPIN); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "account pin changed successfully"})
}

type makeAdminRequest struct {
	Email string `json:"email"`
}

// MakeAdmin elevates the target account to the ADMIN role.
func (h *Handler) MakeAdmin(c *fiber.Ctx) error {
	var req makeAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}
	if err := h.svc.ElevateAdmin(c.UserContext(), req.Email); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "account updated to admin"})
}

type updateDetailsRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MxeTag    string `json:"mxe_tag"`
}

// UpdateDetails patches the caller's profile fields.
func (h *Handler) UpdateDetails(c *fiber.Ctx) error {
	email, _ := c.Locals("email").(string)
	if email == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing session identity")
	}
	var req updateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.svc.UpdateDetails(c.UserContext(), email, account.DetailsPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		MxeTag:    req.MxeTag,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(acct))
}
