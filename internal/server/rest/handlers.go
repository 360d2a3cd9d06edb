package rest

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/server/checkout"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

const bannerText = "ScholarStream server is running!"

func (s *HTTPServer) banner(c *fiber.Ctx) error {
	return c.SendString(bannerText)
}

func (s *HTTPServer) registerUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return s.writeError(c, common.ErrorValidation)
	}

	created, ok, err := s.users.Register(c.UserContext(), &user)
	if err != nil {
		return s.writeError(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"message": "user already exists", "insertedId": nil})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *HTTPServer) issueToken(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, common.ErrorValidation)
	}

	token, err := s.users.IssueToken(c.UserContext(), req.Email)
	if err != nil {
		return s.writeError(c, err)
	}

	s.setTokenCookie(c, token, time.Now().Add(s.users.TokenValidity()))
	return c.JSON(fiber.Map{"success": true})
}

func (s *HTTPServer) logout(c *fiber.Ctx) error {
	s.setTokenCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"success": true})
}

// setTokenCookie writes the identity cookie. Production deployments serve
// the client from another origin, hence SameSite=None with Secure.
func (s *HTTPServer) setTokenCookie(c *fiber.Ctx, value string, expires time.Time) {
	cookie := &fiber.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
	if s.production {
		cookie.Secure = true
		cookie.SameSite = fiber.CookieSameSiteNoneMode
	}
	c.Cookie(cookie)
}

func (s *HTTPServer) listScholarships(c *fiber.Ctx) error {
	filter := models.ScholarshipFilter{
		Category: c.Query("schCat"),
		Subject:  c.Query("subCat"),
		Location: c.Query("loc"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "limit must be a non-negative integer"})
		}
		filter.Limit = limit
	}

	list, err := s.scholarships.List(c.UserContext(), filter)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(list)
}

func (s *HTTPServer) getScholarship(c *fiber.Ctx) error {
	sch, err := s.scholarships.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(sch)
}

func (s *HTTPServer) createCheckoutSession(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return s.writeError(c, common.ErrorValidation)
	}

	url, err := s.payments.CreateCheckoutSession(c.UserContext(), in, authEmail(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (s *HTTPServer) confirmPayment(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, common.ErrorValidation)
	}

	res, err := s.payments.ConfirmPayment(c.UserContext(), req.SessionID, authEmail(c))
	if err != nil {
		return s.writeError(c, err)
	}

	message := "Payment confirmed"
	if res.Outcome == services.OutcomeAlreadyPaid {
		message = "Payment already confirmed"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": res.Application})
}

func (s *HTTPServer) listApplications(c *fiber.Ctx) error {
	apps, err := s.payments.ListApplications(c.UserContext(), authEmail(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(apps)
}

func (s *HTTPServer) receiptURL(c *fiber.Ctx) error {
	url, err := s.payments.ReceiptURL(c.UserContext(), c.Params("id"), authEmail(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// checkoutWebhook is called by the payment provider, never by the browser.
func (s *HTTPServer) checkoutWebhook(c *fiber.Ctx) error {
	res, err := s.payments.ReconcileWebhook(c.UserContext(), c.Body(), c.Get(checkout.SignatureHeader))
	if err != nil {
		return s.writeError(c, err)
	}

	body := fiber.Map{"received": true}
	if res != nil {
		body["outcome"] = res.Outcome
	}
	return c.JSON(body)
}
