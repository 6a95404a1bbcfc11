package handlers

import (
	"errors"
	"time"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
	// EchoOTP returns issued codes in the response body. Off in production.
	EchoOTP      bool
	SecureCookie bool
}

func (h *AuthHandler) setSession(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(h.Auth.SessionTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookie,
	})
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookie,
	})
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "auth.otp.send", err)
	}
	otp, err := h.Auth.SendOTP(c.UserContext(), req.Mobile)
	if err != nil {
		return respondError(c, "auth.otp.send", err)
	}
	resp := fiber.Map{"success": true, "message": "OTP sent successfully"}
	if h.EchoOTP {
		applog.Info(c, "auth.otp.demo", map[string]any{"mobile": req.Mobile, "otp": otp})
		resp["otp"] = otp
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "auth.otp.verify", err)
	}
	login, err := h.Auth.VerifyOTP(c.UserContext(), req.Mobile, req.OTP)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Student not found"})
	case errors.Is(err, services.ErrInvalidOTP):
		applog.Security(c, "auth.otp.fail", map[string]any{"mobile": req.Mobile, "reason": "mismatch"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid OTP"})
	case errors.Is(err, services.ErrOTPExpired):
		applog.Security(c, "auth.otp.fail", map[string]any{"mobile": req.Mobile, "reason": "expired"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "OTP expired"})
	case err != nil:
		return respondError(c, "auth.otp.verify", err)
	}
	h.setSession(c, login.SID)
	c.Locals("owner", login.User.OwnerTag())
	applog.Audit(c, "auth.login", map[string]any{"role": login.User.Role})
	return c.JSON(fiber.Map{"success": true, "user": login.User, "needsProfileUpdate": login.NeedsProfileUpdate})
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "auth.admin.login", err)
	}
	res, err := h.Auth.AdminLogin(c.UserContext(), req.Mobile, req.Password, req.OTP)
	switch {
	case errors.Is(err, services.ErrBadCreds):
		applog.Security(c, "auth.admin.fail", map[string]any{"mobile": req.Mobile, "reason": "credentials"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	case errors.Is(err, services.ErrInvalidOTP), errors.Is(err, services.ErrOTPExpired):
		applog.Security(c, "auth.admin.fail", map[string]any{"mobile": req.Mobile, "reason": "otp"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid or expired OTP"})
	case err != nil:
		return respondError(c, "auth.admin.login", err)
	}

	if res.OTPRequired {
		resp := fiber.Map{"success": true, "otpRequired": true}
		if h.EchoOTP {
			applog.Info(c, "auth.otp.demo", map[string]any{"mobile": req.Mobile, "otp": res.OTP})
			resp["otp"] = res.OTP
		}
		return c.JSON(resp)
	}
	h.setSession(c, res.Session.SID)
	c.Locals("owner", res.Session.User.OwnerTag())
	applog.Audit(c, "auth.login", map[string]any{"role": res.Session.User.Role})
	return c.JSON(fiber.Map{"success": true, "user": res.Session.User})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
	}
	return c.JSON(u)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	if u.Role != domain.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Only students can update profile"})
	}
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "auth.profile", err)
	}
	if req.Name != nil {
		n, ok := validate.Name(*req.Name)
		if !ok {
			return respondError(c, "auth.profile", domain.Invalid("name", "must be 1 to 60 characters"))
		}
		req.Name = &n
	}
	updated, err := h.Auth.UpdateProfile(c.UserContext(), u, req.Name, req.Email)
	if err != nil {
		return respondError(c, "auth.profile", err)
	}
	applog.Audit(c, "auth.profile", nil)
	return c.JSON(fiber.Map{"success": true, "user": updated})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), c.Cookies(sessionCookie)); err != nil {
		return respondError(c, "auth.logout", err)
	}
	h.clearSession(c)
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	if !u.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Only admins can change password"})
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "auth.password", err)
	}
	if !validate.Password(req.NewPassword) {
		return respondError(c, "auth.password", domain.Invalid("newPassword",
			"must be 8-64 characters with upper and lower case letters, a digit and a symbol"))
	}
	err := h.Auth.ChangePassword(c.UserContext(), u, req.OldPassword, req.NewPassword)
	if errors.Is(err, services.ErrBadOldPass) {
		applog.Security(c, "auth.password.fail", nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Current password is incorrect"})
	}
	if err != nil {
		return respondError(c, "auth.password", err)
	}
	applog.Audit(c, "auth.password", nil)
	return c.JSON(fiber.Map{"success": true, "message": "Password changed successfully"})
}
