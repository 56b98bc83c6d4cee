package server

import (
	"techsparks/internal/middleware"
	"techsparks/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and start a cookie session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Registration"
// @Success 201 {object} object{success=bool,message=string,user=models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name" form:"name"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, raw, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, raw, s.config.IsProduction())
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message": "User registered successfully!",
		"user":    user.Public(),
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password; sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{success=bool,message=string,user=models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, raw, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, raw, s.config.IsProduction())
	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "User successfully logged in!",
		"user":    user.Public(),
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, s.config.IsProduction())
	return message(c, fiber.StatusOK, "Logged out!")
}

// SendVerifyOTP handles POST /api/auth/send-verify-otp
// @Summary Email a verification code
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/send-verify-otp [post]
func (s *Server) SendVerifyOTP(c *fiber.Ctx) error {
	if err := s.authService.SendVerifyOTP(c.UserContext(), middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Verification OTP sent to email")
}

// VerifyAccount handles POST /api/auth/verify-account
// @Summary Verify the account email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{otp=string} true "Code from the email"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/verify-account [post]
func (s *Server) VerifyAccount(c *fiber.Ctx) error {
	var req struct {
		OTP string `json:"otp" form:"otp"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.authService.VerifyEmail(c.UserContext(), middleware.CurrentUserID(c), req.OTP); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Email verified successfully!")
}

// IsAuthenticated handles GET /api/auth/is-auth
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/is-auth [get]
func (s *Server) IsAuthenticated(c *fiber.Ctx) error {
	user, err := s.authService.IsAuthenticated(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"user": user})
}

// SendResetOTP handles POST /api/auth/send-reset-otp
// @Summary Email a password reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/send-reset-otp [post]
func (s *Server) SendResetOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" form:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.authService.SendResetOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "OTP sent to your email!")
}

// ResetPassword handles POST /api/auth/reset-password
// @Summary Reset the password with an emailed code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,otp=string,newPassword=string} true "Reset request"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/reset-password [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email" form:"email"`
		OTP         string `json:"otp" form:"otp"`
		NewPassword string `json:"newPassword" form:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	err := s.authService.ResetPassword(c.UserContext(), service.ResetPasswordInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Password has been reset successfully!")
}

// GetUserData handles GET /api/user/data
// @Summary Profile summary of the session user
// @Tags users
// @Produce json
// @Success 200 {object} object{success=bool,userData=models.UserData}
// @Failure 401 {object} models.ErrorResponse
// @Router /user/data [get]
func (s *Server) GetUserData(c *fiber.Ctx) error {
	data, err := s.authService.UserData(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"userData": data})
}
