// README: Rider and driver account handlers (register, login, profile, logout).
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ryde/internal/http/middleware"
	"ryde/internal/modules/identity"
	"ryde/internal/types"
)

type AccountService interface {
	Register(ctx context.Context, cmd identity.RegisterCommand) (*identity.Session, error)
	Login(ctx context.Context, role types.Role, email, password string) (*identity.Session, error)
	Profile(ctx context.Context, p types.Principal) (*identity.Account, error)
	Logout(ctx context.Context, token string) error
}

// AccountHandler serves one role; riders and drivers get separate instances.
type AccountHandler struct {
	accounts     AccountService
	role         types.Role
	secureCookie bool
	log          *zap.Logger
}

func NewAccountHandler(svc AccountService, role types.Role, secureCookie bool, log *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: svc, role: role, secureCookie: secureCookie, log: log}
}

type vehicleReq struct {
	Color       string `json:"color" binding:"required,min=3"`
	Plate       string `json:"plate" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	VehicleType string `json:"vehicleType" binding:"required"`
}

type registerReq struct {
	FullName struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName"`
	} `json:"fullname"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,min=8"`
	Phone       string      `json:"phone"`
	DeviceToken string      `json:"deviceToken"`
	Vehicle     *vehicleReq `json:"vehicle"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerReq
	if !bindJSON(c, &req) {
		return
	}
	cmd := identity.RegisterCommand{
		Role:        h.role,
		Name:        identity.FullName{First: req.FullName.FirstName, Last: req.FullName.LastName},
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		DeviceToken: req.DeviceToken,
	}
	if req.Vehicle != nil {
		cmd.Vehicle = &identity.Vehicle{
			Color:    req.Vehicle.Color,
			Plate:    req.Vehicle.Plate,
			Capacity: req.Vehicle.Capacity,
			Type:     types.VehicleType(req.Vehicle.VehicleType),
		}
	}
	sess, err := h.accounts.Register(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.setCookie(c, sess.Token, sess.ExpiresAt)
	writeJSON(c, http.StatusCreated, newSessionView(sess))
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginReq
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), h.role, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.setCookie(c, sess.Token, sess.ExpiresAt)
	writeJSON(c, http.StatusOK, newSessionView(sess))
}

func (h *AccountHandler) Profile(c *gin.Context) {
	a, err := h.accounts.Profile(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, newAccountView(a))
}

func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	writeJSON(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AccountHandler) setCookie(c *gin.Context, token string, exp time.Time) {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", h.secureCookie, true)
}

func newSessionView(s *identity.Session) sessionView {
	return sessionView{Token: s.Token, ExpiresAt: s.ExpiresAt, Account: newAccountView(s.Account)}
}
