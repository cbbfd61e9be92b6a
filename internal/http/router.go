// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ryde/internal/http/handlers"
	"ryde/internal/http/middleware"
	"ryde/internal/maps"
	"ryde/internal/types"
)

// Accounts serves the account endpoints and authenticates tokens.
type Accounts interface {
	handlers.AccountService
	middleware.Authenticator
}

type Deps struct {
	Accounts     Accounts
	Rides        handlers.RideService
	OTP          handlers.OTPDelivery
	Routes       maps.Router
	Places       handlers.Places
	Log          *zap.Logger
	CORSOrigins  []string
	SecureCookie bool
}

// NewRouter fails only if the request validators cannot be registered.
func NewRouter(d Deps) (*gin.Engine, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logging(log),
		middleware.Metrics(),
		cors.New(corsConfig(d.CORSOrigins)),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Auth(d.Accounts)
	api := r.Group("/api")

	for _, role := range []types.Role{types.RoleRider, types.RoleDriver} {
		h := handlers.NewAccountHandler(d.Accounts, role, d.SecureCookie, log)
		g := api.Group("/" + string(role) + "s")
		g.POST("/register", h.Register)
		g.POST("/login", h.Login)
		g.GET("/profile", auth, middleware.RequireRole(role), h.Profile)
		g.POST("/logout", auth, middleware.RequireRole(role), h.Logout)
	}

	mh := handlers.NewMapHandler(d.Routes, d.Places, log)
	mg := api.Group("/maps", auth)
	mg.GET("/coordinates", mh.Coordinates)
	mg.GET("/distance-time", mh.DistanceTime)
	mg.GET("/suggestions", mh.Suggestions)

	rh := handlers.NewRideHandler(d.Rides, d.OTP, log)
	rg := api.Group("/rides", auth)
	rider := middleware.RequireRole(types.RoleRider)
	driver := middleware.RequireRole(types.RoleDriver)
	rg.POST("", rider, rh.Create)
	rg.GET("", rider, rh.List)
	rg.GET("/fare", rider, rh.Fare)
	rg.GET("/:id", rh.Get)
	rg.POST("/:id/confirm", driver, rh.Confirm)
	rg.POST("/:id/otp", driver, rh.SendOTP)
	rg.POST("/:id/start", driver, rh.Start)
	rg.POST("/:id/end", driver, rh.End)

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// Credentials cannot be combined with a literal wildcard origin.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
