// Command consoleauth-demo runs a minimal server-mediated console shell
// against a real authentication backend: a login form driving the engine's
// multi-step flow, role-gated dashboard routes, and a session management
// screen. Configuration comes from the environment (CONSOLEAUTH_* keys).
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/hostwire/consoleauth"
	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/routeguard"
	"github.com/hostwire/consoleauth/session"
)

type settings struct {
	listenAddr     string
	backendURL     string
	gatewayTimeout time.Duration
	sessionDBPath  string
	auditLog       bool
}

func loadSettings() settings {
	v := viper.New()
	v.SetEnvPrefix("consoleauth")
	v.AutomaticEnv()
	v.SetDefault("listen_addr", ":8473")
	v.SetDefault("backend_url", "http://localhost:9000")
	v.SetDefault("gateway_timeout", "15s")
	v.SetDefault("session_db", "./consoleauth-demo.db")
	v.SetDefault("audit_log", true)

	return settings{
		listenAddr:     v.GetString("listen_addr"),
		backendURL:     v.GetString("backend_url"),
		gatewayTimeout: v.GetDuration("gateway_timeout"),
		sessionDBPath:  v.GetString("session_db"),
		auditLog:       v.GetBool("audit_log"),
	}
}

func main() {
	cfg := loadSettings()

	durable, err := session.OpenSQLite(cfg.sessionDBPath, "demo-shell")
	if err != nil {
		log.Fatalf("opening session store: %v", err)
	}
	defer durable.Close()

	builder := consoleauth.New().
		WithBaseURL(cfg.backendURL).
		WithDurableStorage(durable)
	if cfg.auditLog {
		builder.WithAuditSink(consoleauth.NewJSONWriterSink(log.Writer()))
	}
	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("building auth engine: %v", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.gatewayTimeout)
	if _, err := engine.Hydrate(ctx); err != nil {
		// Unreachable backend at startup is not fatal; guards answer
		// retryable placeholders until a later hydration settles the state.
		log.Printf("session hydration unresolved: %v", err)
	}
	cancel()

	router := gin.Default()
	registerRoutes(router, engine)

	log.Printf("console shell listening on %s (backend %s)", cfg.listenAddr, cfg.backendURL)
	if err := router.Run(cfg.listenAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func registerRoutes(router *gin.Engine, engine *consoleauth.Engine) {
	paths := routeguard.DefaultPaths()

	router.POST("/login", func(c *gin.Context) { handleLogin(c, engine) })
	router.POST("/login/2fa", func(c *gin.Context) { handleTwoFactor(c, engine) })
	router.POST("/logout", func(c *gin.Context) {
		engine.Logout(c.Request.Context())
		c.Redirect(http.StatusFound, paths.Login)
	})
	router.GET("/login", func(c *gin.Context) {
		c.String(http.StatusOK, "login form; phase=%s", engine.Phase())
	})
	router.GET(paths.Disabled, func(c *gin.Context) {
		c.String(http.StatusOK, "this account has been disabled")
	})
	router.GET(paths.Unauthorized, func(c *gin.Context) {
		c.String(http.StatusOK, "no dashboard for this account")
	})

	dashboard := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			identity, _ := routeguard.IdentityFromGin(c)
			c.String(http.StatusOK, "%s dashboard for %s (%s)", name, identity.FullName, identity.Role)
		}
	}
	router.GET("/admin",
		routeguard.GinGuard(engine, routeguard.RequireRoles(permission.RoleAdmin), paths),
		dashboard("admin"))
	router.GET("/corporate",
		routeguard.GinGuard(engine, routeguard.RequireRoles(permission.RoleCorporate), paths),
		dashboard("corporate"))
	router.GET("/dashboard",
		routeguard.GinGuard(engine, routeguard.RequireRoles(permission.RoleClient), paths),
		dashboard("client"))
	router.GET("/support",
		routeguard.GinGuard(engine, routeguard.RequireRoles(permission.RoleSupportAgent, permission.RoleSupportManager), paths),
		dashboard("support"))

	router.GET("/account/sessions",
		routeguard.GinGuard(engine, routeguard.Requirement{}, paths),
		func(c *gin.Context) {
			sessions, err := engine.ListSessions(c.Request.Context())
			if err != nil {
				c.String(http.StatusBadGateway, consoleauth.UserMessage(err))
				return
			}
			c.JSON(http.StatusOK, sessions)
		})
	router.DELETE("/account/sessions/:id",
		routeguard.GinGuard(engine, routeguard.Requirement{}, paths),
		func(c *gin.Context) {
			if err := engine.RevokeSession(c.Request.Context(), c.Param("id")); err != nil {
				c.String(http.StatusBadGateway, consoleauth.UserMessage(err))
				return
			}
			c.Status(http.StatusNoContent)
		})
}

func handleLogin(c *gin.Context, engine *consoleauth.Engine) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	remember := c.PostForm("remember") == "on"

	outcome, err := engine.Login(c.Request.Context(), email, password, remember)
	if err != nil {
		if errors.Is(err, consoleauth.ErrAttemptSuperseded) {
			c.Status(http.StatusConflict)
			return
		}
		c.String(http.StatusUnauthorized, consoleauth.UserMessage(err))
		return
	}

	switch outcome.Kind {
	case consoleauth.OutcomeTwoFactorRequired:
		c.String(http.StatusOK, "enter the code from your authenticator app")
	case consoleauth.OutcomeEnrollmentRequired:
		c.String(http.StatusOK, "scan the QR code to set up 2FA: %s", outcome.Enrollment.Secret)
	default:
		c.Redirect(http.StatusFound, outcome.RedirectPath)
	}
}

func handleTwoFactor(c *gin.Context, engine *consoleauth.Engine) {
	code := c.PostForm("code")

	var outcome *consoleauth.LoginOutcome
	var err error
	if engine.Phase() == consoleauth.PhaseTwoFactorEnrollment {
		outcome, err = engine.VerifyTwoFactorEnrollment(c.Request.Context(), code)
	} else {
		outcome, err = engine.CompleteTwoFactor(c.Request.Context(), code)
	}
	if err != nil {
		status := http.StatusUnauthorized
		if !consoleauth.IsTwoFactorError(err) {
			// Anything other than a wrong code means the flow restarted.
			status = http.StatusConflict
		}
		c.String(status, consoleauth.UserMessage(err))
		return
	}

	if outcome.Kind == consoleauth.OutcomeTwoFactorRequired {
		c.String(http.StatusOK, "enter the code from your authenticator app")
		return
	}
	c.Redirect(http.StatusFound, outcome.RedirectPath)
}
