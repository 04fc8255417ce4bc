// Package httpapi exposes the marketplace over JSON HTTP with gin.
package httpapi

import (
	"database/sql"
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"eden/internal/auth"
	"eden/internal/checkout"
	"eden/internal/moderation"
	"eden/internal/payment"
	"eden/internal/store"
	"eden/internal/upload"
)

// Deps are the collaborators the handlers call into. Payments may be nil.
type Deps struct {
	SQL          *sql.DB
	Postings     *moderation.Engine
	Applications *moderation.Applications
	Checkout     *checkout.Service
	Users        *store.Users
	Audit        *store.Audit
	Uploads      *upload.Store
	Tokens       *auth.Issuer
	Payments     *payment.Client

	SessionSecret string
	PublicBaseURL string
	Log           *slog.Logger
}

type handler struct {
	Deps
}

func init() {
	// the session cart is stored gob-encoded in the cookie
	gob.Register(map[string]int{})
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	sessStore := cookie.NewStore([]byte(d.SessionSecret))
	sessStore.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("mp_session", sessStore))

	r.Static("/uploads", d.Uploads.Dir())

	r.GET("/health", h.health)

	a := r.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/login", h.login)

	requireAuth := auth.RequireAuth(d.Tokens)
	optionalAuth := auth.OptionalAuth(d.Tokens)

	r.GET("/users/me", requireAuth, h.me)

	req := r.Group("/requests")
	req.GET("/approved", h.listApproved(""))
	req.GET("/jobs/approved", h.listApproved("job_listing"))
	req.GET("/services/approved", h.listApproved("service_avail"))
	req.GET("/my", requireAuth, h.listMine)
	req.GET("/pending", requireAuth, h.listPending)
	req.POST("/create", requireAuth, h.createPosting)
	req.GET("/:id", optionalAuth, h.getPosting)
	req.PUT("/:id", requireAuth, h.updatePosting)
	req.DELETE("/:id", requireAuth, h.deletePosting)
	req.POST("/:id/approve", requireAuth, h.approvePosting)
	req.POST("/:id/reject", requireAuth, h.rejectPosting)
	req.GET("/:id/applications", requireAuth, h.listApplications)

	r.POST("/applications/submit", h.submitApplication)
	r.POST("/applications/:id/accept", requireAuth, h.acceptApplication)
	r.POST("/applications/:id/reject", requireAuth, h.rejectApplication)

	r.GET("/cart", h.viewCart)
	r.POST("/cart/add", h.addToCart)
	r.POST("/cart/update", h.updateCart)
	r.POST("/cart/remove", h.removeFromCart)
	r.POST("/orders/checkout", h.checkout)
	r.POST("/paymongo/gcash", h.gcash)

	adm := r.Group("/admin", requireAuth, auth.RequireAdmin())
	adm.GET("/postings", h.adminPostings)
	adm.GET("/postings/:id", h.adminPosting)

	return r
}

func (h *handler) health(c *gin.Context) {
	if err := h.SQL.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
