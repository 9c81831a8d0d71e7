package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"dompet/models"
	"dompet/pkg/apperr"
	"dompet/pkg/attachment"
	"dompet/pkg/auth"
	"dompet/pkg/ledger"
	"dompet/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	refreshCookie     = "refreshToken"
	refreshCookiePath = "/auth"
	requestIDHeader   = "X-Request-ID"
	ctxUser           = "user"
)

// server holds the components the handlers call into.
type server struct {
	cfg    Config
	auth   *auth.Flow
	ledger *ledger.Ledger
	files  *attachment.Store
}

func newServer(cfg Config, gdb *gorm.DB) (*server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	users := store.NewUsers(gdb)
	files := attachment.NewStore(cfg.AttachmentDir)
	return &server{
		cfg:    cfg,
		auth:   auth.NewFlow(users, auth.NewCredentialVerifier(cfg.BcryptCost), tokens),
		ledger: ledger.New(store.NewTransactions(gdb), files),
		files:  files,
	}, nil
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.Use(requestID())

	a := r.Group("/auth")
	a.POST("/login", s.loginHandler)
	a.POST("/register", s.registerHandler)
	a.POST("/refreshToken", s.refreshHandler)
	a.GET("/verifyToken", s.verifyTokenHandler)
	a.POST("/logout", s.logoutHandler)
	a.GET("/status", statusHandler)

	tx := r.Group("/transactions")
	tx.Use(s.jwtAuthMiddleware())
	tx.POST("/add", s.addTransactionHandler)
	tx.PUT("/update", s.updateTransactionHandler)
	tx.DELETE("/delete", s.deleteTransactionHandler)
	tx.GET("/mine", s.listTransactionsHandler)
	tx.GET("/categories", s.categoriesHandler)
	tx.POST("/change-categories", s.changeCategoriesHandler)
	tx.GET("/summary", s.summaryHandler)
	tx.GET("/attachment", s.attachmentHandler)
}

// requestID tags each request with an X-Request-ID, keeping the client's if sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

func (s *server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		if !s.auth.VerifyAccess(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user, err := s.auth.Identify(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

// currentUser returns the user resolved by jwtAuthMiddleware.
func currentUser(c *gin.Context) *models.User {
	v, _ := c.Get(ctxUser)
	u, _ := v.(*models.User)
	return u
}

// fail translates a service error into the response once, at the boundary.
func (s *server) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	switch {
	case apperr.Hidden(err):
		msg = "transaction not found"
	case errors.Is(err, apperr.ErrAuthentication):
		msg = authMessage(err)
	case status == http.StatusInternalServerError:
		log.Printf("request %s %s %s: %v", c.GetString(requestIDHeader), c.Request.Method, c.FullPath(), err)
		msg = "internal error"
		if errors.Is(err, apperr.ErrStorage) {
			msg = "an error occurred while saving the attachment"
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func authMessage(err error) string {
	if msg, _, ok := strings.Cut(err.Error(), ": "); ok {
		return msg
	}
	return "unauthorized"
}

func (s *server) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, value, maxAge, refreshCookiePath, "", s.cfg.CookieSecure, true)
}

func (s *server) sessionResponse(c *gin.Context, sess *auth.Session) {
	s.setRefreshCookie(c, sess.RefreshToken, int(auth.RefreshTokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "accessToken": sess.AccessToken})
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sessionResponse(c, sess)
}

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=255"`
		Lastname string `json:"lastname" binding:"required,max=255"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), auth.Registration{
		Name: req.Name, Lastname: req.Lastname, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sessionResponse(c, sess)
}

func (s *server) refreshHandler(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil || presented == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh Token is required"})
		return
	}
	access, err := s.auth.Refresh(c.Request.Context(), presented)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

func (s *server) verifyTokenHandler(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok || !s.auth.VerifyAccess(token) {
		c.String(http.StatusUnauthorized, "Token is invalid")
		return
	}
	c.String(http.StatusOK, "Token is valid")
}

func (s *server) logoutHandler(c *gin.Context) {
	if presented, err := c.Cookie(refreshCookie); err == nil {
		if err := s.auth.Logout(c.Request.Context(), presented); err != nil {
			log.Printf("request %s logout: %v", c.GetString(requestIDHeader), err)
		}
	}
	s.setRefreshCookie(c, "", -1)
	c.String(http.StatusOK, "Logged out successfully")
}

func statusHandler(c *gin.Context) {
	c.String(http.StatusOK, "Server is running")
}
