package identity

import (
	"github.com/gin-gonic/gin"

	"github.com/ovaflus/ovaflus-auth/auth/authctx"
	"github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/server"
	"github.com/ovaflus/ovaflus-auth/validation"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.WithComponent("identity-http")}
}

// Routes selects the middleware and optional routes RegisterRoutes mounts.
type Routes struct {
	// Authenticate guards /session and /profile. Nil leaves them unmounted.
	Authenticate gin.HandlerFunc
	// Guard runs before the credential handlers, e.g. rate limiting.
	Guard gin.HandlerFunc
	// Profile mounts /profile. Profiles belong to locally registered users,
	// so this is only meaningful when local tokens are accepted.
	Profile bool
}

// RegisterRoutes mounts the credential routes under /auth and the
// authenticated routes behind rt.Authenticate.
func (h *Handler) RegisterRoutes(r gin.IRouter, rt Routes) {
	public := r.Group("/auth")
	if rt.Guard != nil {
		public.Use(rt.Guard)
	}
	public.POST("/signup", h.SignUp)
	public.POST("/signin", h.SignIn)
	public.POST("/refresh", h.Refresh)
	if h.svc.SocialEnabled("apple") {
		public.POST("/apple", h.AppleSignIn)
	}
	if h.svc.SocialEnabled("google") {
		public.POST("/google", h.GoogleSignIn)
	}

	if rt.Authenticate == nil {
		return
	}
	r.GET("/session", rt.Authenticate, h.Session)
	if rt.Profile {
		protected := r.Group("/profile", rt.Authenticate)
		protected.GET("", h.GetProfile)
		protected.PUT("", h.UpdateProfile)
	}
}

// Session handles GET /session, describing the presented token.
func (h *Handler) Session(c *gin.Context) {
	claims, ok := authctx.Get(c.Request.Context())
	if !ok {
		server.RespondWithError(c, h.log, errors.Unauthorized(""))
		return
	}
	server.RespondOK(c, SessionResponse{
		UserID:    claims.Subject,
		TokenType: string(claims.TokenClass),
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	})
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondCreated(c, resp)
}

// SignIn handles POST /auth/signin.
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.SignIn(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, resp)
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, resp)
}

// AppleSignIn handles POST /auth/apple.
func (h *Handler) AppleSignIn(c *gin.Context) {
	var req AppleSignInRequest
	if !h.bind(c, &req) {
		return
	}
	h.socialSignIn(c, "apple", req.IdentityToken)
}

// GoogleSignIn handles POST /auth/google.
func (h *Handler) GoogleSignIn(c *gin.Context) {
	var req GoogleSignInRequest
	if !h.bind(c, &req) {
		return
	}
	h.socialSignIn(c, "google", req.IDToken)
}

func (h *Handler) socialSignIn(c *gin.Context, provider, token string) {
	tokens, err := h.svc.SignInWithProvider(c.Request.Context(), provider, token)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, tokens)
}

// GetProfile handles GET /profile.
func (h *Handler) GetProfile(c *gin.Context) {
	userID, err := authctx.Subject(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, h.log, errors.Unauthorized(""))
		return
	}
	resp, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, resp)
}

// UpdateProfile handles PUT /profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, err := authctx.Subject(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, h.log, errors.Unauthorized(""))
		return
	}
	var req ProfileUpdateRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, resp)
}

// bind decodes and validates the JSON body, responding 400 on failure.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		server.RespondWithError(c, h.log, errors.BadRequest("Invalid request body"))
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, h.log, err)
		return false
	}
	return true
}
