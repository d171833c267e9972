package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/service"
	mdw "souqbridge-identity/internal/transport/http/middleware"
	"souqbridge-identity/internal/validate"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

type AccountHandler struct {
	svc    *service.Accounts
	cookie CookieOptions
	log    *zap.Logger
	now    func() time.Time
}

func NewAccountHandler(svc *service.Accounts, cookie CookieOptions, log *zap.Logger) *AccountHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountHandler{svc: svc, cookie: cookie, log: log, now: time.Now}
}

// CookieName is the session cookie the gate reads first.
func (h *AccountHandler) CookieName() string { return h.cookie.Name }

// setSession writes the HttpOnly session cookie. It only outlives the
// browser session when persistent is set.
func (h *AccountHandler) setSession(c *gin.Context, token string, expires time.Time, persistent bool) {
	maxAge := 0
	if persistent {
		maxAge = int(expires.Sub(h.now()).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AccountHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

type RegisterResponse struct {
	Success     bool   `json:"success"`
	IdentityID  string `json:"identityId"`
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
}

// Register handles the multipart sign-up form. Only the first value of each
// field and the first part of each file field are used.
func (h *AccountHandler) Register(c *gin.Context, _ *struct{}) (*RegisterResponse, error) {
	in := service.RegisterInput{Fields: map[string]string{}, Files: map[string]validate.Attachment{}}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, domain.Validation("invalid form body")
		}
		defer func() { _ = form.RemoveAll() }()
		for k, v := range form.Value {
			if len(v) > 0 {
				in.Fields[k] = v[0]
			}
		}
		for _, field := range []string{validate.FileCommercialRegistration, validate.FileTax, validate.FileLicense} {
			if fhs := form.File[field]; len(fhs) > 0 {
				in.Files[field] = attachmentOf(fhs[0])
			}
		}
	} else {
		if err := c.Request.ParseForm(); err != nil {
			return nil, domain.Validation("invalid form body")
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				in.Fields[k] = v[0]
			}
		}
	}
	in.Role = in.Fields[validate.FieldRole]

	sess, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	h.setSession(c, sess.Token, sess.ExpiresAt, sess.RememberMe)
	return &RegisterResponse{Success: true, IdentityID: sess.IdentityID, Token: sess.Token, DisplayName: sess.DisplayName}, nil
}

func attachmentOf(fh *multipart.FileHeader) validate.Attachment {
	return validate.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Flag accepts true, "true", "on" and "1".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case string:
		*f = Flag(validate.Checked(t))
	case float64:
		*f = t == 1
	default:
		*f = false
	}
	return nil
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe Flag   `json:"rememberMe"`
}

type LoginResponse struct {
	Success     bool        `json:"success"`
	Token       string      `json:"token"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"displayName"`
}

func (h *AccountHandler) Login(c *gin.Context, in *LoginRequest) (*LoginResponse, error) {
	sess, err := h.svc.Login(c.Request.Context(), in.Email, in.Password, bool(in.RememberMe))
	if err != nil {
		return nil, err
	}
	h.setSession(c, sess.Token, sess.ExpiresAt, sess.RememberMe)
	return &LoginResponse{Success: true, Token: sess.Token, Role: sess.Role, DisplayName: sess.DisplayName}, nil
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Logout always succeeds, even without a valid session.
func (h *AccountHandler) Logout(c *gin.Context, _ *struct{}) (*SuccessResponse, error) {
	h.svc.Logout(c.Request.Context(), mdw.TokenFrom(c, h.cookie.Name))
	h.clearSession(c)
	return &SuccessResponse{Success: true}, nil
}

type VerifyResponse struct {
	Valid       bool   `json:"valid"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h *AccountHandler) VerifyToken(c *gin.Context, _ *struct{}) (*VerifyResponse, error) {
	ok, name := h.svc.VerifyToken(c.Request.Context(), mdw.TokenFrom(c, h.cookie.Name))
	return &VerifyResponse{Valid: ok, DisplayName: name}, nil
}

type SaveTokenRequest struct {
	Token string `json:"token"`
}

// SaveToken stores a client-held token as a persistent cookie.
func (h *AccountHandler) SaveToken(c *gin.Context, in *SaveTokenRequest) (*SuccessResponse, error) {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, domain.Validation("token is required")
	}
	p, err := h.svc.SaveToken(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}
	h.setSession(c, token, p.ExpiresAt, true)
	return &SuccessResponse{Success: true}, nil
}

type MeResponse struct {
	Success bool             `json:"success"`
	Account *service.Account `json:"account"`
}

func (h *AccountHandler) Me(c *gin.Context, _ *struct{}) (*MeResponse, error) {
	p, ok := mdw.PrincipalFrom(c)
	if !ok {
		return nil, service.ErrInvalidSession
	}
	acct, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		return nil, err
	}
	return &MeResponse{Success: true, Account: acct}, nil
}

type DocumentsResponse struct {
	Success   bool                  `json:"success"`
	Documents []service.DocumentRef `json:"documents"`
}

func (h *AccountHandler) SellerDocuments(c *gin.Context, _ *struct{}) (*DocumentsResponse, error) {
	p, ok := mdw.PrincipalFrom(c)
	if !ok {
		return nil, service.ErrInvalidSession
	}
	refs, err := h.svc.SellerDocuments(c.Request.Context(), p)
	if err != nil {
		return nil, err
	}
	return &DocumentsResponse{Success: true, Documents: refs}, nil
}

// Health reports database reachability.
func (h *AccountHandler) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
