package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"souqbridge-identity/internal/domain"
	mdw "souqbridge-identity/internal/transport/http/middleware"
	resp "souqbridge-identity/internal/transport/http/response"
)

// EZ registers actions on a group, guarding protected ones with the gate.
type EZ struct {
	g     *gin.RouterGroup
	authn mdw.Authenticator
	name  string // session cookie
}

func New(g *gin.RouterGroup, authn mdw.Authenticator, cookieName string) EZ {
	return EZ{g: g, authn: authn, name: cookieName}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // handler reads the request itself
)

// Action is one endpoint. I is the bound input, O the success body.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	// Auth puts the gate in front of the handler. Roles is its allow-list;
	// empty means any authenticated role.
	Auth    bool
	Roles   []domain.Role
	Status  int // success status, 200 when zero
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			resp.Fail(c, domain.Validation("invalid request body"))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, out)
	}

	chain := []gin.HandlerFunc{h}
	if a.Auth {
		chain = []gin.HandlerFunc{mdw.Gate(e.authn, e.name, a.Roles...), h}
	}
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, chain...)
	case http.MethodPut:
		e.g.PUT(a.Path, chain...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, chain...)
	default:
		e.g.POST(a.Path, chain...)
	}
}
