package router

import (
	"net/http"

	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/transport/http/handler"
)

// Accounts declares the account endpoints and their allow-lists.
type Accounts struct{ H *handler.AccountHandler }

func (Accounts) Priority() int { return 10 }

func (m Accounts) Mount(e EZ) {
	h := m.H

	RegisterAction(e, Action[struct{}, *handler.RegisterResponse]{
		Method: http.MethodPost, Path: "/register", Binder: BindNone,
		Status: http.StatusCreated, Handler: h.Register,
	})
	RegisterAction(e, Action[handler.LoginRequest, *handler.LoginResponse]{
		Method: http.MethodPost, Path: "/login", Binder: BindJSON, Handler: h.Login,
	})
	RegisterAction(e, Action[struct{}, *handler.SuccessResponse]{
		Method: http.MethodPost, Path: "/logout", Binder: BindNone, Handler: h.Logout,
	})
	RegisterAction(e, Action[struct{}, *handler.VerifyResponse]{
		Method: http.MethodGet, Path: "/verify-token", Binder: BindNone, Handler: h.VerifyToken,
	})
	RegisterAction(e, Action[handler.SaveTokenRequest, *handler.SuccessResponse]{
		Method: http.MethodPost, Path: "/save-token", Binder: BindJSON, Handler: h.SaveToken,
	})

	RegisterAction(e, Action[struct{}, *handler.MeResponse]{
		Method: http.MethodGet, Path: "/me", Binder: BindNone,
		Auth: true, Handler: h.Me,
	})
	RegisterAction(e, Action[struct{}, *handler.DocumentsResponse]{
		Method: http.MethodGet, Path: "/seller/documents", Binder: BindNone,
		Auth: true, Roles: []domain.Role{domain.RoleSeller}, Handler: h.SellerDocuments,
	})
}
