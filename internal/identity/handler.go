package handler

import (
	"net/http"

	"plusnotify/internal/identity/model"
	"plusnotify/internal/identity/service"
	"plusnotify/pkg/respond"
)

type IdentityHandler struct {
	Resolver *service.Resolver
}

func NewIdentityHandler(resolver *service.Resolver) *IdentityHandler {
	return &IdentityHandler{Resolver: resolver}
}

// WhoAmI reports whether the caller is a subscriber without rejecting
// anonymous requests.
func (h *IdentityHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Resolver.IsSubscriber(r)
	respond.JSON(w, http.StatusOK, model.WhoAmIResponse{
		IsAuthenticated: ok,
		IsSubscriber:    ok,
		Email:           user.Email,
	})
}
