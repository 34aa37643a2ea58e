package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/auth"
	"github.com/minjae-dev/gomarket/internal/cart"
	"github.com/minjae-dev/gomarket/internal/catalog"
	"github.com/minjae-dev/gomarket/internal/checkout"
	"github.com/minjae-dev/gomarket/internal/market"
)

type Handler struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Products *catalog.Repo
	Cart     *cart.Repo
	Reader   *cart.Reader
	Pipeline *checkout.Pipeline
	Orders   *checkout.OrdersRepo
	Redis    *redis.Client
	Metrics  *Metrics
	Log      *zap.Logger
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.registerProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Get("/products/mine", h.listMyProducts)

	r.Get("/cart", h.loadCart)
	r.Get("/cart/count", h.cartCount)
	r.Post("/cart", h.addToCart)
	r.Put("/cart/{productID}", h.updateCartQuantity)
	r.Delete("/cart/{productID}", h.removeFromCart)

	r.Post("/checkout", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/sold", h.listSoldOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// session resolves the bearer token; services receive the value explicitly.
func (h *Handler) session(r *http.Request) (market.Session, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		return market.Session{}, false
	}
	s, err := h.Auth.Resolve(raw)
	if err != nil {
		return market.Session{}, false
	}
	return s, true
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// --- auth ---

type signupReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsSeller bool   `json:"is_seller"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	token, err := h.Auth.Signup(r.Context(), req.Email, req.Username, req.Password, req.IsSeller)
	switch {
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// --- catalog ---

type productReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       int64    `json:"price"`
	Quantity    int      `json:"quantity"`
	ImageURLs   []string `json:"image_urls"`
}

func (h *Handler) registerProduct(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Catalog.Register(r.Context(), session, catalog.RegisterInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURLs:   req.ImageURLs,
	})
	if errors.Is(err, catalog.ErrNotSeller) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err = h.Catalog.Update(r.Context(), session, id, catalog.RegisterInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURLs:   req.ImageURLs,
	})
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrNotSeller):
		writeError(w, http.StatusForbidden, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Products.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) listMyProducts(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	ps, err := h.Products.ListBySeller(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.Products.Get(r.Context(), id)
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
