package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for dashboard endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the dashboard endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/recent-orders", h.RecentOrders)
	r.Get("/top-products", h.TopProducts)
	r.Get("/sales-analytics", h.SalesAnalytics)
}

// Stats godoc
//
//	@Summary	Dashboard counters
//	@Tags		dashboard
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=Stats}
//	@Router		/dashboard/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, st, "")
}

// RecentOrders godoc
//
//	@Summary	Ten most recent orders
//	@Tags		dashboard
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=[]RecentOrder}
//	@Router		/dashboard/recent-orders [get]
func (h *Handler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RecentOrders(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// TopProducts godoc
//
//	@Summary	Ten best selling products
//	@Tags		dashboard
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=[]TopProduct}
//	@Router		/dashboard/top-products [get]
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.TopProducts(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// SalesAnalytics godoc
//
//	@Summary	Daily delivered sales
//	@Tags		dashboard
//	@Produce	json
//	@Security	SessionCookie
//	@Param		startDate	query		string	true	"YYYY-MM-DD"
//	@Param		endDate		query		string	true	"YYYY-MM-DD (inclusive)"
//	@Success	200			{object}	response.Envelope{data=[]DailySales}
//	@Failure	400			{object}	response.Envelope
//	@Router		/dashboard/sales-analytics [get]
func (h *Handler) SalesAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.SalesAnalytics(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}
