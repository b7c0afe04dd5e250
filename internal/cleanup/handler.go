package cleanup

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for the cleanup queue.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new cleanup Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the cleanup endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/", h.List)
	r.Post("/", h.Enqueue)
	r.Post("/process", h.Process)
	r.Get("/{id}", h.Get)
}

type enqueueRequest struct {
	ResourceType string   `json:"resourceType" example:"product"`
	ResourceID   string   `json:"resourceId"   example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	FileKeys     []string `json:"fileKeys"     example:"products/1700000000000-000000042.png"`
}

// Stats godoc
//
//	@Summary		Cleanup queue stats
//	@Description	Counts cleanup tasks per status.
//	@Tags			cleanup
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	response.Envelope{data=Stats}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Router			/cleanup/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, st, "")
}

// List godoc
//
//	@Summary		List cleanup tasks
//	@Tags			cleanup
//	@Produce		json
//	@Security		SessionCookie
//	@Param			status	query		string	false	"pending, in_progress, completed or failed"
//	@Param			limit	query		int		false	"max 100"
//	@Success		200		{object}	response.Envelope{data=[]Task}
//	@Failure		400		{object}	response.Envelope
//	@Router			/cleanup [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tasks, err := h.svc.List(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, tasks, "")
}

// Get godoc
//
//	@Summary		Get cleanup task
//	@Tags			cleanup
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	response.Envelope{data=Task}
//	@Failure		404	{object}	response.Envelope
//	@Router			/cleanup/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, t, "")
}

// Enqueue godoc
//
//	@Summary		Enqueue cleanup task
//	@Description	Records object keys for deferred deletion.
//	@Tags			cleanup
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		enqueueRequest	true	"Keys to delete"
//	@Success		201		{object}	response.Envelope{data=Task}
//	@Failure		400		{object}	response.Envelope
//	@Router			/cleanup [post]
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	t, err := h.svc.Enqueue(r.Context(), req.ResourceType, req.ResourceID, req.FileKeys)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, t, "cleanup task created")
}

// Process godoc
//
//	@Summary		Run a cleanup pass
//	@Description	Claims up to limit pending tasks (default 20) and retries their deletes.
//	@Tags			cleanup
//	@Produce		json
//	@Security		SessionCookie
//	@Param			limit	query		int	false	"batch size"
//	@Success		200		{object}	response.Envelope{data=Result}
//	@Router			/cleanup/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.svc.ProcessPending(r.Context(), limit)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, res, "cleanup pass finished")
}
