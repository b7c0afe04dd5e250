package product

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/response"
)

// imagesField is the multipart field carrying product images.
const imagesField = "images"

// Handler holds HTTP handlers for product endpoints.
type Handler struct {
	svc         *Service
	log         *zap.Logger
	maxFileSize int64
}

// NewHandler creates a new product Handler. maxFileSize bounds each uploaded image.
func NewHandler(svc *Service, log *zap.Logger, maxFileSize int64) *Handler {
	return &Handler{svc: svc, log: log, maxFileSize: maxFileSize}
}

// Routes mounts the product endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.SetStatus)
	r.Patch("/{id}/stock", h.AdjustStock)
	r.Delete("/{id}", h.Delete)
}

type statusRequest struct {
	Status Status `json:"status" example:"inactive"`
}

type stockRequest struct {
	Quantity *int `json:"quantity" example:"-2"`
}

// List godoc
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Security	SessionCookie
//	@Param		category	query		string	false	"category filter"
//	@Param		status		query		string	false	"active or inactive"
//	@Param		search		query		string	false	"name, description or SKU"
//	@Success	200			{object}	response.Envelope{data=[]View}
//	@Router		/products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.svc.List(r.Context(), ListFilter{
		Category: q.Get("category"),
		Status:   Status(q.Get("status")),
		Search:   strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, views, "")
}

// Get godoc
//
//	@Summary	Get product
//	@Tags		products
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Router		/products/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, v, "")
}

// Create godoc
//
//	@Summary		Create product
//	@Description	Accepts multipart/form-data with up to 5 "images" files (JPEG, PNG, GIF or WebP, 5 MiB each) or a JSON body without images.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			name		formData	string	true	"Name"
//	@Param			description	formData	string	true	"Description"
//	@Param			price		formData	number	true	"Price"
//	@Param			stock		formData	int		true	"Stock"
//	@Param			category	formData	string	true	"Category"
//	@Param			images		formData	file	false	"Images"
//	@Success		201			{object}	response.Envelope{data=View}
//	@Failure		400			{object}	response.Envelope
//	@Router			/products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		in    Input
		files []File
		err   error
	)
	if isMultipart(r) {
		if files, err = h.readFiles(w, r); err != nil {
			response.Fail(w, h.log, err)
			return
		}
		in, err = inputFromForm(r.MultipartForm)
	} else {
		err = response.Decode(r, &in)
	}
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}

	v, err := h.svc.Create(r.Context(), in, files)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, v, "product created successfully")
}

// Update godoc
//
//	@Summary		Update product
//	@Description	Multipart uploads replace the existing images.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Product ID"
//	@Success		200	{object}	response.Envelope{data=View}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var (
		in    UpdateInput
		files []File
		err   error
	)
	if isMultipart(r) {
		if files, err = h.readFiles(w, r); err != nil {
			response.Fail(w, h.log, err)
			return
		}
		in, err = updateFromForm(r.MultipartForm)
	} else {
		err = response.Decode(r, &in)
	}
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}

	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, files)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, v, "product updated successfully")
}

// SetStatus godoc
//
//	@Summary	Change product status
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string			true	"Product ID"
//	@Param		request	body		statusRequest	true	"New status"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Router		/products/{id}/status [patch]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	v, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, v, "product status updated")
}

// AdjustStock godoc
//
//	@Summary		Adjust stock
//	@Description	quantity is a signed delta; the result cannot go below zero.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		string			true	"Product ID"
//	@Param			request	body		stockRequest	true	"Delta"
//	@Success		200		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Router			/products/{id}/stock [patch]
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	if req.Quantity == nil {
		response.Fail(w, h.log, apperr.Validation("quantity is required"))
		return
	}
	v, err := h.svc.AdjustStock(r.Context(), chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, v, "stock updated")
}

// Delete godoc
//
//	@Summary		Delete product
//	@Description	Always succeeds once the record is gone; images that could not be removed are retried in the background.
//	@Tags			products
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Product ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, nil, "product deleted successfully")
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readFiles parses the multipart body and reads up to MaxImages files, each
// bounded by maxFileSize+1 so oversize files reach the gateway check.
func (h *Handler) readFiles(w http.ResponseWriter, r *http.Request) ([]File, error) {
	limit := int64(MaxImages)*(h.maxFileSize+1) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, apperr.Validation("invalid multipart form: %v", err)
	}

	headers := r.MultipartForm.File[imagesField]
	if len(headers) > MaxImages {
		return nil, apperr.Validation("a product can have at most %d images", MaxImages)
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh, h.maxFileSize)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) (File, error) {
	src, err := fh.Open()
	if err != nil {
		return File{}, apperr.Validation("cannot read %s", fh.Filename)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return File{}, apperr.Validation("cannot read %s", fh.Filename)
	}
	return File{Name: fh.Filename, MimeType: fh.Header.Get("Content-Type"), Data: data}, nil
}

func inputFromForm(form *multipart.Form) (Input, error) {
	in := Input{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Category:    formValue(form, "category"),
		Status:      Status(formValue(form, "status")),
	}
	var err error
	if in.Price, err = parseFloat(form, "price"); err != nil {
		return Input{}, err
	}
	if in.Stock, err = parseInt(form, "stock"); err != nil {
		return Input{}, err
	}
	return in, nil
}

func updateFromForm(form *multipart.Form) (UpdateInput, error) {
	var in UpdateInput
	if v, ok := formLookup(form, "name"); ok {
		in.Name = &v
	}
	if v, ok := formLookup(form, "description"); ok {
		in.Description = &v
	}
	if v, ok := formLookup(form, "category"); ok {
		in.Category = &v
	}
	if v, ok := formLookup(form, "status"); ok {
		st := Status(v)
		in.Status = &st
	}
	if _, ok := formLookup(form, "price"); ok {
		p, err := parseFloat(form, "price")
		if err != nil {
			return UpdateInput{}, err
		}
		in.Price = &p
	}
	if _, ok := formLookup(form, "stock"); ok {
		n, err := parseInt(form, "stock")
		if err != nil {
			return UpdateInput{}, err
		}
		in.Stock = &n
	}
	return in, nil
}

func formLookup(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formValue(form *multipart.Form, key string) string {
	v, _ := formLookup(form, key)
	return v
}

func parseFloat(form *multipart.Form, key string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(formValue(form, key)), 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a number", key)
	}
	return v, nil
}

func parseInt(form *multipart.Form, key string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(formValue(form, key)))
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return v, nil
}

