package product

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inventory-api/internal/auth"
	"inventory-api/internal/httputil"
	"inventory-api/internal/logging"
)

// maxUploadSize bounds multipart parsing memory.
const maxUploadSize = 10 << 20 // 10 MB

// Handler contains HTTP handlers for the product endpoints. Product writes
// accept multipart/form-data (fields plus an optional "image" file) or plain
// JSON without an image.
type Handler struct {
	service       *Service
	logger        *logging.Logger
	isDevelopment bool
}

func NewHandler(service *Service, logger *logging.Logger, isDevelopment bool) *Handler {
	return &Handler{service: service, logger: logger, isDevelopment: isDevelopment}
}

// CreateRequest represents the JSON create request body.
type CreateRequest struct {
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Category    string  `json:"category"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// UpdateRequest represents the JSON partial update body. Absent fields keep
// their stored values.
type UpdateRequest struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Category    *string  `json:"category"`
	Quantity    *int64   `json:"quantity"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
}

// Create handles POST /products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	in, img, err := h.decodeCreate(r)
	if err != nil {
		logger.Warn("invalid create product request", "error", err.Error())
		httputil.RespondError(w, "Please fill in all fields", http.StatusBadRequest)
		return
	}
	if img != nil {
		defer img.close()
	}

	created, err := h.service.Create(r.Context(), userID, in, img.upload())
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			h.respondFailure(w, logger, "Please fill in all fields", err, http.StatusBadRequest)
		case errors.Is(err, ErrImageUpload), errors.Is(err, ErrNoObjectStore):
			h.respondFailure(w, logger, "Image could not be uploaded", err, http.StatusInternalServerError)
		default:
			logger.Error("failed to create product", "error", err.Error())
			h.respondFailure(w, logger, "Failed to create product", err, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("product created", "product_id", created.ID, "user_id", userID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles GET /products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	products, err := h.service.List(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list products", "error", err.Error())
		h.respondFailure(w, logger, "Failed to get products", err, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, products, http.StatusOK)
}

// Get handles GET /products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondError(w, "Product not found", http.StatusNotFound)
		return
	}

	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// Update handles PATCH /products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondError(w, "Product not found", http.StatusNotFound)
		return
	}

	in, img, err := h.decodeUpdate(r)
	if err != nil {
		logger.Warn("invalid update product request", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if img != nil {
		defer img.close()
	}

	updated, err := h.service.Update(r.Context(), userID, id, in, img.upload())
	if err != nil {
		switch {
		case errors.Is(err, ErrImageUpload), errors.Is(err, ErrNoObjectStore):
			h.respondFailure(w, logger, "Image could not be uploaded", err, http.StatusInternalServerError)
		default:
			h.respondProductError(w, logger, err)
		}
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles DELETE /products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondError(w, "Product not found", http.StatusNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	logger.Info("product deleted", "product_id", id, "user_id", userID)
	httputil.RespondJSON(w, map[string]string{
		"id":      id.String(),
		"message": "Product removed",
	}, http.StatusOK)
}

// formFile pairs an opened multipart file with its metadata.
type formFile struct {
	file interface{ Close() error }
	meta *ImageUpload
}

func (f *formFile) upload() *ImageUpload {
	if f == nil {
		return nil
	}
	return f.meta
}

func (f *formFile) close() {
	if f != nil && f.file != nil {
		_ = f.file.Close()
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handler) decodeCreate(r *http.Request) (CreateInput, *formFile, error) {
	if !isMultipart(r) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return CreateInput{}, nil, err
		}
		return CreateInput{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Price:       req.Price,
			Description: req.Description,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return CreateInput{}, nil, err
	}

	quantity, err := strconv.ParseInt(r.FormValue("quantity"), 10, 64)
	if err != nil {
		return CreateInput{}, nil, err
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		return CreateInput{}, nil, err
	}

	in := CreateInput{
		Name:        r.FormValue("name"),
		SKU:         r.FormValue("sku"),
		Category:    r.FormValue("category"),
		Quantity:    quantity,
		Price:       price,
		Description: r.FormValue("description"),
	}

	img, err := h.decodeImage(r)
	if err != nil {
		return CreateInput{}, nil, err
	}

	return in, img, nil
}

func (h *Handler) decodeUpdate(r *http.Request) (UpdateInput, *formFile, error) {
	if !isMultipart(r) {
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return UpdateInput{}, nil, err
		}
		return UpdateInput{
			Name:        req.Name,
			SKU:         req.SKU,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Price:       req.Price,
			Description: req.Description,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return UpdateInput{}, nil, err
	}

	var in UpdateInput
	if v, ok := formValue(r, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(r, "sku"); ok {
		in.SKU = &v
	}
	if v, ok := formValue(r, "category"); ok {
		in.Category = &v
	}
	if v, ok := formValue(r, "quantity"); ok {
		quantity, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return UpdateInput{}, nil, err
		}
		in.Quantity = &quantity
	}
	if v, ok := formValue(r, "price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return UpdateInput{}, nil, err
		}
		in.Price = &price
	}
	if v, ok := formValue(r, "description"); ok {
		in.Description = &v
	}

	img, err := h.decodeImage(r)
	if err != nil {
		return UpdateInput{}, nil, err
	}

	return in, img, nil
}

// decodeImage extracts the optional "image" file from a parsed multipart form.
func (h *Handler) decodeImage(r *http.Request) (*formFile, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	return &formFile{
		file: file,
		meta: &ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		},
	}, nil
}

// formValue reports whether a multipart field was present at all, so absent
// and empty fields can be told apart for partial updates.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (h *Handler) respondProductError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.respondFailure(w, logger, "Product not found", err, http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		h.respondFailure(w, logger, "User not authorized", err, http.StatusUnauthorized)
	default:
		logger.Error("product operation failed", "error", err.Error())
		h.respondFailure(w, logger, "Something went wrong", err, http.StatusInternalServerError)
	}
}

// respondFailure sends an error response, attaching the underlying error
// chain only in development mode.
func (h *Handler) respondFailure(w http.ResponseWriter, logger *logging.Logger, message string, err error, statusCode int) {
	if statusCode < http.StatusInternalServerError {
		logger.Warn(message, "error", err.Error())
	}
	if h.isDevelopment && err != nil {
		httputil.RespondErrorWithStack(w, message, err.Error(), statusCode)
		return
	}
	httputil.RespondError(w, message, statusCode)
}
