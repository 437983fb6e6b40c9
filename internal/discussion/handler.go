package discussion

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"civiclearn/internal/auth"
	"civiclearn/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ThreadRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	ModuleID *uint  `json:"module_id"`
	Status   string `json:"status" validate:"omitempty,oneof=open closed pinned"`
	IsPinned bool   `json:"is_pinned"`
}

type CommentRequest struct {
	Content  string `json:"content" validate:"required"`
	ParentID *uint  `json:"parent_id"`
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ThreadRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.service.CreateThread(p, ThreadInput{
		Title:    req.Title,
		Content:  req.Content,
		ModuleID: req.ModuleID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, thread)
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid thread id", http.StatusBadRequest)
		return
	}

	var req ThreadRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.service.UpdateThread(p, id, ThreadInput{
		Title:    req.Title,
		Content:  req.Content,
		Status:   req.Status,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, thread)
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.service.ListThreads()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	httpx.JSON(w, http.StatusOK, threads)
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid thread id", http.StatusBadRequest)
		return
	}

	detail, err := h.service.GetThread(id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid thread id", http.StatusBadRequest)
		return
	}

	var req CommentRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := h.service.AddComment(p, id, req.Content, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	var req CommentRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := h.service.UpdateComment(p, id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, comment)
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	result, err := h.service.ToggleLike(p, id)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	return uint(id), err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrParentMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
