package module

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

type ModuleRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	Description     string `json:"description"`
	Content         string `json:"content"`
	DifficultyLevel string `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Order           int    `json:"order" validate:"min=0"`
	EstimatedTime   int    `json:"estimated_time" validate:"min=0"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ModuleRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	module, err := h.service.CreateModule(p, ModuleInput{
		Title:           req.Title,
		Description:     req.Description,
		Content:         req.Content,
		DifficultyLevel: req.DifficultyLevel,
		Order:           req.Order,
		EstimatedTime:   req.EstimatedTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, module)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid module id", http.StatusBadRequest)
		return
	}

	var req ModuleRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	module, err := h.service.UpdateModule(p, id, ModuleInput{
		Title:           req.Title,
		Description:     req.Description,
		Content:         req.Content,
		DifficultyLevel: req.DifficultyLevel,
		Order:           req.Order,
		EstimatedTime:   req.EstimatedTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, module)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid module id", http.StatusBadRequest)
		return
	}

	var req StatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	module, err := h.service.SetStatus(p, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, module)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Difficulty: r.URL.Query().Get("difficulty"),
		Search:     r.URL.Query().Get("search"),
	}

	modules, err := h.service.ListPublished(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httpx.JSON(w, http.StatusOK, modules)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	modules, err := h.service.ListMine(p)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, modules)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var viewer *auth.Principal
	if p, ok := auth.FromContext(r.Context()); ok {
		viewer = &p
	}

	module, err := h.service.GetPublished(slug, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, module)
}

func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	return uint(id), err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Module not found", http.StatusNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		http.Error(w, "A module with this title already exists", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
