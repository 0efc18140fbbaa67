package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
	"github.com/zhouzirui/calm-companion/backend/pkg/utils"
)

// Handler 回复分类的HTTP处理器
type Handler struct {
	script *script.Script
}

// New 创建分类处理器
func New(s *script.Script) *Handler {
	if s == nil {
		s = script.Seed()
	}
	return &Handler{script: s}
}

// CategoryInfo describes one reply category.
type CategoryInfo struct {
	Category signal.Category `json:"category"`
	Pooled   bool            `json:"pooled"`
	Variants int             `json:"variants"`
}

// CategoryDetail lists the wording behind a category.
type CategoryDetail struct {
	CategoryInfo
	Lines []string `json:"lines"`
}

// RegisterRoutes 注册分类相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{category}", h.handleGetCategory)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	categories := signal.Categories()
	out := make([]CategoryInfo, 0, len(categories))
	for _, category := range categories {
		out = append(out, CategoryInfo{
			Category: category,
			Pooled:   category.Pooled(),
			Variants: len(h.script.Variants(category)),
		})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := signal.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "category not found")
		return
	}

	lines := h.script.Variants(category)
	if !category.Pooled() {
		lines = h.fixedLines(category)
	}

	utils.RespondJSON(w, http.StatusOK, CategoryDetail{
		CategoryInfo: CategoryInfo{
			Category: category,
			Pooled:   category.Pooled(),
			Variants: len(h.script.Variants(category)),
		},
		Lines: lines,
	})
}

// fixedLines returns the single-line replies a non-pooled category can give.
func (h *Handler) fixedLines(category signal.Category) []string {
	switch category {
	case signal.GeneralSupport:
		return []string{h.script.Breathing, h.script.FirstPrinciples, h.script.Clarifying}
	default:
		// analytical summaries are generated from session metrics
		return []string{}
	}
}
