package pipeline

import (
	"dealdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the stage registry to the pipeline board UI.
type Handler struct{}

// NewHandler creates the pipeline handler.
func NewHandler() *Handler {
	return &Handler{}
}

type stageView struct {
	Stage      Stage  `json:"stage"`
	Label      string `json:"label"`
	ShortLabel string `json:"shortLabel"`
	ColorHint  string `json:"colorHint"`
	Rank       *int   `json:"rank,omitempty"`
	Next       *Stage `json:"next,omitempty"`
	IsLost     bool   `json:"isLost"`
}

// ListStages handles GET /api/v1/pipeline/stages.
func (h *Handler) ListStages(c *gin.Context) {
	stages := Stages()
	views := make([]stageView, 0, len(stages))
	for _, s := range stages {
		cfg, _ := ConfigFor(s)
		view := stageView{
			Stage:      s,
			Label:      cfg.Label,
			ShortLabel: cfg.ShortLabel,
			ColorHint:  cfg.ColorHint,
			IsLost:     IsLost(s),
		}
		if rank, ok := Rank(s); ok {
			view.Rank = &rank
		}
		if next, ok := Next(s); ok {
			view.Next = &next
		}
		views = append(views, view)
	}
	httpkit.OK(c, gin.H{"stages": views})
}
