package handlers

import (
	"net/http"

	"github.com/glowteam/skinscan/internal/config"
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/metrics"
)

// ConfigHandler handles the configuration endpoint.
type ConfigHandler struct {
	config *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// ConfigResponse describes the engine to API clients: score semantics,
// tracked metrics and which collaborators are live.
type ConfigResponse struct {
	Metrics       []string       `json:"metrics"`
	ScoreFloor    int            `json:"score_floor"`
	ScoreCeil     int            `json:"score_ceil"`
	NeutralScore  int            `json:"neutral_score"`
	Providers     []ProviderInfo `json:"providers"`
	HistoryBacked bool           `json:"history_backed"`
	MaxUploadSize int            `json:"max_upload_size"`
}

// ProviderInfo represents information about a refinement provider.
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the engine configuration.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{
			Name:      "openai",
			Available: h.config.OpenAI.Token != "",
		},
		{
			Name:      "gemini",
			Available: h.config.Gemini.APIKey != "",
		},
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Metrics:       metrics.MetricNames,
		ScoreFloor:    constants.ScoreFloor,
		ScoreCeil:     constants.ScoreCeil,
		NeutralScore:  constants.NeutralScore,
		Providers:     providers,
		HistoryBacked: h.config.Database.URL != "",
		MaxUploadSize: constants.MaxUploadSize,
	})
}
