package storefront

import (
	"net/http"

	"github.com/lupasearch/catalog-export/app/respond"
)

// Script is one remote script the storefront injects into its page head.
type Script struct {
	ID       string `json:"id"`
	Src      string `json:"src"`
	Position string `json:"position"`
	Priority int    `json:"priority"`
}

type PluginSettings struct {
	Enabled bool     `json:"enabled"`
	Scripts []Script `json:"scripts"`
}

// Plugin tells the storefront theme which search scripts to load. The JS
// plugin is only injected when the module is enabled and a URL is set.
func Plugin(enabled bool, pluginURL string) PluginSettings {
	s := PluginSettings{Enabled: enabled, Scripts: []Script{}}
	if enabled && pluginURL != "" {
		s.Scripts = append(s.Scripts, Script{
			ID:       "lupasearch-head-plugin-js",
			Src:      pluginURL,
			Position: "head",
			Priority: 150,
		})
	}
	return s
}

type PluginHandler struct {
	settings PluginSettings
}

func NewPluginHandler(enabled bool, pluginURL string) *PluginHandler {
	return &PluginHandler{settings: Plugin(enabled, pluginURL)}
}

func (h *PluginHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /lupasearch/plugin", h.HandlePlugin)
}

func (h *PluginHandler) HandlePlugin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	respond.JSON(w, http.StatusOK, h.settings)
}
