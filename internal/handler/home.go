package handler

import (
	"net/http"

	"github.com/a-h/templ"

	"poppy/internal/templates"
)

// Home renders the departure board page. Before the first board is
// published it renders the loading view with 503 so clients retry; no
// middleware gates this route, so Home is the only place that view is served.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var content templ.Component
	status := http.StatusOK
	if b := h.publisher.Current(); b != nil {
		content = templates.BoardFragment(b, h.now())
	} else {
		content = templates.LoadingFragment()
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "5")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.BoardPage(h.page("poppy"), content).Render(r.Context(), w); err != nil {
		h.logger.Error("rendering board page", "error", err)
	}
}
