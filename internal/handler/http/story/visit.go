package story

import (
	"log/slog"
	"net/http"

	"universitas/internal/handler/http/middleware"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
)

type VisitHandler struct {
	Svc Service
	IPs middleware.IPExtractor
}

type visitResponse struct {
	Counted bool `json:"counted"`
}

// ServeHTTP counts a page view. Bots, repeat visitors and unpublished
// stories answer 200 with counted=false.
func (h VisitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	ip, err := h.IPs.ExtractIP(r)
	if err != nil {
		slog.WarnContext(r.Context(), "visit: client IP unknown", slog.Any("error", err))
		ip = r.RemoteAddr
	}
	counted, err := h.Svc.VisitPage(r.Context(), id, ip, r.UserAgent())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, visitResponse{Counted: counted})
}
