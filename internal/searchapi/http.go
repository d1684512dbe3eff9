package searchapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPHandler adapts a Handler to net/http: a single /rpc endpoint
// accepting the JSON-RPC envelope (mirroring the teacher's one-method
// Unix-socket protocol, generalized to the full §4.J operation set),
// plus /metrics for the Prometheus registry.
type HTTPHandler struct {
	handler *Handler
	mux     *http.ServeMux
}

// NewHTTPHandler builds the mux for h.
func NewHTTPHandler(h *Handler) *HTTPHandler {
	hh := &HTTPHandler{handler: h, mux: http.NewServeMux()}
	hh.mux.HandleFunc("/rpc", hh.serveRPC)
	hh.mux.Handle("/metrics", h.Metrics.Handler())
	return hh
}

func (hh *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hh.mux.ServeHTTP(w, r)
}

func (hh *HTTPHandler) serveRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req Request
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, newError("", ErrCodeParseError, "failed to parse request"))
		return
	}

	resp := hh.handler.HandleRequest(r.Context(), req)
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("search API: failed to encode response", slog.String("error", err.Error()))
	}
}
