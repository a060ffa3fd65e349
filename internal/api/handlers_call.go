package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/officemath/internal/boundary"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"api_version": boundary.APIVersion,
		"operations":  boundary.Operations(),
	})
}

// handleCall runs a boundary operation. The raw body is the first input;
// further inputs come from repeated "arg" query parameters. The boundary
// code is returned in X-Error-Code.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	inputs := [][]byte{body}
	for _, arg := range r.URL.Query()["arg"] {
		inputs = append(inputs, []byte(arg))
	}

	res := boundary.Invoke(r.Context(), s.conv, op, inputs...)
	w.Header().Set("X-Error-Code", strconv.Itoa(int(res.Code)))
	if !res.OK() {
		s.log.Debug("boundary call failed", "op", op, "code", res.Code, "message", res.Message)
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	w.Header().Set("Content-Type", outputType(op))
	w.Write(res.Output)
}

func outputType(op string) string {
	switch {
	case strings.HasSuffix(op, "_docx"):
		return docxContentType
	case strings.HasSuffix(op, "_prepared"):
		return "application/json"
	case strings.HasSuffix(op, "_markdown"):
		return "text/markdown; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}
