package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/markdown"
	"github.com/dgallion1/officemath/internal/mathph"
	"github.com/dgallion1/officemath/internal/office"
)

// sourceRequest carries either HTML or Markdown input.
type sourceRequest struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

func (s sourceRequest) validate() error {
	switch {
	case s.HTML != "" && s.Markdown != "":
		return errors.New("send either html or markdown, not both")
	case s.HTML == "" && s.Markdown == "":
		return errors.New("html or markdown is required")
	}
	return nil
}

// decodeJSON reads a bounded JSON body into v and reports failures itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleOfficePrepare(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var prepared mathph.PreparedOffice
	var err error
	if req.Markdown != "" {
		prepared, err = mathph.PrepareMarkdown(req.Markdown)
	} else {
		prepared, err = mathph.PrepareHTML(req.HTML)
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, prepared)
}

type applyRequest struct {
	HTML    string   `json:"html"`
	Results []string `json:"results"`
}

func (s *Server) handleOfficeApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HTML == "" {
		jsonError(w, "html is required", http.StatusBadRequest)
		return
	}
	out, missing := mathph.ApplyResults(req.HTML, req.Results)
	if missing == nil {
		missing = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"html":    out,
		"missing": missing,
	})
}

func (s *Server) handleOfficeRender(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out string
	var res convert.Result
	var err error
	if req.Markdown != "" {
		out, res, err = s.conv.MarkdownToOffice(r.Context(), req.Markdown)
	} else {
		out, res, err = s.conv.HTMLToOffice(r.Context(), req.HTML)
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	failures := make([]map[string]any, 0, len(res.MathErrors))
	for _, e := range res.MathErrors {
		failures = append(failures, map[string]any{"id": e.JobID, "latex": e.Latex, "error": e.Err.Error()})
	}
	missing := []int{}
	if res.Missing != nil {
		missing = res.Missing.IDs
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"html":          out,
		"jobs":          res.Jobs,
		"math_failures": failures,
		"missing":       missing,
	})
}

func (s *Server) handleMarkdownToHTML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markdown string `json:"markdown"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := markdown.ToHTML(req.Markdown)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": out})
}

func (s *Server) handleMarkdownFromHTML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HTML string `json:"html"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := markdown.FromHTML(req.HTML)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": out})
}

func (s *Server) handleClipboardWrap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fragment  string `json:"fragment"`
		SourceURL string `json:"source_url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Fragment == "" {
		jsonError(w, "fragment is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"payload": office.WrapForClipboard(req.Fragment, req.SourceURL),
	})
}

// handleClipboardExtract cuts a fragment out of a page between two comment
// tokens, or out of a CF_HTML payload when payload is sent.
func (s *Server) handleClipboardExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HTML    string `json:"html"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Payload string `json:"payload"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Payload != "" {
		fragment, err := office.ClipboardFragment(req.Payload)
		if err != nil {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"fragment": fragment})
		return
	}

	fragment, err := office.ExtractFragment(req.HTML, req.Start, req.End)
	switch {
	case errors.Is(err, office.ErrInvalidTokens):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, office.ErrStartMarkerNotFound), errors.Is(err, office.ErrEndMarkerNotFound):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fragment": fragment})
}
