package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	specialistx "github.com/tanpawarit/support-dispatch/agent/agents/specialist"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
)

type handlers struct {
	deps    Deps
	maxBody int64
}

type routeRequest struct {
	Query           string            `json:"query"`
	CustomerContext map[string]string `json:"customer_context,omitempty"`
	Domain          string            `json:"domain,omitempty"`
}

type sessionRequest struct {
	Domain       string            `json:"domain"`
	CustomerInfo map[string]string `json:"customer_info"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type specialistView struct {
	Role  string `json:"role"`
	Title string `json:"title"`
}

type domainView struct {
	statex.DomainInfo
	Specialists []specialistView `json:"specialists"`
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := io.Reader(r.Body)
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", contractx.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", contractx.ErrValidation, err)
	}
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "unavailable", err.Error())
			return
		}
	}
	writeSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listDomains(w http.ResponseWriter, r *http.Request) {
	infos := statex.Domains()
	out := make([]domainView, 0, len(infos))
	for _, info := range infos {
		view := domainView{DomainInfo: info}
		for _, spec := range specialistx.ForDomain(info.Domain) {
			view.Specialists = append(view.Specialists, specialistView{Role: spec.Role, Title: spec.Title})
		}
		out = append(out, view)
	}
	writeSuccess(w, r, http.StatusOK, out)
}

func (h *handlers) route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	var override *contractx.Domain
	if req.Domain != "" {
		d, err := contractx.ParseDomain(req.Domain)
		if err != nil {
			handleError(w, r, err)
			return
		}
		override = &d
	}

	resp := h.deps.Dispatcher.RouteAndRespond(r.Context(), req.Query, req.CustomerContext, override)
	writeSuccess(w, r, http.StatusOK, resp)
}

func (h *handlers) usage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Usage == nil {
		writeSuccess(w, r, http.StatusOK, tokensx.Snapshot{ByRole: map[string]tokensx.Usage{}})
		return
	}
	writeSuccess(w, r, http.StatusOK, h.deps.Usage.Snapshot())
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	domain, err := contractx.ParseDomain(req.Domain)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := h.deps.Sessions.StartSession(r.Context(), domain, req.CustomerInfo)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusCreated, sess)
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, sess)
}

func (h *handlers) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) switchDomain(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	domain, err := contractx.ParseDomain(req.Domain)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := h.deps.Sessions.SwitchDomain(r.Context(), chi.URLParam(r, "sessionID"), domain, req.CustomerInfo)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, sess)
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := h.deps.Sessions.Chat(r.Context(), chi.URLParam(r, "sessionID"), req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, resp)
}

func (h *handlers) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.ResetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, sess)
}
