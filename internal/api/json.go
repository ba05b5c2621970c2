package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vorp/internal/planner"
	"vorp/internal/session"
	"vorp/internal/solver"
	"vorp/internal/store"
)

// Problem represents an RFC7807 problem details response body. The
// extension members are set only for the errors that carry them.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Code           string   `json:"code,omitempty"`
	Positions      []int    `json:"positions,omitempty"`
	Keys           []string `json:"keys,omitempty"`
	UpstreamStatus int      `json:"upstreamStatus,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeProblemBody(w, Problem{Title: title, Status: status, Detail: detail, Instance: instance})
}

func writeProblemBody(w http.ResponseWriter, p Problem) {
	if p.Type == "" { p.Type = "about:blank" }
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, title string, err error) {
	p := Problem{Title: title, Detail: err.Error(), Instance: r.URL.Path}
	var (
		ve *planner.ValidationError
		fe *planner.FormatError
		te *solver.TransportError
	)
	switch {
	case errors.As(err, &ve):
		p.Status, p.Code, p.Positions = http.StatusBadRequest, ve.Code, ve.Positions
	case errors.Is(err, session.ErrBusy):
		p.Status = http.StatusConflict
	case errors.As(err, &fe):
		p.Status, p.Keys = http.StatusBadGateway, fe.Keys
	case errors.As(err, &te):
		p.Status, p.UpstreamStatus = http.StatusBadGateway, te.StatusCode
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrUnknownRoute):
		p.Status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrBadCursor):
		p.Status = http.StatusBadRequest
	default:
		p.Status = http.StatusInternalServerError
	}
	writeProblemBody(w, p)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
