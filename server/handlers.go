package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/mathtex/mathtex"
	"github.com/Neumenon/mathtex/stream"
)

// ConvertRequest is the body of POST /convert and one item of a batch.
type ConvertRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	// Envs overrides the server's flags when present, even if empty.
	Envs   []string `json:"envs,omitempty"`
	Inline bool     `json:"inline,omitempty"`
}

// ConvertResponse carries either the output or an error message prefixed
// with the failing stage.
type ConvertResponse struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// BatchRequest is the body of POST /convert/batch.
type BatchRequest struct {
	Items []ConvertRequest `json:"items"`
}

// BatchResponse holds one result per request item, in order.
type BatchResponse struct {
	Results []ConvertResponse `json:"results"`
}

type healthResponse struct {
	Status        string   `json:"status"`
	Version       int      `json:"version"`
	Envs          []string `json:"envs"`
	UptimeSeconds int64    `json:"uptime_seconds"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		Envs:          s.settings.Env.Names(),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req ConvertRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := checkFormats(req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp := s.convert(req)
	if resp.Error != "" {
		s.logger.Printf("server: %s: %s", RequestID(r.Context()), resp.Error)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Items) > s.settings.MaxBatch {
		s.writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d exceeds limit %d", len(req.Items), s.settings.MaxBatch))
		return
	}
	for i, item := range req.Items {
		if err := checkFormats(item); err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("items[%d]: %v", i, err))
			return
		}
	}

	results := make([]ConvertResponse, len(req.Items))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.settings.Workers)
	for i := range req.Items {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.convert(req.Items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Printf("server: %s: batch abandoned: %v", RequestID(r.Context()), err)
		s.writeError(w, r, http.StatusServiceUnavailable, "batch abandoned: "+err.Error())
		return
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	s.logger.Printf("server: %s: batch of %d, %d failed", RequestID(r.Context()), len(results), failed)
	writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

// handleStream converts a body of ast frames and answers with frames.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var out bytes.Buffer
	conv := &stream.Converter{Renderer: s.renderer, Env: s.settings.Env, Log: s.logger}
	stats, err := conv.Serve(r.Context(), bytes.NewReader(body), &out)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Printf("server: %s: stream of %d frames, %d converted, %d failed",
		RequestID(r.Context()), stats.Frames, stats.Converted, stats.Failed)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// readBody enforces POST and the size limit. It writes the error response
// itself and reports ok=false on failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	if r.Body == nil {
		s.writeError(w, r, http.StatusBadRequest, "empty body")
		return nil, false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "payload exceeds limit")
			return nil, false
		}
		s.writeError(w, r, http.StatusBadRequest, "unable to read body")
		return nil, false
	}
	return body, true
}

// checkFormats accepts the dump format as input and LaTeX as output. Empty
// fields take those defaults.
func checkFormats(req ConvertRequest) error {
	switch strings.ToLower(req.From) {
	case "", "native", "ast":
	default:
		return fmt.Errorf("unsupported from %q", req.From)
	}
	switch strings.ToLower(req.To) {
	case "", "tex", "latex":
	default:
		return fmt.Errorf("unsupported to %q", req.To)
	}
	return nil
}

func (s *Server) convert(req ConvertRequest) ConvertResponse {
	env := s.settings.Env
	if req.Envs != nil {
		env = mathtex.NewEnv(req.Envs...)
	}
	exps, err := mathtex.Read(req.Text)
	if err != nil {
		return ConvertResponse{Error: "read_ast: " + err.Error()}
	}
	var out string
	if req.Inline {
		out, err = s.renderer.InlineMarkdown(exps, env)
	} else {
		out, err = s.renderer.Render(exps, env)
	}
	if err != nil {
		return ConvertResponse{Error: "write_tex: " + err.Error()}
	}
	return ConvertResponse{Output: out}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
