package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/internal/logging"
	"github.com/aretw0/screener/internal/presentation/graph"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/runner"
	"github.com/aretw0/screener/pkg/script"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Engine defines the interview operations the server drives.
type Engine interface {
	NewSession(ctx context.Context, id string) *domain.Session
	Enter(ctx context.Context, sess *domain.Session, stage domain.StageID) (string, error)
	Complete(ctx context.Context, sess *domain.Session, stage domain.StageID, data map[string]any) (domain.StageID, error)
	Inspect() []domain.Stage
	Stage(id domain.StageID) (domain.Stage, bool)
	RenderText(src string, sess *domain.Session) (string, error)
	Script() *script.Script
}

var _ Engine = (*screener.Engine)(nil)

// Turn is what a voice engine needs to speak the next line.
type Turn struct {
	Session  *domain.Session `json:"session"`
	Stage    domain.StageID  `json:"stage"`
	Prompt   string          `json:"prompt"`
	Terminal bool            `json:"terminal"`
	Expects  domain.Shape    `json:"expects"`
	Function string          `json:"function,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Field    string `json:"field,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Reprompt string `json:"reprompt,omitempty"`
	Turn     *Turn  `json:"turn,omitempty"`
}

// StageView describes a stage for introspection clients.
type StageView struct {
	ID          domain.StageID    `json:"id"`
	Prompt      string            `json:"prompt"`
	Expects     domain.Shape      `json:"expects"`
	Function    string            `json:"function,omitempty"`
	Description string            `json:"description,omitempty"`
	Terminal    bool              `json:"terminal"`
	Transition  domain.Transition `json:"transition"`
}

type createSessionRequest struct {
	ID string `json:"id"`
}

type stageRequest struct {
	Session *domain.Session `json:"session"`
	Stage   domain.StageID  `json:"stage"`
	Data    map[string]any  `json:"data"`
}

// Server serves the stateless interview API.
type Server struct {
	engine       Engine
	logger       *slog.Logger
	metrics      http.Handler
	maxInputSize int
	spec         *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize bounds every string in submitted data.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// NewHandler creates a new HTTP handler for the engine.
// It fails if the embedded OpenAPI document does not validate.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	spec, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:       engine,
		logger:       logging.NewNop(),
		maxInputSize: runner.DefaultReplyLimit,
		spec:         spec,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", s.CreateSession)
		r.Post("/enter", s.EnterStage)
		r.Post("/complete", s.CompleteStage)
		r.Get("/stages", s.ListStages)
		r.Get("/stages/{stage}", s.GetStage)
		r.Get("/graph", s.GetGraph)
		r.Get("/live", s.Live)
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Screener API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	sc := s.engine.Script()
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "screener-http",
		"version":     screener.Version,
		"api_version": s.spec.Info.Version,
		"company":     sc.Company,
		"threshold":   strconv.FormatFloat(sc.Salary.Threshold, 'f', -1, 64),
		"unit":        sc.Unit,
	})
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	raw, err := readBody(r)
	if err != nil {
		s.badRequest(w, "CreateSession", err)
		return
	}
	if len(raw) > 0 {
		if err := s.decode("CreateSessionRequest", raw, &body); err != nil {
			s.badRequest(w, "CreateSession", err)
			return
		}
	}

	sess := s.engine.NewSession(r.Context(), body.ID)
	turn, err := s.turn(r.Context(), sess, sess.Current)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, turn)
}

// EnterStage handles POST /v1/enter. The session comes back unchanged.
func (s *Server) EnterStage(w http.ResponseWriter, r *http.Request) {
	body, ok := s.stageRequest(w, r, "EnterRequest")
	if !ok {
		return
	}
	turn, err := s.turn(r.Context(), body.Session, body.Stage)
	if err != nil {
		s.fail(w, "EnterStage", err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// CompleteStage handles POST /v1/complete.
func (s *Server) CompleteStage(w http.ResponseWriter, r *http.Request) {
	body, ok := s.stageRequest(w, r, "CompleteRequest")
	if !ok {
		return
	}
	data, err := s.sanitize(body.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
		s.logger.Warn("CompleteStage: input rejected", "err", err)
		return
	}

	ctx := r.Context()
	sess := body.Session
	next, err := s.engine.Complete(ctx, sess, body.Stage, data)
	if err != nil {
		var xerr *domain.ExtractionError
		if !errors.As(err, &xerr) {
			s.fail(w, "CompleteStage", err)
			return
		}
		resp := ErrorResponse{Error: err.Error(), Code: "extraction_failed", Field: xerr.Field, Reason: xerr.Reason}
		resp.Reprompt, _ = s.engine.RenderText(s.engine.Script().Reprompt, sess)
		if turn, terr := s.turn(ctx, sess, sess.Current); terr == nil {
			resp.Turn = turn
		}
		s.logger.Info("extraction failed", "session_id", sess.ID, "stage", body.Stage, "attempts", sess.Attempts)
		writeError(w, http.StatusUnprocessableEntity, resp)
		return
	}

	turn, err := s.turn(ctx, sess, next)
	if err != nil {
		s.fail(w, "CompleteStage", err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// ListStages handles GET /v1/stages.
func (s *Server) ListStages(w http.ResponseWriter, r *http.Request) {
	stages := s.engine.Inspect()
	views := make([]StageView, 0, len(stages))
	for _, st := range stages {
		views = append(views, s.view(st))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetStage handles GET /v1/stages/{stage}.
func (s *Server) GetStage(w http.ResponseWriter, r *http.Request) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "stage", chi.URLParam(r, "stage"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.badRequest(w, "GetStage", err)
		return
	}

	id, err := domain.ParseStageID(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "unknown_stage"})
		return
	}
	st, ok := s.engine.Stage(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("stage %s not in script", id), Code: "unknown_stage"})
		return
	}
	writeJSON(w, http.StatusOK, s.view(st))
}

// GetGraph handles GET /v1/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(s.engine.Inspect(), nil))
}

// -- Helpers --

func (s *Server) view(st domain.Stage) StageView {
	v := StageView{
		ID:         st.ID,
		Prompt:     st.Prompt,
		Expects:    st.Expects,
		Function:   st.Function,
		Terminal:   st.Terminal(),
		Transition: st.Transition,
	}
	if ss, ok := s.engine.Script().Stage(st.ID); ok && ss.Function != nil {
		v.Description = ss.Function.Description
		if text, err := s.engine.RenderText(ss.Function.Description, nil); err == nil {
			v.Description = text
		}
	}
	return v
}

// turn renders the prompt of stage, which must be the session's current one.
func (s *Server) turn(ctx context.Context, sess *domain.Session, stage domain.StageID) (*Turn, error) {
	prompt, err := s.engine.Enter(ctx, sess, stage)
	if err != nil {
		return nil, err
	}
	st, _ := s.engine.Stage(stage)
	return &Turn{
		Session:  sess,
		Stage:    stage,
		Prompt:   prompt,
		Terminal: st.Terminal(),
		Expects:  st.Expects,
		Function: st.Function,
	}, nil
}

func (s *Server) stageRequest(w http.ResponseWriter, r *http.Request, schema string) (stageRequest, bool) {
	var body stageRequest
	raw, err := readBody(r)
	if err == nil {
		err = s.decode(schema, raw, &body)
	}
	if err != nil {
		s.badRequest(w, schema, err)
		return body, false
	}
	if body.Stage == "" {
		body.Stage = body.Session.Current
	}
	return body, true
}

// decode validates raw against the named schema before unmarshalling it.
func (s *Server) decode(schema string, raw []byte, dst any) error {
	if err := validateBody(s.spec, schema, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// sanitize cleans every string in the payload, nested values included.
func (s *Server) sanitize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		clean, err := s.sanitizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = clean
	}
	return out, nil
}

func (s *Server) sanitizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return runner.CleanReply(val, s.maxInputSize)
	case map[string]any:
		return s.sanitize(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			clean, err := s.sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

func (s *Server) badRequest(w http.ResponseWriter, op string, err error) {
	writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
	s.logger.Warn(op+": invalid request body", "err", err)
}

// fail maps engine errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	writeError(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var mismatch *domain.StageMismatchError
	switch {
	case errors.As(err, &mismatch):
		return http.StatusConflict, "stage_mismatch"
	case errors.Is(err, domain.ErrInconsistentSession):
		return http.StatusConflict, "inconsistent_session"
	case errors.Is(err, domain.ErrTerminalStage):
		return http.StatusConflict, "terminal_stage"
	case errors.Is(err, domain.ErrUnknownStage):
		return http.StatusBadRequest, "unknown_stage"
	case errors.Is(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity, "extraction_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}
