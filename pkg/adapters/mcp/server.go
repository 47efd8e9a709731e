package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/internal/logging"
	"github.com/aretw0/screener/internal/presentation/graph"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/registry"
	"github.com/aretw0/screener/pkg/script"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "screener://graph"

// TurnResponse aligns with the HTTP adapter's Turn and tells the model what to say next.
type TurnResponse struct {
	Stage    domain.StageID        `json:"stage" jsonschema_description:"The stage the interview is now at"`
	Prompt   string                `json:"prompt" jsonschema_description:"Instructions for the next thing to say"`
	Terminal bool                  `json:"terminal" jsonschema_description:"True once the interview is over"`
	Function string                `json:"function,omitempty" jsonschema_description:"Function to call once the stage is done"`
	Role     string                `json:"role,omitempty" jsonschema_description:"System persona for the conversation"`
	State    domain.InterviewState `json:"state" jsonschema_description:"Data collected so far"`
	Attempts int                   `json:"attempts" jsonschema_description:"Failed attempts on the current stage"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	registry.Engine
	NewSession(ctx context.Context, id string) *domain.Session
	Enter(ctx context.Context, sess *domain.Session, stage domain.StageID) (string, error)
	Stage(id domain.StageID) (domain.Stage, bool)
}

var _ Engine = (*screener.Engine)(nil)

// Server exposes a single interview as MCP tools, one per script function.
// mcp-go may dispatch tool calls concurrently, so the session is guarded.
type Server struct {
	engine    Engine
	functions *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
	handlers  map[string]server.ToolHandlerFunc

	mu   sync.Mutex
	sess *domain.Session
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger. Logs must not go to stdout under stdio transport.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance with a fresh interview.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	functions, err := registry.ForEngine(engine)
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:    engine,
		functions: functions,
		mcpServer: server.NewMCPServer("screener-mcp", screener.Version),
		logger:    logging.NewNop(),
		handlers:  make(map[string]server.ToolHandlerFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sess = engine.NewSession(context.Background(), "")
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Session returns a copy of the current interview session.
func (s *Server) Session() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Clone()
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.handlers[tool.Name] = handler
	s.mcpServer.AddTool(tool, handler)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("current_prompt",
		mcp.WithDescription("Get the instructions for the current stage of the interview without changing it."),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleCurrentPrompt))

	s.addTool(mcp.NewTool("restart_interview",
		mcp.WithDescription("Discard the current interview and start a new one at the greeting."),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	policy := s.engine.Script().Salary
	for _, spec := range s.functions.Specs() {
		opts := []mcp.ToolOption{
			mcp.WithDescription(spec.Description),
			mcp.WithOutputSchema[TurnResponse](),
		}
		switch spec.Expects {
		case domain.ShapeSalary:
			opts = append(opts, mcp.WithNumber(spec.Param(),
				mcp.Required(),
				mcp.Description(spec.Argument),
				mcp.Min(policy.Minimum),
				mcp.Max(policy.Maximum),
			))
		case domain.ShapeName, domain.ShapeMotivation:
			opts = append(opts, mcp.WithString(spec.Param(),
				mcp.Required(),
				mcp.Description(spec.Argument),
			))
		}
		s.addTool(mcp.NewTool(spec.Name, opts...), mcp.NewStructuredToolHandler(s.handleFunction(spec.Name)))
	}

	s.addTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the interview flow as a Mermaid flowchart, with visited stages highlighted."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess := s.Session()
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Inspect(), graph.OverlayFor(sess))), nil
	})
}

func (s *Server) handleCurrentPrompt(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn(ctx)
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("interview restarted", "previous_session", s.sess.ID, "stage", s.sess.Current)
	s.sess = s.engine.NewSession(ctx, "")
	return s.turn(ctx)
}

func (s *Server) handleFunction(name string) func(context.Context, mcp.CallToolRequest, map[string]any) (TurnResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		_, err := s.functions.Execute(ctx, name, s.sess, args)
		if err != nil {
			log := s.logger.With("session_id", s.sess.ID, "function", name)
			var xerr *domain.ExtractionError
			switch {
			case errors.As(err, &xerr):
				reprompt, _ := s.engine.RenderText(s.engine.Script().Reprompt, s.sess)
				log.Info("extraction failed", "attempts", s.sess.Attempts, "err", err)
				return TurnResponse{}, fmt.Errorf("%s (%s: %s). Ask again and call %s with a valid %s", reprompt, xerr.Field, xerr.Reason, name, xerr.Field)
			case errors.Is(err, registry.ErrOutOfTurn):
				return TurnResponse{}, fmt.Errorf("%w. Call current_prompt to see what to do next", err)
			default:
				log.Error("function failed", "err", err)
				return TurnResponse{}, err
			}
		}
		return s.turn(ctx)
	}
}

// turn renders the current stage. Callers hold s.mu.
func (s *Server) turn(ctx context.Context) (TurnResponse, error) {
	prompt, err := s.engine.Enter(ctx, s.sess, s.sess.Current)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("render failed: %w", err)
	}
	stage, _ := s.engine.Stage(s.sess.Current)
	role, err := s.engine.RenderText(s.engine.Script().Role, s.sess)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("render failed: %w", err)
	}
	return TurnResponse{
		Stage:    stage.ID,
		Prompt:   prompt,
		Terminal: stage.Terminal(),
		Function: stage.Function,
		Role:     role,
		State:    s.sess.State.Clone(),
		Attempts: s.sess.Attempts,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Interview Stages",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		body, err := json.Marshal(struct {
			Stages []domain.Stage `json:"stages"`
			Script *script.Script `json:"script"`
		}{s.engine.Inspect(), s.engine.Script()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode stages: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	})
}
