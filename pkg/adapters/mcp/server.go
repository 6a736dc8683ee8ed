// Package mcp exposes the calculator and plotter as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/mathexpr"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Service is the part of plotcalc.Service the tools need.
type Service interface {
	Calculate(ctx context.Context, text string) string
	Sample(ctx context.Context, text string, d domain.Domain, n int) ([]domain.Sample, error)
	PlotExpressions(ctx context.Context, exprs []string, d domain.Domain, n int) (domain.Plot, error)
	CreateSession(ctx context.Context) (*domain.PlotState, error)
	AddFunctionWithin(ctx context.Context, sessionID, text string, b domain.Bounds) (*plotcalc.Change, error)
	RemoveFunction(ctx context.Context, sessionID string, index int) (*plotcalc.Change, error)
	SetDomain(ctx context.Context, sessionID string, d domain.Domain) (*plotcalc.Change, error)
	Plot(ctx context.Context, sessionID string) (domain.Plot, error)
	DefaultDomain() domain.Domain
}

var _ Service = (*plotcalc.Service)(nil)

// CalculateArgs are the arguments of the calculate tool.
type CalculateArgs struct {
	Expression string `json:"expression"`
}

// CalculateResult is the display string, error text included.
type CalculateResult struct {
	Result string `json:"result" jsonschema_description:"Decimal result, or a message starting with 'Error: '"`
}

// SampleArgs are the arguments of the sample_function tool.
type SampleArgs struct {
	Expression string   `json:"expression"`
	XMin       *float64 `json:"x_min,omitempty"`
	XMax       *float64 `json:"x_max,omitempty"`
	Points     int      `json:"points,omitempty"`
}

// SampleResult lists the finite points of a function.
type SampleResult struct {
	Label  string          `json:"label"`
	Domain domain.Domain   `json:"domain"`
	Points []domain.Sample `json:"points" jsonschema_description:"Points where the function is defined and finite, in ascending x"`
}

// PlotArgs are the arguments of the plot_functions tool.
type PlotArgs struct {
	Expressions []string `json:"expressions"`
	SessionID   string   `json:"session_id,omitempty"`
	XMin        *float64 `json:"x_min,omitempty"`
	XMax        *float64 `json:"x_max,omitempty"`
	Format      string   `json:"format,omitempty"`
}

// SessionArgs address a session and optionally one of its functions.
type SessionArgs struct {
	SessionID  string   `json:"session_id"`
	Expression string   `json:"expression,omitempty"`
	Index      int      `json:"index,omitempty"`
	XMin       *float64 `json:"x_min,omitempty"`
	XMax       *float64 `json:"x_max,omitempty"`
}

// SessionResult is the state of a session after a tool call.
type SessionResult struct {
	SessionID string                `json:"session_id"`
	Domain    domain.Domain         `json:"domain"`
	Functions []domain.FunctionView `json:"functions"`
}

func newSessionResult(state *domain.PlotState) SessionResult {
	return SessionResult{
		SessionID: state.SessionID,
		Domain:    state.Domain,
		Functions: domain.Views(state.Functions),
	}
}

// Server wraps a plotcalc Service and exposes it as an MCP server.
type Server struct {
	svc       Service
	renderer  *gonumplot.Renderer
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, renderer *gonumplot.Renderer, logger *slog.Logger) *Server {
	if renderer == nil {
		renderer = gonumplot.NewRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:       svc,
		renderer:  renderer,
		mcpServer: server.NewMCPServer("plotcalc-mcp", plotcalc.Version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
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

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("calculate",
		mcp.WithDescription("Evaluate an arithmetic expression once. '^' is exponentiation; sin, sqrt, log and friends are available."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression without variables, e.g. 2^10 + sqrt(2)")),
		mcp.WithOutputSchema[CalculateResult](),
	), mcp.NewStructuredToolHandler(s.handleCalculate))

	s.mcpServer.AddTool(mcp.NewTool("sample_function",
		mcp.WithDescription("Sample f(x) at evenly spaced points. Points where f is undefined or infinite are omitted."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression in x, e.g. x^2 - 1")),
		mcp.WithNumber("x_min", mcp.Description("Lower bound (default -10)")),
		mcp.WithNumber("x_max", mcp.Description("Upper bound (default 10)")),
		mcp.WithNumber("points",
			mcp.Description(fmt.Sprintf("Number of intervals (default %d, at most %d)", domain.DefaultPoints, domain.MaxPoints)),
			mcp.Max(float64(domain.MaxPoints)),
		),
		mcp.WithOutputSchema[SampleResult](),
	), mcp.NewStructuredToolHandler(s.handleSample))

	s.mcpServer.AddTool(mcp.NewTool("plot_functions",
		mcp.WithDescription("Render functions of x as a PNG or SVG chart. Pass expressions, or a session_id to draw that session."),
		mcp.WithArray("expressions", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Expressions in x")),
		mcp.WithString("session_id", mcp.Description("Plot an existing session instead of expressions")),
		mcp.WithNumber("x_min", mcp.Description("Lower bound (default -10)")),
		mcp.WithNumber("x_max", mcp.Description("Upper bound (default 10)")),
		mcp.WithString("format", mcp.Enum("png", "svg"), mcp.Description("Image format (default png)")),
	), s.handlePlot)

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a plot session seeded with the default functions."),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("add_function",
		mcp.WithDescription("Add f(x) to a session. Giving x_min and x_max also changes the session's domain."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression in x")),
		mcp.WithNumber("x_min"),
		mcp.WithNumber("x_max"),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleAddFunction))

	s.mcpServer.AddTool(mcp.NewTool("remove_function",
		mcp.WithDescription("Remove the function at a position; later functions move down one position."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleRemoveFunction))

	s.mcpServer.AddTool(mcp.NewTool("set_domain",
		mcp.WithDescription("Replot a session over [x_min, x_max]."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithNumber("x_min", mcp.Required()),
		mcp.WithNumber("x_max", mcp.Required()),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSetDomain))
}

func (s *Server) bounds(xMin, xMax *float64) domain.Domain {
	d := s.svc.DefaultDomain()
	if xMin != nil {
		d.XMin = *xMin
	}
	if xMax != nil {
		d.XMax = *xMax
	}
	return d
}

// toolError keeps user mistakes readable for the model and leaves other errors wrapped.
func toolError(op string, err error) error {
	if plotcalc.IsUserError(err) || plotcalc.IsNotFound(err) {
		return errors.New(domain.UserMessage(err))
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func (s *Server) handleCalculate(ctx context.Context, request mcp.CallToolRequest, args CalculateArgs) (CalculateResult, error) {
	return CalculateResult{Result: s.svc.Calculate(ctx, args.Expression)}, nil
}

func (s *Server) handleSample(ctx context.Context, request mcp.CallToolRequest, args SampleArgs) (SampleResult, error) {
	d := s.bounds(args.XMin, args.XMax)
	points, err := s.svc.Sample(ctx, args.Expression, d, args.Points)
	if err != nil {
		return SampleResult{}, toolError("sample", err)
	}
	return SampleResult{
		Label:  domain.Label(strings.TrimSpace(args.Expression)),
		Domain: d,
		Points: points,
	}, nil
}

func (s *Server) handlePlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args PlotArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	format := args.Format
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported image format %q", format)), nil
	}

	var (
		plot domain.Plot
		err  error
	)
	if args.SessionID != "" {
		plot, err = s.svc.Plot(ctx, args.SessionID)
	} else {
		plot, err = s.svc.PlotExpressions(ctx, args.Expressions, s.bounds(args.XMin, args.XMax), 0)
	}
	if err != nil {
		return mcp.NewToolResultError(toolError("plot", err).Error()), nil
	}

	sink := gonumplot.NewBufferSink(format, s.renderer)
	if err := sink.Replace(ctx, plot); err != nil {
		s.logger.Error("MCP plot render failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}

	labels := make([]string, len(plot.Series))
	for i, series := range plot.Series {
		labels[i] = series.Label
	}
	summary := fmt.Sprintf("%s over [%g, %g]", strings.Join(labels, "; "), plot.Domain.XMin, plot.Domain.XMax)
	if format == "svg" {
		return mcp.NewToolResultText(string(sink.Bytes())), nil
	}
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(sink.Bytes()), gonumplot.ContentType(format)), nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionResult, error) {
	state, err := s.svc.CreateSession(ctx)
	if err != nil {
		return SessionResult{}, toolError("create_session", err)
	}
	return newSessionResult(state), nil
}

func (s *Server) handleAddFunction(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	bounds := domain.Bounds{XMin: args.XMin, XMax: args.XMax}
	change, err := s.svc.AddFunctionWithin(ctx, args.SessionID, args.Expression, bounds)
	if err != nil {
		return SessionResult{}, toolError("add_function", err)
	}
	return newSessionResult(change.State), nil
}

func (s *Server) handleRemoveFunction(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	change, err := s.svc.RemoveFunction(ctx, args.SessionID, args.Index)
	if err != nil {
		return SessionResult{}, toolError("remove_function", err)
	}
	return newSessionResult(change.State), nil
}

func (s *Server) handleSetDomain(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	change, err := s.svc.SetDomain(ctx, args.SessionID, s.bounds(args.XMin, args.XMax))
	if err != nil {
		return SessionResult{}, toolError("set_domain", err)
	}
	return newSessionResult(change.State), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("plotcalc://functions", "Functions available in expressions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(map[string]any{
			"variable":  domain.Variable,
			"functions": mathexpr.FunctionNames(),
			"constants": []string{"pi", "e"},
			"operators": []string{"+", "-", "*", "/", "%", "^"},
		})
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "plotcalc://functions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
