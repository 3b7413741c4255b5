// Package server orchestrates all components: NATS client, DB, catalog, fabric, registry, orchestrator, HTTP status.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/condo-orchestrator/internal/config"
	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/agents/handlers"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
	"github.com/morezero/condo-orchestrator/pkg/commsutil"
	"github.com/morezero/condo-orchestrator/pkg/db"
	"github.com/morezero/condo-orchestrator/pkg/events"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
	"github.com/morezero/condo-orchestrator/pkg/orchestrator"
	"github.com/morezero/condo-orchestrator/pkg/router"
)

const logPrefix = "server:server"

// Server wires the orchestration core to its collaborators.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	httpServer *http.Server
	cat        *catalog.Catalog
	orc        *orchestrator.Orchestrator
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	// Setup structured logging
	var logLevel slog.Level
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting condo-orchestrator", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	taskSubject := cfg.TaskSubject
	if taskSubject == "" {
		taskSubject = commsutil.SubjectTask
	}
	routeSubject := cfg.RouteSubject
	if routeSubject == "" {
		routeSubject = commsutil.SubjectRoute
	}
	statusSubject := cfg.StatusSubject
	if statusSubject == "" {
		statusSubject = commsutil.SubjectStatus
	}
	slog.Info(fmt.Sprintf("%s - Subjects: task=%s route=%s status=%s", logPrefix, taskSubject, routeSubject, statusSubject))

	// Step 1: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	// Step 2: Connect to database when configured
	var repo *db.Repository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		repo = db.NewRepository(pool)
	} else {
		slog.Info(fmt.Sprintf("%s - DATABASE_URL not set, task history persistence disabled", logPrefix))
	}

	// Step 3: AI collaborator
	llm, err := ai.NewClient(ai.FactoryConfig{
		Provider:     cfg.AIProvider,
		Model:        cfg.AIModel,
		Temperature:  cfg.AITemperature,
		MaxTokens:    cfg.AIMaxTokens,
		OpenAIKey:    cfg.OpenAIKey,
		AnthropicKey: cfg.AnthropicKey,
	})
	if err != nil {
		s.closeAll()
		return fmt.Errorf("%s - failed to create AI client: %w", logPrefix, err)
	}

	// Step 4: Catalog, fabric, registry, orchestrator
	cat := catalog.Default()
	s.cat = cat
	fab := fabric.New()

	publisherOpts := &events.CommsPublisherOpts{}
	if cfg.ChangeEventSubject != "" {
		publisherOpts.GlobalChangeSubject = cfg.ChangeEventSubject
	}
	var publisher events.EventPublisher = events.NewCommsPublisher(nc, publisherOpts)
	if repo != nil {
		audit := events.NewCallbackPublisher(func(ctx context.Context, event *events.ChangedEvent) error {
			if event.Kind != events.KindAgentCreated && event.Kind != events.KindAgentDestroyed {
				return nil
			}
			return repo.InsertAgentEvent(ctx, event.AgentID, event.TenantID, event.HandlerType, event.Kind)
		})
		publisher = events.NewFanoutPublisher(publisher, audit)
	}

	reg := agents.NewRegistry(agents.NewRegistryParams{
		Factories: handlers.DefaultChain(handlers.ChainDeps{Types: cat.Types()}),
		Fabric:    fab,
		AI:        llm,
		Catalog:   cat,
		Publisher: publisher,
	})

	var persist orchestrator.PersistFunc
	if repo != nil {
		persist = persistTask(repo)
	}
	orc := orchestrator.New(orchestrator.NewOrchestratorParams{
		Router:      router.New(cat, llm),
		Registry:    reg,
		Fabric:      fab,
		Publisher:   publisher,
		Persist:     persist,
		HistorySize: cfg.HistorySize,
	})
	if err := orc.Start(); err != nil {
		s.closeAll()
		return fmt.Errorf("%s - failed to start orchestrator: %w", logPrefix, err)
	}
	s.orc = orc

	// Persist failures surface on their own channel; drain and log them.
	go func() {
		for err := range orc.PersistErrors() {
			slog.Error(fmt.Sprintf("%s - task persistence: %v", logPrefix, err))
		}
	}()

	// Step 5: Subscribe to inbound subjects
	disp := orchestrator.NewDispatcher(orc)
	requestTimeout := cfg.RequestTimeout

	dispatchHandler := func(msg *comms.Msg) {
		var req orchestrator.TaskEnvelope
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			resp := &orchestrator.ReplyEnvelope{
				Ok: false,
				Error: &orchestrator.Error{
					Code:    orchestrator.CodeInvalidRequest,
					Message: "Failed to decode request",
				},
			}
			data, _ := json.Marshal(resp)
			msg.Respond(data)
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp := disp.Dispatch(reqCtx, &req)

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		msg.Respond(data)
	}

	taskSub, err := nc.Subscribe(taskSubject, func(msg *comms.Msg) {
		dispatchHandler(forceMethod(msg, "process"))
	})
	if err != nil {
		s.closeAll()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, taskSubject, err)
	}
	routeSub, err := nc.Subscribe(routeSubject, func(msg *comms.Msg) {
		dispatchHandler(forceMethod(msg, "smartRoute"))
	})
	if err != nil {
		taskSub.Unsubscribe()
		s.closeAll()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, routeSubject, err)
	}
	statusSub, err := nc.Subscribe(statusSubject, func(msg *comms.Msg) {
		dispatchHandler(forceMethod(msg, "status"))
	})
	if err != nil {
		taskSub.Unsubscribe()
		routeSub.Unsubscribe()
		s.closeAll()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, statusSubject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s, %s, %s", logPrefix, taskSubject, routeSubject, statusSubject))

	// Step 6: Start HTTP status server
	healthTimeout := cfg.HealthCheckTimeout
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		h := s.health(healthCtx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP status server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Condo-orchestrator is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	taskSub.Unsubscribe()
	routeSub.Unsubscribe()
	statusSub.Unsubscribe()
	s.httpServer.Shutdown(ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	orc.Shutdown(shutdownCtx)
	shutdownCancel()
	nc.Drain()
	if s.pool != nil {
		s.pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// forceMethod stamps the subject's fixed method onto the envelope so each
// subject stays single-purpose even when callers omit the method field.
func forceMethod(msg *comms.Msg, method string) *comms.Msg {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(msg.Data, &probe); err != nil {
		return msg
	}
	if _, ok := probe["method"]; ok {
		return msg
	}
	probe["method"] = json.RawMessage(fmt.Sprintf("%q", method))
	data, err := json.Marshal(probe)
	if err != nil {
		return msg
	}
	clone := *msg
	clone.Data = data
	return &clone
}

func (s *Server) closeAll() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

// healthOutput is the /health response body.
type healthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) health(ctx context.Context) *healthOutput {
	checks := map[string]bool{
		"comms": s.nc != nil && s.nc.IsConnected(),
	}
	if s.pool != nil {
		checks["database"] = s.pool.Ping(ctx) == nil
	}
	status := "healthy"
	for _, ok := range checks {
		if !ok {
			status = "unhealthy"
		}
	}
	return &healthOutput{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// homePageTemplate is the HTML for the orchestrator home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Condo Orchestrator</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
  </style>
</head>
<body>
  <h1>Condo Orchestrator</h1>
  <p class="meta">Orchestrator health, statistics, and live handler instances.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    {{range $name, $ok := .Health.Checks}}
    <p>{{$name}}: {{if $ok}}<span class="stat">OK</span>{{else}}<span class="error">Failed</span>{{end}}</p>
    {{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Statistics</h2>
    <p>Handler types supported: <span class="stat">{{len .Status.HandlerTypes}}</span></p>
    <p>Active instances: <span class="stat">{{.Status.ActiveInstances}}</span></p>
    <p>Messages routed: <span class="stat">{{.Status.MessagesRouted}}</span></p>
    <p>Broadcasts sent: <span class="stat">{{.Status.BroadcastsSent}}</span></p>
    <p>Recent tasks in history: <span class="stat">{{.Status.HistorySize}}</span></p>
  </section>

  <section>
    <h2>Live instances</h2>
    {{if not .Status.Tenants}}
    <p>No live handler instances.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Tenant</th><th>Handler</th><th>Status</th><th>Requests</th><th>Errors</th><th>Last activity</th></tr>
      </thead>
      <tbody>
        {{range $tenant, $instances := .Status.Tenants}}
        {{range $instances}}
        <tr>
          <td>{{$tenant}}</td>
          <td>{{.Type}}</td>
          <td>{{.Status}}</td>
          <td>{{.RequestCount}}</td>
          <td>{{.ErrorCount}}</td>
          <td>{{.LastActivity.Format "2006-01-02 15:04:05"}}</td>
        </tr>
        {{end}}
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Catalog</h2>
    <table>
      <thead>
        <tr><th>Type</th><th>Description</th><th>Priority</th><th>Version</th></tr>
      </thead>
      <tbody>
        {{range .Descriptors}}
        <tr>
          <td>{{.Type}}</td>
          <td>{{.Description}}</td>
          <td>{{.Priority}}</td>
          <td>{{.Version}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health      *healthOutput
	Status      orchestrator.Status
	Descriptors []catalog.Descriptor
}

// handleHome returns an HTTP handler for the orchestrator home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{
			Health:      s.health(ctx),
			Status:      s.orc.Status(),
			Descriptors: s.cat.Descriptors(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// persistTask adapts the repository to the orchestrator's persistence hook.
func persistTask(repo *db.Repository) orchestrator.PersistFunc {
	return func(ctx context.Context, req *orchestrator.TaskRequest, resp *orchestrator.TaskResponse) error {
		rec := &db.TaskRecord{
			RequestID:    resp.RequestID,
			TenantID:     req.TenantID,
			HandlerType:  resp.HandlerType,
			RouteMethod:  resp.RouteMethod,
			Message:      req.Message,
			Success:      resp.Success,
			ProcessingMs: resp.ProcessingMs,
			Created:      resp.Timestamp,
		}
		if req.UserID != "" {
			rec.UserID = &req.UserID
		}
		if resp.Response != "" {
			rec.Response = &resp.Response
		}
		if resp.Error != nil {
			rec.ErrorCode = &resp.Error.Code
			details := resp.Error.Error()
			rec.ErrorDetails = &details
		}
		return repo.InsertTask(ctx, rec)
	}
}
