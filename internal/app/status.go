package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/dag"
)

// statusServer exposes the state of an executing launch plan over HTTP:
// /health for liveness and /runs for per-run states. Long training plans
// run unattended for hours; this is how a cluster probe or a human checks
// on them without grepping logs.
type statusServer struct {
	srv   *http.Server
	graph *dag.Graph
}

// runStatus is the JSON shape of one entry in the /runs response.
type runStatus struct {
	Run      string `json:"run"`
	State    string `json:"state"`
	ExitCode int    `json:"exit_code"`
}

func newStatusServer(port int, graph *dag.Graph) *statusServer {
	s := &statusServer{graph: graph}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/runs", s.handleRuns)
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// start runs the server in a goroutine so it doesn't block the plan.
func (s *statusServer) start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	go func() {
		logger.Info("Status server starting.", "address", fmt.Sprintf("http://localhost%s/runs", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly.", "error", err)
		}
	}()
}

func (s *statusServer) stop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Status server shutdown failed.", "error", err)
		return
	}
	logger.Debug("Status server shut down gracefully.")
}

func (s *statusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *statusServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	statuses := make([]runStatus, 0, len(s.graph.Nodes))
	for id, n := range s.graph.Nodes {
		statuses = append(statuses, runStatus{
			Run:      id,
			State:    n.GetState().String(),
			ExitCode: n.ExitCode(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Run < statuses[j].Run })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statuses); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
