// Package status implements the operator-facing introspection HTTP
// endpoint: GET-only routes exposing pool and mempool counters. It
// carries no mutating endpoint and is distinct from the user-facing API,
// which lives outside this module.
package status

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/subnetcore/validator/internal/p2p"
	"github.com/subnetcore/validator/internal/util"
)

// Server is the status/introspection HTTP server.
type Server struct {
	node   *p2p.Node
	router *mux.Router
	http   *http.Server
}

// NewServer builds a status Server bound to addr, reading pool/mempool
// state from node.
func NewServer(addr string, node *p2p.Node) *Server {
	s := &Server{node: node}
	s.router = mux.NewRouter()
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/peers", s.handlePeers).Methods(http.MethodGet)
	s.router.HandleFunc("/mempool", s.handleMempool).Methods(http.MethodGet)
}

// Start binds the listen address and begins serving in the background. A
// bind failure is returned to the caller; errors from serving after that
// are discarded.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	go func() {
		_ = s.http.Serve(ln)
	}()
	return nil
}

// Stop closes the listener and every open connection immediately, without
// waiting for in-flight requests to finish.
func (s *Server) Stop() error {
	return s.http.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type peerView struct {
	SS58Address string `json:"ss58_address"`
	Role        string `json:"role"`
	LastSeenAge string `json:"last_seen_age"`
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	conns := s.node.Pool().All()
	peers := make([]peerView, 0, len(conns))
	for _, c := range conns {
		peers = append(peers, peerView{
			SS58Address: c.Module.SS58Address,
			Role:        string(c.Module.Role()),
			LastSeenAge: util.FormatDuration(time.Since(c.LastSeen)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"peers": peers, "count": len(peers)})
}

func (s *Server) handleMempool(w http.ResponseWriter, r *http.Request) {
	events := s.node.Mempool().All()

	resp := map[string]interface{}{"count": len(events)}
	if len(events) > 0 {
		resp["oldest_created_at"] = events[0].EventParams.CreatedAt
		resp["newest_created_at"] = events[len(events)-1].EventParams.CreatedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
