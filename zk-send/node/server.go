package node

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
)

// Server exposes a Ledger over the node RPC routes and the indexer route.
type Server struct {
	ledger *Ledger
	log    zerolog.Logger
}

func NewServer(ledger *Ledger, log zerolog.Logger) *Server {
	return &Server{
		ledger: ledger,
		log:    log.With().Str("module", "devnode").Logger(),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/chain", func(cr chi.Router) {
		cr.Post("/"+MethodGetChainInfo, s.handleGetChainInfo)
		cr.Post("/"+MethodGetTransaction, s.handleGetTransaction)
		cr.Post("/"+MethodGetNoteWitness, s.handleGetNoteWitness)
		cr.Post("/"+MethodBroadcastTransaction, s.handleBroadcastTransaction)
	})
	r.Get("/v0/api/transaction/{hash}", s.handleLocateTransaction)
	return r
}

func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleGetChainInfo(w http.ResponseWriter, r *http.Request) {
	h := s.ledger.Height()
	writeEnvelope(w, http.StatusOK, types.ChainInfo{
		CurrentBlockIdentifier: types.BlockIdentifier{Index: strconv.FormatUint(uint64(h), 10)},
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	var req GetTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hash := strings.ToLower(req.TransactionHash)
	if req.BlockHash != "" {
		loc, err := s.ledger.LocateTransaction(hash)
		if err != nil || loc.BlockHash != strings.ToLower(req.BlockHash) {
			writeError(w, http.StatusNotFound, ErrTxNotFound)
			return
		}
	}
	rec, err := s.ledger.GetTransaction(hash)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeEnvelope(w, http.StatusOK, rec)
}

func (s *Server) handleGetNoteWitness(w http.ResponseWriter, r *http.Request) {
	var req GetNoteWitnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	wit, err := s.ledger.Witness(req.Index)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoteOutOfRange) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeEnvelope(w, http.StatusOK, wit)
}

func (s *Server) handleBroadcastTransaction(w http.ResponseWriter, r *http.Request) {
	var req BroadcastTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bz, err := hex.DecodeString(req.Transaction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := s.ledger.Broadcast(bz)
	if resp.Success {
		s.log.Info().Str("hash", resp.Hash).Msg("accepted transaction")
	} else {
		s.log.Info().Str("reason", *resp.Reason).Msg("rejected transaction")
	}
	writeEnvelope(w, http.StatusOK, resp)
}

func (s *Server) handleLocateTransaction(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(chi.URLParam(r, "hash"))
	loc, err := s.ledger.LocateTransaction(hash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loc)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	bz, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: status, Data: bz})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": err.Error(),
	})
}
