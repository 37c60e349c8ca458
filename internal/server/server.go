// Package server exposes the trading engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// NewsProvider is the slice of the news service the API needs.
type NewsProvider interface {
	Sentiment(ctx context.Context, symbol string) (types.NewsSentiment, error)
}

// StrategyFactory builds a strategy by name, with parameters from the
// configuration. Unknown names must return an error.
type StrategyFactory func(name string) (interfaces.Strategy, error)

type Server struct {
	engine     interfaces.Engine
	news       NewsProvider
	strategies StrategyFactory
	httpServer *http.Server
}

// Options carries the optional collaborators; nil fields disable the
// corresponding endpoints.
type Options struct {
	News       NewsProvider
	Strategies StrategyFactory
}

func New(addr string, eng interfaces.Engine, opts Options) *Server {
	s := &Server{
		engine:     eng,
		news:       opts.News,
		strategies: opts.Strategies,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scan_stocks", s.handleScanStocks)
	mux.HandleFunc("POST /api/execute_trade", s.handleExecuteTrade)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/strategy", s.handleSetStrategy)
	mux.HandleFunc("GET /api/news", s.handleNews)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logger.Info(context.Background(), "HTTP server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type scanRequest struct {
	Symbols []string `json:"symbols"`
}

type scanResponse struct {
	Results []types.SignalResult `json:"results"`
}

func (s *Server) handleScanStocks(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols must not be empty")
		return
	}
	results := s.engine.ScanStocks(r.Context(), req.Symbols)
	writeJSON(w, http.StatusOK, scanResponse{Results: results})
}

type executeTradeRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Condition string  `json:"condition"`
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req executeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	result := s.engine.ExecuteOrder(r.Context(), types.OrderRequest{
		Symbol:    req.Symbol,
		Side:      types.OrderSide(req.Side),
		Quantity:  req.Quantity,
		Price:     req.Price,
		Condition: req.Condition,
	})
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.PortfolioDetails(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type strategyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSetStrategy(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		writeError(w, http.StatusNotImplemented, "strategy switching not configured")
		return
	}
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strat, err := s.strategies(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.engine.SetStrategy(strat)
	writeJSON(w, http.StatusOK, map[string]string{"strategy": strat.Name()})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusNotImplemented, "news service not configured")
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}
	sentiment, err := s.news.Sentiment(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sentiment)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), "Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
