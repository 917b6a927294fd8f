package http

import (
	"encoding/json"
	"net/http"
	"time"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

const (
	endpointInsights = "insights"
	endpointSummary  = "summary"
	endpointCharts   = "charts"
)

type insightsResponse struct {
	Date     core.Date      `json:"date"`
	Insights []core.Insight `json:"insights"`
}

type categoryRule struct {
	Category core.Category `json:"category"`
	Keywords []string      `json:"keywords"`
}

type categoriesResponse struct {
	Categories []core.Category `json:"categories"`
	Rules      []categoryRule  `json:"rules"`
	Fallback   core.Category   `json:"fallback"`
}

type classifyResponse struct {
	Category core.Category `json:"category"`
	Keyword  string        `json:"keyword,omitempty"`
	Matched  bool          `json:"matched"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, endpointInsights, func(ref time.Time) any {
		return insightsResponse{Date: core.DateOf(ref), Insights: s.svc.Insights(ref)}
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, endpointSummary, func(ref time.Time) any {
		return s.svc.Summary(ref)
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, endpointCharts, func(ref time.Time) any {
		return s.svc.Charts(ref)
	})
}

// serveCached answers a derived view from the response cache. The key holds
// the collection version, so any write makes earlier entries unreachable.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, endpoint string, compute func(ref time.Time) any) {
	ref, err := referenceTime(r, s.now)
	if err != nil {
		writeError(w, r, applog.OpInsights, err)
		return
	}

	key := cache.Key(endpoint, s.svc.Version(), core.DateOf(ref))
	body, hit, err := s.responses.GetOrCompute(key, func() ([]byte, error) {
		return json.Marshal(compute(ref))
	})
	if err != nil {
		writeError(w, r, applog.OpInsights, err)
		return
	}

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	NewJSONResponse().Header("X-Cache", cacheStatus).Raw(body).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	rules := s.classifier.Rules()
	resp := categoriesResponse{
		Categories: core.Categories(),
		Rules:      make([]categoryRule, 0, len(rules)),
		Fallback:   core.Other,
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, categoryRule{Category: rule.Category, Keywords: rule.Keywords})
	}
	NewJSONResponse().JSON(resp).Write(w)
}

// handleClassify runs the classifier without storing anything.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, s.maxUpload, &req); err != nil {
		writeError(w, r, applog.OpClassify, err)
		return
	}

	var amount core.Money
	if len(req.Amount) > 0 {
		m, err := parseAmountJSON(req.Amount)
		if err != nil {
			writeError(w, r, applog.OpClassify, err)
			return
		}
		amount = m
	}

	match := s.classifier.Explain(sanitizeInput(req.Description))
	resp := classifyResponse{
		Category: s.classifier.Classify(sanitizeInput(req.Description), amount, req.ReceiptText),
		Keyword:  match.Keyword,
		Matched:  match.Matched,
	}
	NewJSONResponse().JSON(resp).Write(w)
}
