package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/domain/search/filter"
	"github.com/hoanganh/voucherd/internal/domain/search/mode"
	"github.com/hoanganh/voucherd/internal/domain/search/request"
	"github.com/hoanganh/voucherd/internal/normalizer"
	"github.com/hoanganh/voucherd/internal/repository/voucher"
	"github.com/hoanganh/voucherd/internal/usecase/facade"
	"github.com/hoanganh/voucherd/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// error response codes.
const (
	codeBadRequest = "bad_request"
	codeNotFound   = "not_found"
	codeUpstream   = "upstream_unavailable"
	codeTimeout    = "deadline_exceeded"
	codeOverloaded = "overloaded"
	codeInternal   = "internal_error"
)

// Server implements the voucher search HTTP API.
type Server struct {
	facade        *facade.Facade
	vouchers      *voucher.Repo
	health        *health.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(f *facade.Facade, vouchers *voucher.Repo, healthSvc *health.Service, logger *zap.Logger) *Server {
	s := &Server{facade: f, vouchers: vouchers, health: healthSvc, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeUpstream),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusBadGateway, codeUpstream),
		sentinelHandler(domain.ErrGeneratorUnavailable, http.StatusBadGateway, codeUpstream),
		sentinelHandler(domain.ErrDeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrOverloaded, http.StatusTooManyRequests, codeOverloaded),
	}
	return s
}

// searchRequestBody is the JSON body accepted by POST /v1/search.
type searchRequestBody struct {
	Query          string      `json:"query"`
	Mode           string      `json:"mode"`
	TopK           int         `json:"top_k"`
	StrictLocation bool        `json:"strict_location"`
	MinScore       float64     `json:"min_score"`
	Filters        *filterBody `json:"filters,omitempty"`
}

type filterBody struct {
	Must    []conditionBody `json:"must,omitempty"`
	Should  []conditionBody `json:"should,omitempty"`
	MustNot []conditionBody `json:"must_not,omitempty"`
}

type conditionBody struct {
	Key   string     `json:"key"`
	Match string     `json:"match,omitempty"`
	Range *rangeBody `json:"range,omitempty"`
}

type rangeBody struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	filters, err := filtersFromBody(body.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	// The length floor in §6 is stated "after normalization" (e.g. a query that's
	// all whitespace or punctuation collapses to fewer than 2 chars once
	// normalized, even if its raw length clears the floor): request.New enforces
	// it against a normalized query, so normalize once here and pass that form
	// through — normalizing is idempotent, so the façade's own re-normalization
	// during parsing is a no-op on this input.
	normalized, _ := normalizer.Normalize(body.Query)

	req, err := request.New(normalized, mode.Mode(body.Mode), filters, body.TopK, body.StrictLocation, body.MinScore)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	resp, err := s.facade.Search(r.Context(), req.Query(), req.Mode(), req.TopK(), req.Filters(), req.StrictLocation(), req.MinScore())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToJSON(resp))
}

// UpsertVoucher handles PUT /v1/vouchers/{id}.
func (s *Server) UpsertVoucher(w http.ResponseWriter, r *http.Request, id string) {
	var v domain.Voucher
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	v.ID = id

	created, err := s.vouchers.Upsert(r.Context(), &v)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"id": v.ID, "created": created})
}

// DeleteVoucher handles DELETE /v1/vouchers/{id}.
func (s *Server) DeleteVoucher(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.vouchers.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVoucher handles GET /v1/vouchers/{id}.
func (s *Server) GetVoucher(w http.ResponseWriter, r *http.Request, id string) {
	v, err := s.vouchers.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func filtersFromBody(f *filterBody) (filter.Expression, error) {
	if f == nil {
		return filter.NewExpression(nil, nil, nil)
	}
	must, err := conditionsFromBody(f.Must)
	if err != nil {
		return filter.Expression{}, err
	}
	should, err := conditionsFromBody(f.Should)
	if err != nil {
		return filter.Expression{}, err
	}
	mustNot, err := conditionsFromBody(f.MustNot)
	if err != nil {
		return filter.Expression{}, err
	}
	expr, err := filter.NewExpression(must, should, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filters: %w", err)
	}
	return expr, nil
}

func conditionsFromBody(cs []conditionBody) ([]filter.Condition, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, 0, len(cs))
	for _, c := range cs {
		if c.Match != "" && c.Range != nil {
			return nil, fmt.Errorf("filter condition for %q must have match or range, not both", c.Key)
		}
		if c.Match != "" {
			cond, err := filter.NewMatch(c.Key, c.Match)
			if err != nil {
				return nil, fmt.Errorf("match filter: %w", err)
			}
			out = append(out, cond)
			continue
		}
		if c.Range != nil {
			rf, err := filter.NewRangeFilter(c.Range.GT, c.Range.GTE, c.Range.LT, c.Range.LTE)
			if err != nil {
				return nil, fmt.Errorf("range filter: %w", err)
			}
			cond, err := filter.NewRange(c.Key, rf)
			if err != nil {
				return nil, fmt.Errorf("range condition: %w", err)
			}
			out = append(out, cond)
			continue
		}
		return nil, fmt.Errorf("filter condition for %q must have either match or range", c.Key)
	}
	return out, nil
}

// searchResponseToJSON shapes the façade response for the wire. min_score
// filtering already happened in Facade.Search, so results and
// metadata.total_results here always describe the same set.
func searchResponseToJSON(resp *facade.Response) map[string]any {
	items := make([]map[string]any, 0, len(resp.Results))
	for i, r := range resp.Results {
		item := map[string]any{
			"voucher_id":       r.VoucherID(),
			"voucher_name":     r.VoucherName(),
			"content_snippet":  r.ContentSnippet(),
			"location":         r.Location(),
			"service_info":     r.ServiceInfo(),
			"price_info":       r.PriceInfo(),
			"target_audience":  r.TargetAudience(),
			"similarity_score": r.SimilarityScore(),
			"raw_score":        r.RawScore(),
			"ranking_factor":   r.RankingFactor(),
			"search_method":    r.SearchMethod(),
		}
		if i < len(resp.Explanations) {
			item["explanation"] = resp.Explanations[i]
		}
		items = append(items, item)
	}

	out := map[string]any{
		"query":   resp.Query,
		"mode":    resp.Mode,
		"results": items,
		"metadata": map[string]any{
			"total_results":       resp.Metadata.TotalResults,
			"processing_time_ms":  resp.Metadata.ProcessingTimeMs,
			"search_method":       resp.Metadata.SearchMethod,
			"embedding_dimension": resp.Metadata.EmbeddingDimension,
		},
	}
	if resp.ParsedComponents != nil {
		out["parsed_components"] = resp.ParsedComponents
	}
	if resp.SearchStrategy != nil {
		out["search_strategy"] = resp.SearchStrategy
	}
	if resp.Answer != "" {
		out["answer"] = resp.Answer
		out["confidence"] = resp.Confidence
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrBadRequest,
		domain.ErrInvalidDocument,
		domain.ErrEmbeddingUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrGeneratorUnavailable,
		domain.ErrDeadlineExceeded,
		domain.ErrOverloaded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
