package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/revenue"
	"github.com/iwvelando/consultorio/pkg/datetime"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// defaultReportDays is the span reported when no "desde" is given.
const defaultReportDays = 30

type costsResponse struct {
	Analysis       costs.Analysis       `json:"analisis"`
	Recommendation costs.Recommendation `json:"recomendaciones"`
	ManualHourly   float64              `json:"costo_por_hora_manual"`
}

type dashboardResponse struct {
	Summary        revenue.Summary      `json:"resumen"`
	Analysis       costs.Analysis       `json:"costos"`
	Recommendation costs.Recommendation `json:"recomendaciones"`
	Monthly        []revenue.MonthTotal `json:"ingresos_mensuales"`
	Treatments     []revenue.GroupTotal `json:"tratamientos"`
	PaymentMethods []revenue.GroupTotal `json:"medios_pago"`
	DateRange      revenue.Range        `json:"rango_fechas"`
}

type quoteRequest struct {
	Hours        float64  `json:"horas"`
	Materials    float64  `json:"materiales"`
	ProfitMargin *float64 `json:"margen"`
	UseManual    bool     `json:"usar_costo_manual"`
}

func (h *handler) analyze(doc records.Document) (costs.Analysis, costs.Recommendation) {
	analysis := h.calc.Analyze(doc)
	return analysis, h.calc.Recommend(analysis, revenue.Activity(doc.Visits))
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	doc := h.session(r).Records.Snapshot()
	h.writeJSON(w, http.StatusOK, revenue.Summarize(doc.Visits, h.now()))
}

func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	doc := h.session(r).Records.Snapshot()
	analysis, rec := h.analyze(doc)
	h.writeJSON(w, http.StatusOK, dashboardResponse{
		Summary:        revenue.Summarize(doc.Visits, h.now()),
		Analysis:       analysis,
		Recommendation: rec,
		Monthly:        revenue.Monthly(doc.Visits),
		Treatments:     revenue.ByTreatment(doc.Visits),
		PaymentMethods: revenue.ByPaymentMethod(doc.Visits),
		DateRange:      revenue.DateRange(doc.Visits),
	})
}

func (h *handler) handleCosts(w http.ResponseWriter, r *http.Request) {
	doc := h.session(r).Records.Snapshot()
	analysis, rec := h.analyze(doc)
	h.writeJSON(w, http.StatusOK, costsResponse{
		Analysis:       analysis,
		Recommendation: rec,
		ManualHourly:   doc.Config.HourlyCost,
	})
}

// handleReport reports on [desde, hasta]. hasta defaults to today and desde
// to thirty days earlier.
func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	to := datetime.StartOfDay(h.now())
	if raw := r.URL.Query().Get("hasta"); raw != "" {
		parsed, err := datetime.ParseDay(raw)
		if err != nil {
			h.respondErr(w, fmt.Errorf("%w: hasta: %v", validation.ErrInvalidInput, err), op)
			return
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -defaultReportDays)
	if raw := r.URL.Query().Get("desde"); raw != "" {
		parsed, err := datetime.ParseDay(raw)
		if err != nil {
			h.respondErr(w, fmt.Errorf("%w: desde: %v", validation.ErrInvalidInput, err), op)
			return
		}
		from = parsed
	}
	if from.After(to) {
		h.respondErr(w, fmt.Errorf("%w: desde is after hasta", validation.ErrInvalidInput), op)
		return
	}

	doc := h.session(r).Records.Snapshot()
	h.writeJSON(w, http.StatusOK, revenue.Period(doc.Visits, from, to))
}

// handleQuote prices a treatment with the real hourly cost, or with the
// manual rate from the settings when asked to.
func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuote"

	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, err, op)
		return
	}

	doc := h.session(r).Records.Snapshot()
	hourly := doc.Config.HourlyCost
	if !req.UseManual {
		hourly = h.calc.Analyze(doc).HourlyCost
	}
	margin := doc.Config.ProfitMargin
	if req.ProfitMargin != nil {
		margin = *req.ProfitMargin
	}

	quote, err := h.calc.Quote(req.Hours, req.Materials, hourly, margin)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// handleProfessional runs the professional calculator. The body is merged
// over the built-in sector averages: keys it names replace the default
// amount, keys it omits keep theirs, and a bucket is dropped by sending 0.
// With ?reemplazar=true the cost buckets start empty and only the operating
// parameters keep their defaults.
func (h *handler) handleProfessional(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProfessional"

	in := costs.DefaultProfessionalInputs()
	if replace, _ := strconv.ParseBool(r.URL.Query().Get("reemplazar")); replace {
		in.Fixed = map[string]float64{}
		in.Variable = map[string]float64{}
		in.Personal = map[string]float64{}
	}
	if err := decodeJSON(r, &in); err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := in.Validate(); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, costs.Professional(in))
}

// handleExport returns the whole document as YAML, keeping the stored key names.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	s := h.session(r)
	doc := s.Records.Snapshot()
	data, err := json.Marshal(doc)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		h.respondErr(w, err, op)
		return
	}

	out, err := marshalOrderedYAML(payload, []string{"config", "consultas", "equipos", "gastos_fijos"})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	filename := fmt.Sprintf("consultorio_%s_%s.yaml", s.UserID, h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Warn("failed to write export", zap.String("op", op), zap.Error(err))
	}
}

// marshalOrderedYAML writes the leading keys first, then the rest sorted.
func marshalOrderedYAML(payload map[string]interface{}, leading []string) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range leading {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedMap{items: items})
}

type orderedMap struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedMap) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}
