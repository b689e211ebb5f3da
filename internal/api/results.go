package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type ResultsHandler struct {
	*deps
}

// WeightsResponse answers GET /matrices/{id}/weights. WouldExceed is only
// present when the caller asked about an extra weight.
type WeightsResponse struct {
	Weights     scoring.WeightSummary `json:"weights"`
	Extra       *float64              `json:"extra,omitempty"`
	WouldExceed *bool                 `json:"would_exceed,omitempty"`
}

// Results scores and ranks every option. Invalid weights never block this;
// the summary in the result carries the warning instead.
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, id, false) == nil {
		return
	}

	start := time.Now()
	snap, err := store.Snapshot(r.Context(), h.store, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "matrix not found")
		return
	}
	res := h.eval.Evaluate(*snap)
	evaluationDuration.Observe(time.Since(start).Seconds())
	evaluations.WithLabelValues(strconv.FormatBool(res.Weights.Valid)).Inc()

	ev := events.EvaluatedEvent{
		MatrixID:     res.MatrixID,
		Options:      len(res.Ranking),
		WeightsValid: res.Weights.Valid,
		At:           time.Now().UTC(),
	}
	if res.BestOption != nil {
		ev.BestOptionID = res.BestOption.ID
		ev.BestScore = res.Scores[res.BestOption.ID]
	}
	h.emit(events.SubjectMatrixEvaluated(res.MatrixID), ev)

	writeJSON(w, http.StatusOK, res)
}

// Weights reports the weight check. ?extra=0.2 (or ?extra_percent=20) also
// answers whether adding a criterion of that weight would overshoot.
func (h *ResultsHandler) Weights(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, id, false) == nil {
		return
	}

	var extra *float64
	q := r.URL.Query()
	if v := q.Get("extra"); v != "" {
		f, err := parseFinite(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid extra")
			return
		}
		extra = &f
	} else if v := q.Get("extra_percent"); v != "" {
		f, err := parseFinite(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid extra_percent")
			return
		}
		f = scoring.FromPercent(f)
		extra = &f
	}

	rows, err := h.store.ListCriteria(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	criteria := toScoringCriteria(rows)
	policy := h.eval.Policy()

	resp := WeightsResponse{Weights: scoring.Summarize(criteria, policy)}
	if extra != nil {
		exceeds := scoring.WouldExceed(criteria, *extra, policy)
		resp.Extra = extra
		resp.WouldExceed = &exceeds
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFinite parses a float query value, rejecting NaN and infinities.
func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", v)
	}
	return f, nil
}
