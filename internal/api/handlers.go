package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"forecast-oversight/internal/dashboard"
)

type uploadParams struct {
	Name string `validate:"max=200"`
}

// parseFilterQuery reads year_min, year_max and risk from the URL.
// An absent risk parameter selects every level; "risk=" selects none.
func (s *Server) parseFilterQuery(values url.Values) (dashboard.FilterQuery, error) {
	var q dashboard.FilterQuery

	for _, p := range []struct {
		key string
		dst **int
	}{
		{"year_min", &q.YearMin},
		{"year_max", &q.YearMax},
	} {
		raw := strings.TrimSpace(values.Get(p.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, p.key, raw)
		}
		*p.dst = &n
	}

	if raw, ok := values["risk"]; ok {
		q.Levels = []string{}
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					q.Levels = append(q.Levels, part)
				}
			}
		}
	}

	if err := s.checkStruct(q); err != nil {
		return q, err
	}
	return q, nil
}

// checkStruct runs struct-tag validation and reports failures as bad requests.
func (s *Server) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s fails %q", errBadRequest, fe.Field(), fe.ActualTag())
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	params := uploadParams{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if err := s.checkStruct(params); err != nil {
		s.writeError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	defer body.Close()

	summary, err := s.svc.Upload(r.Context(), params.Name, body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatasetJSON(summary))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]datasetJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toDatasetJSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetJSON(summary))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseFilterQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.KPIs(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpiResponse{
		DatasetID:  res.DatasetID,
		Filter:     toFilterJSON(res.Filter),
		KPIs:       toKPIJSON(res.KPIs),
		SnapshotID: res.SnapshotID,
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseFilterQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := s.svc.View(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewJSON{
		Dataset:         toDatasetJSON(v.Dataset),
		Filter:          toFilterJSON(v.Filter),
		KPIs:            toKPIJSON(v.KPIs),
		SnapshotID:      v.SnapshotID,
		Insights:        toInsightsJSON(v.Insights),
		Series:          toSeriesJSON(v.Series),
		Roadmap:         toRoadmapJSON(v.Roadmap),
		Recommendations: toRecommendationsJSON(v.Recommendations),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseFilterQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	md, err := s.svc.Report(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

func (s *Server) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseFilterQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.svc.RecordsCSV(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_records.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]snapshotJSON, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toSnapshotJSON(snap))
	}
	writeJSON(w, http.StatusOK, out)
}
