// internal/api/recommend.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	commonerrors "subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/validation"
	"subsidy-recommender/internal/models"
)

var profileSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "income":           {"type": ["number", "string", "null"]},
    "land_size":        {"type": ["number", "string", "null"]},
    "farmer_type":      {"type": ["string", "null"]},
    "crop_type":        {"type": ["string", "null"]},
    "season":           {"type": ["string", "null"]},
    "soil_type":        {"type": ["string", "null"]},
    "state":            {"type": ["string", "null"]},
    "district":         {"type": ["string", "null"]},
    "rainfall_region":  {"type": ["string", "null"]},
    "temperature_zone": {"type": ["string", "null"]},
    "water_sources":    {"type": ["array", "string", "null"]},
    "past_subsidies":   {"type": ["array", "string", "null"]}
  }
}`)

// requestError is a message returned verbatim to the client.
type requestError string

func (e requestError) Error() string { return string(e) }

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get(RequestIDHeader)

	profile, err := decodeProfile(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.recordRun(r, "invalid", start)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: string(commonerrors.ErrCodeInputValidationFailed), RequestID: requestID})
		return
	}

	resp, err := s.svc.Recommend(r.Context(), profile)
	if err != nil {
		stdErr := commonerrors.Normalize(err)
		status := commonerrors.HTTPStatus(stdErr.Code)
		if status >= http.StatusInternalServerError {
			s.logger.Error("recommendation failed", map[string]interface{}{
				"requestId": requestID,
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
			s.recordRun(r, "error", start)
		} else {
			s.recordRun(r, "invalid", start)
		}
		writeJSON(w, status, errorResponse{Error: stdErr.Message, Code: string(stdErr.Code), RequestID: requestID})
		return
	}

	if resp.Cached {
		s.recordRun(r, "cached", start)
	} else {
		s.recordRun(r, "success", start)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordRun(r *http.Request, status string, start time.Time) {
	if s.obs != nil {
		s.obs.RecordRun(r.Context(), "http", status, time.Since(start))
	}
}

// decodeProfile accepts {"farmer_profile": {...}} or the profile itself.
func decodeProfile(body io.Reader) (models.FarmerProfile, error) {
	var profile models.FarmerProfile

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return profile, requestError("Request body too large")
		}
		return profile, requestError("Could not read request body")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return profile, requestError("Request body must be a JSON object")
	}
	if inner, ok := envelope["farmer_profile"]; ok {
		raw = inner
	}

	if res := profileSchema.ValidateJSON(raw); !res.Valid {
		return profile, requestError("Invalid farmer profile: " + strings.Join(res.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(raw, &profile); err != nil {
		return profile, requestError("Invalid farmer profile: " + err.Error())
	}
	return profile, nil
}
