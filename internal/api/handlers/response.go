package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/service"
	"github.com/Harshitk-cp/timely/internal/timecodec"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON request body. Numbers are kept as json.Number so
// rule parameters reach schema validation unchanged.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

// statusFor maps domain and horizon errors to HTTP statuses. Anything not
// listed is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, horizon.ErrVerificationFailed),
		errors.Is(err, horizon.ErrMissingParameter),
		errors.Is(err, horizon.ErrMalformedParameter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, horizon.ErrNaiveTimestamp),
		errors.Is(err, horizon.ErrBoundsUnsupported),
		errors.Is(err, timecodec.ErrMalformedTimeString),
		errors.Is(err, timecodec.ErrInvalidDuration),
		errors.Is(err, domain.ErrNegativeResolution),
		errors.Is(err, domain.ErrUnknownTimezone),
		errors.Is(err, service.ErrSensorNameEmpty),
		errors.Is(err, service.ErrHorizonAmbiguous),
		errors.Is(err, service.ErrHorizonIncomplete),
		errors.Is(err, service.ErrSourceRequired),
		errors.Is(err, service.ErrSourceEmpty):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSensorNotFound),
		errors.Is(err, service.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSensorConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// replaced by fallback so storage details never reach the client.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}

// parseEventStart reads the event_start query parameter.
func parseEventStart(r *http.Request) (eventStartQuery, error) {
	raw := r.URL.Query().Get("event_start")
	if raw == "" {
		return eventStartQuery{}, errEventStartRequired
	}
	t, err := timecodec.ParseTimestamp(raw)
	if err != nil {
		return eventStartQuery{}, err
	}
	return eventStartQuery{EventStart: t, Bounds: r.URL.Query().Get("bounds") == "true"}, nil
}

var errEventStartRequired = errors.New("event_start is required")

type eventStartQuery struct {
	EventStart time.Time
	Bounds     bool
}

type boundsResponse struct {
	Lower string `json:"lower"`
	Upper string `json:"upper"`
}

func newBoundsResponse(b *horizon.Bounds) *boundsResponse {
	if b == nil {
		return nil
	}
	return &boundsResponse{
		Lower: timecodec.FormatDuration(b.Lower),
		Upper: timecodec.FormatDuration(b.Upper),
	}
}

// horizonRequest selects a knowledge horizon either as a fixed ISO 8601
// duration or as a rule name with parameters.
type horizonRequest struct {
	Fixed string         `json:"fixed,omitempty"`
	Fnc   string         `json:"fnc,omitempty"`
	Par   map[string]any `json:"par,omitempty"`
}

func (h horizonRequest) input() (service.HorizonInput, error) {
	in := service.HorizonInput{Fnc: h.Fnc, Par: timecodec.Bag(h.Par)}
	if h.Fixed != "" {
		d, err := timecodec.ParseDuration(h.Fixed)
		if err != nil {
			return service.HorizonInput{}, err
		}
		in.Fixed = &d
	}
	return in, nil
}
