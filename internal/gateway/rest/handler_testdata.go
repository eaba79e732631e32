package rest

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/schema"

	"telemetry/pkg/model"
)

// queryDecoder decodes URL query parameters into typed structs.
var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// maxSeedRecords caps a single back-fill request.
const maxSeedRecords = 10000

type seedParams struct {
	Hours           int `schema:"hours" validate:"gte=1,lte=168"`
	IntervalMinutes int `schema:"interval_minutes" validate:"gte=1,lte=60"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// randomInput produces one realistic reading in the value ranges the
// embedded system reports: ADC channels within 12-bit bounds, the
// accelerometer Z axis near gravity.
func randomInput(rng *rand.Rand) model.SensorInput {
	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}

	return model.SensorInput{
		Temperature: round2(uniform(20.0, 23.0) + uniform(-0.1, 0.1)),
		Humidity:    round2(uniform(45.0, 55.0) + uniform(-0.1, 0.1)),
		VOC:         rng.Intn(501),
		Light:       100 + rng.Intn(2901),
		Sound:       50 + rng.Intn(1951),
		Accelerometer: model.Vector3{
			X: round2(uniform(-0.5, 0.5)),
			Y: round2(uniform(-0.5, 0.5)),
			Z: round2(uniform(9.5, 10.0)),
		},
		Gyroscope: model.Vector3{
			X: round2(uniform(-0.1, 0.1)),
			Y: round2(uniform(-0.1, 0.1)),
			Z: round2(uniform(-0.1, 0.1)),
		},
	}
}

// handleGenerateRandom handles POST /api/generate_random_data
func (h *Handler) handleGenerateRandom(w http.ResponseWriter, r *http.Request) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	input := randomInput(rng)

	id, err := h.store.Insert(r.Context(), input)
	if err != nil {
		writeInternalError(w, err, "Failed to generate random data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Random sensor data generated and stored successfully",
		"id":      id,
		"data":    input,
	})
}

// handleSeedTestData handles POST /api/seed_test_data. It back-fills
// readings at a fixed interval ending now, oldest first.
func (h *Handler) handleSeedTestData(w http.ResponseWriter, r *http.Request) {
	params := seedParams{Hours: 24, IntervalMinutes: 5}
	if err := queryDecoder.Decode(&params, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters: "+err.Error())
		return
	}
	if err := validateStruct(&params); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	numRecords := params.Hours * 60 / params.IntervalMinutes
	if numRecords > maxSeedRecords {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("Too many records requested (%d). Maximum is %d.", numRecords, maxSeedRecords))
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()
	inserted := 0

	for i := 0; i < numRecords; i++ {
		offset := time.Duration(params.IntervalMinutes*(numRecords-i-1)) * time.Minute
		ts := now.Add(-offset)

		if _, err := h.store.InsertAt(r.Context(), randomInput(rng), ts); err != nil {
			writeInternalError(w, err, "Failed to seed test data")
			return
		}
		inserted++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"message":          fmt.Sprintf("Generated and inserted %d test records", inserted),
		"records_inserted": inserted,
		"hours":            params.Hours,
		"interval_minutes": params.IntervalMinutes,
	})
}
