package main

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/openflightbox/airspeedd/sensors"
	"github.com/openflightbox/airspeedd/sensors/airdata"
)

// The ETS probe has no temperature channel and publishes NaN, which
// encoding/json refuses. The situation must still marshal, with the
// temperature emitted as null.
func TestSituationJSONFromTemperaturelessProbe(t *testing.T) {
	resetForTest(t)

	base := time.Time{}.Add(time.Hour)
	ch := make(chan airdata.Reading, 1)
	ch <- airdata.Reading{DiffPressurePa: 120, TemperatureC: math.NaN(), Timestamp: base, TimestampSample: base}
	close(ch)
	airspeedAggregator(ch)

	sit := getSituation()
	out, err := json.Marshal(&sit)
	if err != nil {
		t.Fatalf("marshal situation: %v", err)
	}
	if !strings.Contains(string(out), `"TemperatureC":null`) {
		t.Errorf("missing temperature not emitted as null: %s", out)
	}
	if !strings.Contains(string(out), `"DiffPressurePa":120`) {
		t.Errorf("pressure missing from payload: %s", out)
	}
}

func TestSituationJSONKeepsRealTemperature(t *testing.T) {
	out, err := json.Marshal(SituationData{TemperatureC: 21.5})
	if err != nil {
		t.Fatalf("marshal situation: %v", err)
	}
	if !strings.Contains(string(out), `"TemperatureC":21.5`) {
		t.Errorf("temperature lost in payload: %s", out)
	}
}

// Both halves of the websocket push carry a connectivity flag; neither
// may shadow the other out of the payload.
func TestInfoMessageKeepsConnectivityFlags(t *testing.T) {
	msg := InfoMessage{
		Situation: SituationData{SensorConnected: true, TemperatureC: math.NaN()},
		Status:    &status{SensorPresent: true},
	}
	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal info message: %v", err)
	}
	if !strings.Contains(string(out), `"SensorConnected":true`) {
		t.Errorf("situation connectivity flag missing: %s", out)
	}
	if !strings.Contains(string(out), `"SensorPresent":true`) {
		t.Errorf("status presence flag missing: %s", out)
	}
}

func TestRefreshStatusHumanizesLastMeasurement(t *testing.T) {
	resetForTest(t)
	sensorClock = sensors.NewMonotonic()

	refreshStatus()
	if globalStatus.LastMeasurement != "never" {
		t.Errorf("LastMeasurement = %q before any reading, want never", globalStatus.LastMeasurement)
	}

	situationMu.Lock()
	mySituation.LastMeasurement = sensorClock.Now().Add(-2 * time.Minute)
	situationMu.Unlock()

	refreshStatus()
	if !strings.Contains(globalStatus.LastMeasurement, "ago") {
		t.Errorf("LastMeasurement = %q, want a relative time", globalStatus.LastMeasurement)
	}
}
