/*
	airspeed.go: Aggregate raw probe readings into the published airspeed
		solution: offset correction, averaging between publications, IAS
		and TAS computation.
*/

package main

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/openflightbox/airspeedd/common"
	"github.com/openflightbox/airspeedd/sensors/airdata"
	"github.com/prometheus/client_golang/prometheus"
)

// SituationData is the current airspeed solution, as served by
// /getSituation and pushed over the control websocket.
type SituationData struct {
	IAS             float64 // m/s, indicated
	TAS             float64 // m/s, true
	DiffPressurePa  float64 // offset-corrected, averaged
	TemperatureC    float64 // NaN when the probe reports none
	AirDensity      float64 // kg/m3, from probe temp and configured static pressure
	ErrorCount      uint64
	LastMeasurement time.Time
	SensorConnected bool
}

var (
	situationMu sync.Mutex
	mySituation SituationData
)

// MarshalJSON emits null for a missing temperature. The ETS probe has no
// temperature channel and encoding/json refuses NaN outright.
func (s SituationData) MarshalJSON() ([]byte, error) {
	type situationAlias SituationData
	aux := struct {
		situationAlias
		TemperatureC *float64
	}{situationAlias: situationAlias(s)}
	if !math.IsNaN(s.TemperatureC) {
		aux.TemperatureC = &s.TemperatureC
	}
	return json.Marshal(aux)
}

func getSituation() SituationData {
	situationMu.Lock()
	defer situationMu.Unlock()
	return mySituation
}

// Initialize Prometheus metrics.
var (
	commsErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airspeed_comms_errors_total",
		Help: "Sensor communication and data errors.",
	})

	readingsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airspeed_readings_total",
		Help: "Raw readings received from the probe.",
	})

	iasGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airspeed_ias_ms",
		Help: "Indicated airspeed, m/s.",
	})

	tasGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airspeed_tas_ms",
		Help: "True airspeed, m/s.",
	})

	diffPressGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airspeed_diff_press_pa",
		Help: "Differential pressure, Pa.",
	})

	probeTempGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airspeed_probe_temp_celsius",
		Help: "Probe temperature, degrees C.",
	})
)

func registerMetrics() {
	prometheus.MustRegister(commsErrorCounter)
	prometheus.MustRegister(readingsReceived)
	prometheus.MustRegister(iasGauge)
	prometheus.MustRegister(tasGauge)
	prometheus.MustRegister(diffPressGauge)
	prometheus.MustRegister(probeTempGauge)
}

// Probe temperatures outside this window are treated as garbage and
// excluded from the density computation.
const (
	probeTempMin = -40.0
	probeTempMax = 125.0
)

// calibration taps the corrected reading stream while it runs.
var (
	calTapMu sync.Mutex
	calTap   chan airdata.Reading
)

func setCalTap(ch chan airdata.Reading) {
	calTapMu.Lock()
	calTap = ch
	calTapMu.Unlock()
}

func offerCalTap(r airdata.Reading) {
	calTapMu.Lock()
	ch := calTap
	calTapMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- r:
	default:
	}
}

// airspeedAggregator consumes the probe's reading stream until it is
// closed. Between publications it averages pressure and temperature, so
// a 100Hz probe feeding a 10Hz publication rate contributes all of its
// samples instead of every tenth one.
func airspeedAggregator(readings <-chan airdata.Reading) {
	rate := globalSettings.PublishRateHz
	if rate <= 0 {
		rate = 10
	}
	publishPeriod := time.Duration(float64(time.Second) / rate)

	var (
		pressSum   float64
		tempSum    float64
		nSamples   int
		nTempOK    int
		lastPub    time.Time
		lastErrCnt uint64
	)

	for r := range readings {
		readingsReceived.Inc()

		diffPress := r.DiffPressurePa - globalSettings.DiffPressOffsetPa
		r.DiffPressurePa = diffPress
		offerCalTap(r)

		pressSum += diffPress
		nSamples++
		if r.TemperatureC >= probeTempMin && r.TemperatureC <= probeTempMax {
			tempSum += r.TemperatureC
			nTempOK++
		}
		lastErrCnt = r.ErrorCount

		if !lastPub.IsZero() && r.Timestamp.Sub(lastPub) < publishPeriod {
			continue
		}
		lastPub = r.Timestamp

		avgPress := pressSum / float64(nSamples)
		avgTemp := math.NaN()
		if nTempOK > 0 {
			avgTemp = tempSum / float64(nTempOK)
		}
		pressSum, tempSum, nSamples, nTempOK = 0, 0, 0, 0

		publishSituation(avgPress, avgTemp, lastErrCnt, r.TimestampSample)
	}

	// Stream closed: the sensor went away. Flag the solution invalid.
	situationMu.Lock()
	mySituation.SensorConnected = false
	situationMu.Unlock()
}

func publishSituation(diffPressPa, tempC float64, errorCount uint64, sampled time.Time) {
	ias := common.CalcIAS(diffPressPa)

	// TAS needs air density; density needs a real temperature. Without
	// one, fall back to IAS (exact at sea level ISA, close enough low).
	tas := ias
	density := common.AirDensitySeaLevel
	if !math.IsNaN(tempC) {
		density = common.AirDensity(globalSettings.StaticPressurePa, tempC)
		tas = common.CalcTASFromCAS(ias, globalSettings.StaticPressurePa, tempC)
	}

	situationMu.Lock()
	mySituation.IAS = ias
	mySituation.TAS = tas
	mySituation.DiffPressurePa = diffPressPa
	mySituation.TemperatureC = tempC
	mySituation.AirDensity = density
	mySituation.ErrorCount = errorCount
	mySituation.LastMeasurement = sampled
	mySituation.SensorConnected = true
	sit := mySituation
	situationMu.Unlock()

	iasGauge.Set(ias)
	tasGauge.Set(tas)
	diffPressGauge.Set(diffPressPa)
	if !math.IsNaN(tempC) {
		probeTempGauge.Set(tempC)
	}

	logDataPoint(datalogRecord{
		TimestampSampleUs: sampled.UnixMicro(),
		DiffPressurePa:    diffPressPa,
		TemperatureC:      tempC,
		IAS:               ias,
		TAS:               tas,
		ErrorCount:        errorCount,
	})

	sendAirspeedSentences(sit)
}
