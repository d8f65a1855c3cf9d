/*
	calibration.go: Zero-offset calibration of the differential pressure
		probe, followed by a polarity check. Triggered over the management
		interface; the aircraft has to be stationary in still air.
*/

package main

import (
	"errors"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

const (
	calSampleCount   = 200 // 2s of samples at the full 100Hz rate
	calSampleTimeout = 1 * time.Second
	calBlowTimeout   = 90 * time.Second
	calBlowThreshold = 50.0 // Pa on the low-passed signal
)

var (
	errCalBusy        = errors.New("calibration already running")
	errCalCommsErrors = errors.New("communication errors during calibration")
	errCalStalled     = errors.New("no readings from sensor")
	errCalTimeout     = errors.New("no airflow detected within timeout")
	errCalReversed    = errors.New("negative pressure on airflow, pitot lines probably swapped")
)

var calInProgress int32

// runCalibration measures the probe's zero offset from a window of
// still-air samples, then waits for the operator to blow into the pitot
// tube to verify the plumbing polarity. On success the new offset is
// stored in the settings file.
func runCalibration() error {
	if !atomic.CompareAndSwapInt32(&calInProgress, 0, 1) {
		return errCalBusy
	}
	defer atomic.StoreInt32(&calInProgress, 0)

	tap := make(chan airdata.Reading, 64)
	setCalTap(tap)
	defer setCalTap(nil)

	log.Printf("calibration: sampling zero offset, keep the aircraft still.\n")

	var (
		sum        float64
		n          int
		startErrs  uint64
		haveErrRef bool
	)
	for n < calSampleCount {
		select {
		case r := <-tap:
			if !haveErrRef {
				startErrs = r.ErrorCount
				haveErrRef = true
			} else if r.ErrorCount != startErrs {
				// A flaky bus would bias the offset. Bail out.
				return errCalCommsErrors
			}
			sum += r.DiffPressurePa
			n++
		case <-time.After(calSampleTimeout):
			return errCalStalled
		}
	}

	// The tap sees offset-corrected readings; fold the old offset back
	// in so the result is absolute.
	offset := globalSettings.DiffPressOffsetPa + sum/float64(n)

	// An offset of exactly zero reads as "never calibrated". Keep a
	// token value instead.
	if math.Abs(offset) < 1e-6 {
		offset = 1e-6
	}

	log.Printf("calibration: offset %.3f Pa, now blow into the pitot tube.\n", offset)

	// Polarity check: low-pass the corrected signal until the operator's
	// breath shows up. Positive means the lines are hooked up right.
	oldOffset := globalSettings.DiffPressOffsetPa
	filtered := 0.0
	deadline := time.After(calBlowTimeout)
	for {
		select {
		case r := <-tap:
			// Re-correct with the freshly measured offset.
			diffPress := r.DiffPressurePa + oldOffset - offset
			filtered = 0.9*filtered + 0.1*diffPress
			if math.Abs(filtered) > calBlowThreshold {
				if filtered < 0 {
					return errCalReversed
				}
				globalSettings.DiffPressOffsetPa = offset
				saveSettings()
				log.Printf("calibration: done.\n")
				return nil
			}
		case <-time.After(calSampleTimeout):
			return errCalStalled
		case <-deadline:
			return errCalTimeout
		}
	}
}

func calibrationRunning() bool {
	return atomic.LoadInt32(&calInProgress) == 1
}
