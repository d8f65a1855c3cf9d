package main

import (
	"math"
	"testing"
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

// waitCalTap blocks until runCalibration has installed its tap channel.
func waitCalTap(t *testing.T) chan airdata.Reading {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		calTapMu.Lock()
		ch := calTap
		calTapMu.Unlock()
		if ch != nil {
			return ch
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("calibration never installed its reading tap")
	return nil
}

func TestCalibrationSetsOffset(t *testing.T) {
	resetForTest(t)

	done := make(chan error, 1)
	go func() { done <- runCalibration() }()
	tap := waitCalTap(t)

	// Still-air phase: a steady 5 Pa residual.
	for i := 0; i < calSampleCount; i++ {
		tap <- airdata.Reading{DiffPressurePa: 5}
	}

	// Blow phase: a healthy positive pressure.
	blow := airdata.Reading{DiffPressurePa: 500}
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("runCalibration: %v", err)
			}
			if math.Abs(globalSettings.DiffPressOffsetPa-5) > 1e-9 {
				t.Errorf("DiffPressOffsetPa = %f, want 5", globalSettings.DiffPressOffsetPa)
			}
			return
		case tap <- blow:
		}
	}
}

func TestCalibrationReversedPolarity(t *testing.T) {
	resetForTest(t)
	globalSettings.DiffPressOffsetPa = 7

	done := make(chan error, 1)
	go func() { done <- runCalibration() }()
	tap := waitCalTap(t)

	for i := 0; i < calSampleCount; i++ {
		tap <- airdata.Reading{DiffPressurePa: 0}
	}

	// Lines swapped: blowing produces negative pressure.
	blow := airdata.Reading{DiffPressurePa: -500}
	for {
		select {
		case err := <-done:
			if err != errCalReversed {
				t.Fatalf("runCalibration = %v, want errCalReversed", err)
			}
			if globalSettings.DiffPressOffsetPa != 7 {
				t.Errorf("offset changed to %f on failed calibration", globalSettings.DiffPressOffsetPa)
			}
			return
		case tap <- blow:
		}
	}
}

func TestCalibrationAbortsOnCommsErrors(t *testing.T) {
	resetForTest(t)

	done := make(chan error, 1)
	go func() { done <- runCalibration() }()
	tap := waitCalTap(t)

	tap <- airdata.Reading{DiffPressurePa: 5, ErrorCount: 0}
	tap <- airdata.Reading{DiffPressurePa: 5, ErrorCount: 1}

	if err := <-done; err != errCalCommsErrors {
		t.Fatalf("runCalibration = %v, want errCalCommsErrors", err)
	}
}

func TestCalibrationStallsWithoutReadings(t *testing.T) {
	resetForTest(t)

	if err := runCalibration(); err != errCalStalled {
		t.Fatalf("runCalibration = %v, want errCalStalled", err)
	}
}

func TestCalibrationFloorsZeroOffset(t *testing.T) {
	resetForTest(t)

	done := make(chan error, 1)
	go func() { done <- runCalibration() }()
	tap := waitCalTap(t)

	for i := 0; i < calSampleCount; i++ {
		tap <- airdata.Reading{DiffPressurePa: 0}
	}

	blow := airdata.Reading{DiffPressurePa: 500}
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("runCalibration: %v", err)
			}
			if globalSettings.DiffPressOffsetPa != 1e-6 {
				t.Errorf("DiffPressOffsetPa = %g, want floor value 1e-6", globalSettings.DiffPressOffsetPa)
			}
			return
		case tap <- blow:
		}
	}
}
