package main

import (
	"os"
	"testing"
)

func TestSettingsRoundTrip(t *testing.T) {
	configLocation = t.TempDir() + "/airspeedd.conf"
	defaultSettings()

	globalSettings.SensorType = "ets"
	globalSettings.PublishRateHz = 25
	globalSettings.DiffPressOffsetPa = 3.25
	globalSettings.UDPTargets = []string{"10.0.0.255:4353"}
	saveSettings()

	globalSettings = settings{}
	readSettings()

	if globalSettings.SensorType != "ets" {
		t.Errorf("SensorType = %q, want ets", globalSettings.SensorType)
	}
	if globalSettings.PublishRateHz != 25 {
		t.Errorf("PublishRateHz = %f, want 25", globalSettings.PublishRateHz)
	}
	if globalSettings.DiffPressOffsetPa != 3.25 {
		t.Errorf("DiffPressOffsetPa = %f, want 3.25", globalSettings.DiffPressOffsetPa)
	}
	if len(globalSettings.UDPTargets) != 1 || globalSettings.UDPTargets[0] != "10.0.0.255:4353" {
		t.Errorf("UDPTargets = %v", globalSettings.UDPTargets)
	}
}

func TestReadSettingsFallsBackToDefaults(t *testing.T) {
	configLocation = t.TempDir() + "/missing.conf"
	globalSettings = settings{}
	readSettings()

	if globalSettings.SensorType != "ms4525" {
		t.Errorf("SensorType = %q, want default ms4525", globalSettings.SensorType)
	}
	if globalSettings.PublishRateHz != 10 {
		t.Errorf("PublishRateHz = %f, want default 10", globalSettings.PublishRateHz)
	}
}

func TestReadSettingsRejectsGarbage(t *testing.T) {
	configLocation = t.TempDir() + "/garbage.conf"
	if err := os.WriteFile(configLocation, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	globalSettings = settings{}
	readSettings()

	if globalSettings.SensorType != "ms4525" {
		t.Errorf("SensorType = %q, want default after parse failure", globalSettings.SensorType)
	}
}
