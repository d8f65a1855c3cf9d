/*
	settings.go: airspeedd configuration, persisted as JSON in
		/etc/airspeedd.conf. SIGUSR1 re-reads it at runtime.
*/

package main

import (
	"encoding/json"
	"log"
	"os"
)

var configLocation = "/etc/airspeedd.conf"

type settings struct {
	SensorType        string // "ms4525", "ms4515" or "ets"
	I2CBusNumber      byte
	MeasureIntervalUs uint // period between triggers; 0 = sensor maximum rate (100Hz)
	PublishRateHz     float64
	DiffPressOffsetPa float64 // set by calibration
	StaticPressurePa  float64 // ambient pressure used for TAS; no baro on the bus
	NMEASerialPort    string  // empty disables serial output
	NMEASerialBaud    int
	UDPTargets        []string
	DataLogEnabled    bool
	DataLogFile       string
	DEBUG             bool
}

var globalSettings settings

func defaultSettings() {
	globalSettings.SensorType = "ms4525"
	globalSettings.I2CBusNumber = 1
	globalSettings.MeasureIntervalUs = 0
	globalSettings.PublishRateHz = 10
	globalSettings.DiffPressOffsetPa = 0
	globalSettings.StaticPressurePa = 101325
	globalSettings.NMEASerialPort = ""
	globalSettings.NMEASerialBaud = 38400
	globalSettings.UDPTargets = nil
	globalSettings.DataLogEnabled = false
	globalSettings.DataLogFile = "/var/log/airspeedd.db"
	globalSettings.DEBUG = false
}

func readSettings() {
	fd, err := os.Open(configLocation)
	defer fd.Close()
	if err != nil {
		log.Printf("can't read settings %s: %s\n", configLocation, err.Error())
		defaultSettings()
		return
	}
	buf := make([]byte, 4096)
	count, err := fd.Read(buf)
	if err != nil {
		log.Printf("can't read settings %s: %s\n", configLocation, err.Error())
		defaultSettings()
		return
	}
	var newSettings settings
	err = json.Unmarshal(buf[0:count], &newSettings)
	if err != nil {
		log.Printf("can't read settings %s: %s\n", configLocation, err.Error())
		defaultSettings()
		return
	}
	globalSettings = newSettings
	log.Printf("read in settings.\n")
}

func saveSettings() {
	fd, err := os.OpenFile(configLocation, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(0644))
	defer fd.Close()
	if err != nil {
		log.Printf("can't save settings %s: %s\n", configLocation, err.Error())
		return
	}
	jsonSettings, _ := json.Marshal(&globalSettings)
	fd.Write(jsonSettings)
	log.Printf("wrote settings.\n")
}
