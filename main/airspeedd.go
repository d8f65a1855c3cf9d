/*
	airspeedd.go: Daemon entry point. Reads the configuration, brings up
		logging, metrics and the probe, then serves the management
		interface until signalled to stop.
*/

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Set with -ldflags "-X main.airspeeddVersion=..."
var airspeeddVersion string
var airspeeddBuild string

type status struct {
	Version         string
	Build           string
	SensorType      string
	SensorPresent   bool // probe ACKed on the bus; data-level health lives in SituationData
	Calibrating     bool
	Uptime          string
	LastMeasurement string
	CommsErrors     uint64
}

var globalStatus status

func main() {
	managementAddr := flag.String("addr", ":8888", "management interface listen address")
	stdoutOnly := flag.Bool("stdout", false, "log to stdout only, no logfile")
	flag.Parse()

	readSettings()

	if !*stdoutOnly {
		initLogging()
	}

	if airspeeddVersion == "" {
		airspeeddVersion = "unknown"
	}
	globalStatus.Version = airspeeddVersion
	globalStatus.Build = airspeeddBuild
	globalStatus.SensorType = globalSettings.SensorType
	log.Printf("airspeedd %s starting.\n", airspeeddVersion)

	registerMetrics()
	initDataLog()
	initNMEAOutput()
	initI2CSensors()

	go managementInterface(*managementAddr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	for sig := range sigs {
		if sig == syscall.SIGUSR1 {
			log.Printf("SIGUSR1: re-reading settings.\n")
			readSettings()
			globalStatus.SensorType = globalSettings.SensorType
			continue
		}

		log.Printf("%s: shutting down.\n", sig)
		if myAirspeedSource != nil {
			myAirspeedSource.Close()
		}
		break
	}
}
