/*
	sensors.go: Bring-up and supervision of the airspeed probe on the I2C
		bus. Keeps retrying until the hardware shows up and reconnects
		after bus failures.
*/

package main

import (
	"log"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"

	"github.com/openflightbox/airspeedd/sensors"
	"github.com/openflightbox/airspeedd/sensors/ms4525"
)

var (
	i2cbus           embd.I2CBus
	myAirspeedSource sensors.AirspeedSource
	sensorClock      *sensors.Monotonic
)

func initI2CSensors() {
	i2cbus = embd.NewI2CBus(globalSettings.I2CBusNumber)
	sensorClock = sensors.NewMonotonic()

	go pollSensors()
}

func pollSensors() {
	timer := time.NewTicker(4 * time.Second)
	badTicks := 0
	for {
		<-timer.C

		if !globalStatus.SensorPresent {
			log.Printf("attempting %s connection.\n", globalSettings.SensorType)
			globalStatus.SensorPresent = initAirspeedSensor()
			badTicks = 0
			continue
		}

		// The driver retries failed triggers on its own; only a sensor
		// that stays bad across two polls gets torn down and reprobed.
		if myAirspeedSource.SensorOK() {
			badTicks = 0
			continue
		}
		badTicks++
		if badTicks >= 2 {
			log.Printf("%s not responding, closing for reconnect.\n", globalSettings.SensorType)
			myAirspeedSource.Close()
			myAirspeedSource = nil
			globalStatus.SensorPresent = false
		}
	}
}

func initAirspeedSensor() (ok bool) {
	interval := time.Duration(globalSettings.MeasureIntervalUs) * time.Microsecond

	var (
		src sensors.AirspeedSource
		err error
	)
	switch globalSettings.SensorType {
	case "ms4515":
		src, err = sensors.NewMS4525(&i2cbus, ms4525.AddressMS4515, interval, sensorClock, commsErrorCounter)
	case "ets":
		src, err = sensors.NewETS(&i2cbus, interval, sensorClock, commsErrorCounter)
	default:
		src, err = sensors.NewMS4525(&i2cbus, ms4525.Address, interval, sensorClock, commsErrorCounter)
	}
	if err != nil {
		log.Printf("couldn't initialize %s: %s\n", globalSettings.SensorType, err.Error())
		return false
	}

	log.Printf("successfully initialized %s.\n", globalSettings.SensorType)
	myAirspeedSource = src
	go airspeedAggregator(src.Readings())
	return true
}
