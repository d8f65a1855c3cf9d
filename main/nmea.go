/*
	nmea.go: Functions for generating NMEA sentences carrying the airspeed
		solution to EFBs and glider computers, over serial and UDP.
*/

package main

import (
	"fmt"
	"log"
	"math"
	"net"
	"sync"

	"github.com/tarm/serial"
)

func nmeaChecksum(msg string) byte {
	var checksum byte
	for i := range msg {
		checksum = checksum ^ byte(msg[i])
	}
	return checksum
}

/*
	makeAirspeedNMEAString() creates a proprietary POFB sentence with the
		current airspeed solution:

		$POFB,A,<IAS m/s>,<TAS m/s>,<diff press Pa>,<temp degC>*<checksum>

		The second field is "A" while the sensor is connected and
		reporting, "V" otherwise (mirroring the GPRMC status flag).
		Temperature is left empty when the sensor does not report one.
*/
func makeAirspeedNMEAString(sit SituationData) string {
	status := "V"
	if sit.SensorConnected {
		status = "A"
	}

	temp := ""
	if !math.IsNaN(sit.TemperatureC) {
		temp = fmt.Sprintf("%.1f", sit.TemperatureC)
	}

	msg := fmt.Sprintf("POFB,%s,%.2f,%.2f,%.2f,%s", status, sit.IAS, sit.TAS, sit.DiffPressurePa, temp)
	return fmt.Sprintf("$%s*%02X\r\n", msg, nmeaChecksum(msg))
}

/*
	makeMDAString() creates a (partial) WIMDA meteorological composite
		sentence carrying the probe's air temperature. Fields we have no
		instrument for are left empty per the standard.
*/
func makeMDAString(sit SituationData) string {
	temp := ""
	if sit.SensorConnected && !math.IsNaN(sit.TemperatureC) {
		temp = fmt.Sprintf("%.1f", sit.TemperatureC)
	}
	msg := fmt.Sprintf("WIMDA,,I,,B,%s,C,,C,,,,C,,T,,M,,N,,M", temp)
	return fmt.Sprintf("$%s*%02X\r\n", msg, nmeaChecksum(msg))
}

var (
	nmeaSerialMu   sync.Mutex
	nmeaSerialPort *serial.Port
	nmeaUDPConns   []net.Conn
)

func initNMEAOutput() {
	for _, target := range globalSettings.UDPTargets {
		conn, err := net.Dial("udp", target)
		if err != nil {
			log.Printf("nmea: can't resolve UDP target %s: %s\n", target, err.Error())
			continue
		}
		nmeaUDPConns = append(nmeaUDPConns, conn)
	}
}

// sendNMEA writes the sentence to the configured serial port and all UDP
// targets. The serial port is opened lazily and dropped on write errors
// so that an unplugged adapter gets picked up again.
func sendNMEA(msg string) {
	for _, conn := range nmeaUDPConns {
		conn.Write([]byte(msg))
	}

	if globalSettings.NMEASerialPort == "" {
		return
	}

	nmeaSerialMu.Lock()
	defer nmeaSerialMu.Unlock()

	if nmeaSerialPort == nil {
		cfg := &serial.Config{Name: globalSettings.NMEASerialPort, Baud: globalSettings.NMEASerialBaud}
		p, err := serial.OpenPort(cfg)
		if err != nil {
			logDbg("nmea: serial open %s: %s\n", globalSettings.NMEASerialPort, err.Error())
			return
		}
		log.Printf("opened serial port %s.\n", globalSettings.NMEASerialPort)
		nmeaSerialPort = p
	}

	if _, err := nmeaSerialPort.Write([]byte(msg)); err != nil {
		log.Printf("nmea: serial write: %s\n", err.Error())
		nmeaSerialPort.Close()
		nmeaSerialPort = nil
	}
}

func sendAirspeedSentences(sit SituationData) {
	sendNMEA(makeAirspeedNMEAString(sit))
	sendNMEA(makeMDAString(sit))
}
