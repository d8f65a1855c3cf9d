/*
	managementinterface.go: HTTP and websocket management interface for
		status, settings, calibration and Prometheus metrics.
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"
)

// InfoMessage is the periodic websocket push. The two halves stay named
// objects: SituationData carries its own MarshalJSON, so embedding it
// here would hijack the whole message.
type InfoMessage struct {
	Situation SituationData
	Status    *status
}

func statusSender(conn *websocket.Conn) {
	timer := time.NewTicker(1 * time.Second)
	defer timer.Stop()
	for {
		<-timer.C

		refreshStatus()
		update, err := json.Marshal(InfoMessage{Situation: getSituation(), Status: &globalStatus})
		if err != nil {
			log.Printf("statusSender: %s\n", err.Error())
			continue
		}
		_, err = conn.Write(update)

		if err != nil {
			break
		}
	}
}

func handleManagementConnection(conn *websocket.Conn) {
	go statusSender(conn)

	// Inbound messages are settings updates, same shape as /setSettings.
	for {
		var msg settings
		err := websocket.JSON.Receive(conn, &msg)
		if err == io.EOF {
			break
		} else if err != nil {
			log.Printf("handleManagementConnection: %s\n", err.Error())
			break
		} else {
			globalSettings = msg
			saveSettings()
		}
	}
}

// AJAX call - /getSituation. Responds with the current airspeed solution.
func handleSituationRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	sit := getSituation()
	situationJSON, err := json.Marshal(&sit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "%s\n", situationJSON)
}

func refreshStatus() {
	globalStatus.Uptime = sensorClock.Uptime().Round(time.Second).String()
	globalStatus.Calibrating = calibrationRunning()
	if sit := getSituation(); sit.LastMeasurement.IsZero() {
		globalStatus.LastMeasurement = "never"
	} else {
		globalStatus.LastMeasurement = sensorClock.HumanizeTime(sit.LastMeasurement)
	}
	globalStatus.CommsErrors = 0
	if myAirspeedSource != nil {
		globalStatus.CommsErrors = myAirspeedSource.ErrorCount()
	}
}

// AJAX call - /getStatus. Daemon status, uptime, counters.
func handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	refreshStatus()
	statusJSON, _ := json.Marshal(&globalStatus)
	fmt.Fprintf(w, "%s\n", statusJSON)
}

// AJAX call - /getSettings. Responds with all airspeedd.conf data.
func handleSettingsGetRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	settingsJSON, _ := json.Marshal(&globalSettings)
	fmt.Fprintf(w, "%s\n", settingsJSON)
}

// AJAX call - /setSettings. Receives the full settings object via POST.
// Sensor type and bus changes take effect on the next reconnect.
func handleSettingsSetRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var newSettings settings
	if err := json.NewDecoder(r.Body).Decode(&newSettings); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	globalSettings = newSettings
	saveSettings()
	handleSettingsGetRequest(w, r)
}

// AJAX call - /calibrate. Starts the zero-offset calibration and blocks
// until it finishes, so the caller sees the result.
func handleCalibrateRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := runCalibration(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	fmt.Fprintf(w, "{\"DiffPressOffsetPa\": %f}\n", globalSettings.DiffPressOffsetPa)
}

func managementInterface(addr string) {
	http.HandleFunc("/control",
		func(w http.ResponseWriter, req *http.Request) {
			s := websocket.Server{
				Handler: websocket.Handler(handleManagementConnection)}
			s.ServeHTTP(w, req)
		})

	http.HandleFunc("/getSituation", handleSituationRequest)
	http.HandleFunc("/getStatus", handleStatusRequest)
	http.HandleFunc("/getSettings", handleSettingsGetRequest)
	http.HandleFunc("/setSettings", handleSettingsSetRequest)
	http.HandleFunc("/calibrate", handleCalibrateRequest)
	http.Handle("/metrics", promhttp.Handler())

	err := http.ListenAndServe(addr, nil)

	if err != nil {
		log.Printf("managementInterface ListenAndServe: %s\n", err.Error())
	}
}
