/*
	datalog.go: Log published airspeed data to sqlite.
*/

package main

import (
	"database/sql"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

const dataLogTable = `
CREATE TABLE IF NOT EXISTS airspeed (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp_sample_us INTEGER,
	diff_press_pa REAL,
	temperature_c REAL,
	ias_ms REAL,
	tas_ms REAL,
	error_count INTEGER,
	logged_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

type datalogRecord struct {
	TimestampSampleUs int64
	DiffPressurePa    float64
	TemperatureC      float64
	IAS               float64
	TAS               float64
	ErrorCount        uint64
}

var dataLogChan = make(chan datalogRecord, 256)

// dataLogWriter drains dataLogChan into the sqlite file. Inserts are
// done off the publication path so a slow SD card never stalls the
// sensor loop; records are dropped when the channel fills.
func dataLogWriter(dbpath string) {
	db, err := sql.Open("sqlite3", dbpath)
	if err != nil {
		log.Printf("sql.Open(%s): %s\n", dbpath, err.Error())
		return
	}
	defer db.Close()

	// Journaling off. The log is disposable telemetry, the SD card is not.
	db.Exec("PRAGMA journal_mode = OFF;")
	db.Exec("PRAGMA synchronous = OFF;")

	if _, err := db.Exec(dataLogTable); err != nil {
		log.Printf("create table: %s\n", err.Error())
		return
	}

	stmt, err := db.Prepare("INSERT INTO airspeed (timestamp_sample_us, diff_press_pa, temperature_c, ias_ms, tas_ms, error_count) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("prepare insert: %s\n", err.Error())
		return
	}
	defer stmt.Close()

	for rec := range dataLogChan {
		_, err := stmt.Exec(rec.TimestampSampleUs, rec.DiffPressurePa, rec.TemperatureC, rec.IAS, rec.TAS, rec.ErrorCount)
		if err != nil {
			log.Printf("datalog insert: %s\n", err.Error())
		}
	}
}

// logDataPoint queues a record for the writer, dropping it when the
// writer is behind.
func logDataPoint(rec datalogRecord) {
	if !globalSettings.DataLogEnabled {
		return
	}
	select {
	case dataLogChan <- rec:
	default:
	}
}

func initDataLog() {
	if globalSettings.DataLogEnabled {
		go dataLogWriter(globalSettings.DataLogFile)
	}
}
