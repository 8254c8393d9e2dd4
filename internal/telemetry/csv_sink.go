// Package telemetry implements a CSV telemetry sink: one row per
// tick through a narrow Sink interface, with struct-tag-driven
// marshalling from github.com/gocarina/gocsv rather than hand-rolled
// encoding/csv column bookkeeping.
package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/leodavilats/truckctl/internal/tasks"
)

// metres formats to 3 decimal places when marshalled to CSV.
type metres float64

func (m metres) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(m), 'f', 3, 64), nil
}

// radians formats to 4 decimal places when marshalled to CSV.
type radians float64

func (r radians) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(r), 'f', 4, 64), nil
}

// row fixes the on-disk column order for the telemetry CSV.
type row struct {
	Timestamp        float64 `csv:"timestamp"`
	TruckID          int     `csv:"truck_id"`
	Status           string  `csv:"status"`
	Mode             string  `csv:"mode"`
	PositionX        metres  `csv:"position_x"`
	PositionY        metres  `csv:"position_y"`
	Theta            radians `csv:"theta"`
	Velocity         metres  `csv:"velocity"`
	Temperature      metres  `csv:"temperature"`
	ElectricalFault  bool    `csv:"electrical_fault"`
	HydraulicFault   bool    `csv:"hydraulic_fault"`
	EventDescription string  `csv:"event_description"`
}

// CSVSink appends one row per LogEntry to a file at path, writing the
// header exactly once. Safe for concurrent Write calls, though the
// data collector task is its only caller.
type CSVSink struct {
	mu          sync.Mutex
	path        string
	wroteHeader bool
}

// NewCSVSink creates a sink writing to truck_{T}.csv-style path. The
// file is created (and its header written) lazily on the first Write,
// so a sink configured but never fed by the data collector leaves no
// file on disk.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Write appends entry as one CSV row in the fixed column order.
func (c *CSVSink) Write(entry tasks.LogEntry) error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	r := row{
		Timestamp:        float64(entry.Timestamp.UnixNano()) / 1e9,
		TruckID:          entry.TruckID,
		Status:           string(entry.Status),
		Mode:             string(entry.Mode),
		PositionX:        metres(entry.PositionX),
		PositionY:        metres(entry.PositionY),
		Theta:            radians(entry.Theta),
		Velocity:         metres(entry.Velocity),
		Temperature:      metres(entry.Temperature),
		ElectricalFault:  entry.ElectricalFault,
		HydraulicFault:   entry.HydraulicFault,
		EventDescription: entry.EventDescription,
	}

	needsHeader := !c.wroteHeader
	if needsHeader {
		if _, err := os.Stat(c.path); err == nil {
			needsHeader = false // file already has a header from a prior run
		}
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open telemetry sink: %w", err)
	}
	defer f.Close()

	rows := []row{r}
	if needsHeader {
		if err := gocsv.Marshal(rows, f); err != nil {
			return fmt.Errorf("write telemetry header+row: %w", err)
		}
	} else {
		if err := gocsv.MarshalWithoutHeaders(rows, f); err != nil {
			return fmt.Errorf("write telemetry row: %w", err)
		}
	}
	c.wroteHeader = true
	return nil
}
