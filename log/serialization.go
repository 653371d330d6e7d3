package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// LogMessageWire is the JSON wire format for a log message from guest to host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// DecodeRecord parses a guest log payload into a slog.Record.
// A zero timestamp is replaced by now.
func DecodeRecord(payload []byte, now time.Time) (slog.Record, error) {
	var msg LogMessageWire
	if err := json.Unmarshal(payload, &msg); err != nil {
		return slog.Record{}, fmt.Errorf("failed to decode log message: %w", err)
	}

	level, err := ParseLevel(msg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = now
	}

	record := slog.NewRecord(ts, level, msg.Message, 0)
	for _, a := range msg.Attrs {
		record.AddAttrs(fromLogAttrWire(a))
	}
	return record, nil
}

// fromLogAttrWire converts a LogAttrWire back to a slog.Attr. Values that do
// not parse as their declared type are kept as strings.
func fromLogAttrWire(wire LogAttrWire) slog.Attr {
	switch wire.Type {
	case "int64":
		if v, err := strconv.ParseInt(wire.Value, 10, 64); err == nil {
			return slog.Int64(wire.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(wire.Value, 10, 64); err == nil {
			return slog.Uint64(wire.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(wire.Value); err == nil {
			return slog.Bool(wire.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(wire.Value, 64); err == nil {
			return slog.Float64(wire.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, wire.Value); err == nil {
			return slog.Time(wire.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(wire.Value); err == nil {
			return slog.Duration(wire.Key, v)
		}
	case "json":
		var v any
		if err := json.Unmarshal([]byte(wire.Value), &v); err == nil {
			return slog.Any(wire.Key, v)
		}
	}
	return slog.String(wire.Key, wire.Value)
}
