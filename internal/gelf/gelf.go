// Package gelf sends log lines to a Graylog endpoint over UDP.
package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP. It implements io.Writer so it
// can back a zapcore.WriteSyncer.
type Writer struct {
	conn     net.Conn
	hostname string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "onboard-server"
	}

	return &Writer{conn: conn, hostname: hostname}, nil
}

// Write implements io.Writer. Each call sends one GELF message. The
// incoming line is zap's JSON encoding; the level field maps to a
// syslog level and the msg field becomes short_message.
func (w *Writer) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")

	short := msg
	level := 6 // Informational
	var line struct {
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(p, &line); err == nil && line.Msg != "" {
		short = line.Msg
		switch line.Level {
		case "error", "fatal", "panic":
			level = 3
		case "warn":
			level = 4
		}
	}

	gelf := map[string]interface{}{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"full_message":  msg,
		"timestamp":     float64(time.Now().UnixNano()) / 1e9,
		"level":         level,
		"_service":      "onboard",
	}

	payload, err := json.Marshal(gelf)
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer. UDP has nothing to flush.
func (w *Writer) Sync() error { return nil }
