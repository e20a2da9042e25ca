// Package logging builds the process logger: JSON to stdout, with an
// optional GELF mirror when a Graylog address is configured.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/investify/onboard/internal/gelf"
)

// New builds the logger. gelfAddr may be empty; a failed GELF dial
// degrades to stdout-only rather than failing startup.
func New(gelfAddr string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	sink := zapcore.WriteSyncer(zapcore.Lock(os.Stdout))
	if gelfAddr != "" {
		if gw, err := gelf.New(gelfAddr); err == nil {
			sink = zapcore.NewMultiWriteSyncer(sink, gw)
		}
	}

	core := zapcore.NewCore(enc, sink, zapcore.InfoLevel)
	return zap.New(core)
}
