package camera

import (
	"fmt"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a Logger writing through l.
// Key-value pairs become structured fields; a dangling key is logged
// under "extra".
//
// Example:
//
//	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
//	cam := camera.NewCHDK(t, camera.WithLogger(camera.NewZerologLogger(logger)))
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{log: l}
}

func (z *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	z.emit(z.log.Debug(), msg, keysAndValues)
}

func (z *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	z.emit(z.log.Info(), msg, keysAndValues)
}

func (z *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	z.emit(z.log.Error(), msg, keysAndValues)
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, kv []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			ev = ev.Interface("extra", kv[i])
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if err, ok := kv[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
