package observability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DBLogLevel selects which data-access events a handler receives.
type DBLogLevel string

const (
	DBLogQuery DBLogLevel = "query"
	DBLogInfo  DBLogLevel = "info"
	DBLogWarn  DBLogLevel = "warn"
	DBLogError DBLogLevel = "error"
)

// DBEvent is emitted by the data-access layer. Query events carry the SQL
// text, its parameters and the duration; other levels carry Message.
type DBEvent struct {
	Level     DBLogLevel
	Timestamp time.Time
	Query     string
	Params    []interface{}
	Duration  time.Duration
	Target    string
	Message   string
}

// DBEventHandler receives data-access events.
type DBEventHandler func(DBEvent)

// ZerologEventHandler writes events to the global zerolog logger. Query
// events are written at debug level and only when logQueries is set.
func ZerologEventHandler(logQueries bool) DBEventHandler {
	return func(e DBEvent) {
		var ev *zerolog.Event
		switch e.Level {
		case DBLogQuery:
			if !logQueries {
				return
			}
			ev = log.Debug().
				Str("sql", e.Query).
				Interface("params", e.Params).
				Dur("duration", e.Duration)
		case DBLogInfo:
			ev = log.Info()
		case DBLogWarn:
			ev = log.Warn()
		default:
			ev = log.Error()
		}
		ev.Time("event_time", e.Timestamp).
			Str("target", e.Target).
			Msg(messageOrDefault(e))
	}
}

func messageOrDefault(e DBEvent) string {
	if e.Message != "" {
		return e.Message
	}
	return "db query"
}
