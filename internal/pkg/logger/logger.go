package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger: JSON in production, console otherwise.
func New(appName, environment string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if strings.EqualFold(environment, "production") {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("app", appName)), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
