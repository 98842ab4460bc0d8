// Package notify delivers the daily digest.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier sends a pre-rendered HTML message somewhere a person will read it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Log writes digests to the application log. It is the fallback when no
// chat integration is configured.
type Log struct {
	log *logrus.Logger
}

func NewLog(log *logrus.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, text string) error {
	l.log.WithField("component", "digest").Info(text)
	return nil
}
