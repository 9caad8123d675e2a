package logger

import (
	"github.com/sirupsen/logrus"
)

// Log доступен и до вызова Init, чтобы пакеты и тесты могли логировать без проверок на nil.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Component возвращает запись лога с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// ErrorfLogger направляет ошибки горутин в logrus.
type ErrorfLogger struct{}

func (ErrorfLogger) Errorf(format string, args ...interface{}) {
	Log.Errorf(format, args...)
}
