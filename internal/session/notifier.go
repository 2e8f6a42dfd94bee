package session

import "go.uber.org/zap"

// Notifier 面向用户的短提示（toast）
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

type logNotifier struct{ l *zap.Logger }

// LogNotifier 默认实现：写日志
func LogNotifier(l *zap.Logger) Notifier {
	if l == nil {
		l = zap.NewNop()
	}
	return logNotifier{l: l.Named("notify")}
}

func (n logNotifier) Success(msg string) { n.l.Info(msg, zap.String("kind", "success")) }
func (n logNotifier) Info(msg string)    { n.l.Info(msg, zap.String("kind", "info")) }
func (n logNotifier) Error(msg string)   { n.l.Warn(msg, zap.String("kind", "error")) }
