package security

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type EventType string

const (
	EventXSS               EventType = EventType(ThreatXSS)
	EventSQLInjection      EventType = EventType(ThreatSQLInjection)
	EventPathTraversal     EventType = EventType(ThreatPathTraversal)
	EventValidationFailure EventType = "VALIDATION_FAILURE"
	EventAuthFailure       EventType = "AUTH_FAILURE"
	EventPermissionDenied  EventType = "PERMISSION_DENIED"
	EventCSRFFailure       EventType = "CSRF_FAILURE"
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
)

type Event struct {
	Type      EventType
	Time      time.Time
	IP        string
	Method    string
	Path      string
	UserID    uint
	Field     string
	Sample    string
	Status    int
	RequestID string
}

// Sink receives security events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(Event)
	Close() error
}

type NopSink struct{}

func (NopSink) Record(Event) {}
func (NopSink) Close() error { return nil }

// FileSink appends JSON lines to a local file through a dedicated zap core.
type FileSink struct {
	file *os.File
	log  *zap.Logger
}

const maxSampleLen = 200

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create security log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open security log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)

	return &FileSink{file: f, log: zap.New(core)}, nil
}

func (s *FileSink) Record(e Event) {
	sample := e.Sample
	if len(sample) > maxSampleLen {
		sample = sample[:maxSampleLen]
	}
	s.log.Warn(string(e.Type),
		zap.Time("event_time", e.Time),
		zap.String("ip", e.IP),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Uint("user_id", e.UserID),
		zap.String("field", e.Field),
		zap.String("sample", sample),
		zap.Int("status", e.Status),
		zap.String("request_id", e.RequestID),
	)
}

func (s *FileSink) Close() error {
	_ = s.log.Sync()
	return s.file.Close()
}
