package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// LogLevel represents different log levels for service operations
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

type requestIDKey struct{}

// WithRequestID stores the request id that operation logs carry
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ServiceLogger provides structured logging for engine operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, instanceID string, exerciseType models.ExerciseType, duration time.Duration, err error) {
	logLevel := LogLevelInfo
	status := "success"

	if err != nil {
		logLevel = LogLevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBusinessRule(err):
			logLevel = LogLevelWarn
			status = "validation_error"
		case IsConflict(err) || IsBadRequest(err):
			logLevel = LogLevelWarn
			status = "rejected"
		case IsContentUnavailable(err):
			logLevel = LogLevelWarn
			status = "content_unavailable"
		case IsNotFound(err):
			logLevel = LogLevelInfo
			status = "not_found"
		case IsRetryable(err):
			logLevel = LogLevelWarn
			status = "correction_failed"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("instance_id", instanceID),
		slog.String("exercise_type", string(exerciseType)),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		if validationErr, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		} else if businessErr, ok := err.(*BusinessRuleError); ok {
			attrs = append(attrs, slog.String("business_rule", businessErr.Rule))
		}
	}

	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	// Caller information for unexpected errors only
	if logLevel == LogLevelError {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				attrs = append(attrs,
					slog.String("caller_func", fn.Name()),
					slog.String("caller_file", file),
					slog.Int("caller_line", line),
				)
			}
		}
	}

	message := fmt.Sprintf("%s operation %s", operation, status)

	switch logLevel {
	case LogLevelDebug:
		if l.config.EnableDebug {
			l.logger.LogAttrs(ctx, slog.LevelDebug, message, attrs...)
		}
	case LogLevelInfo:
		l.logger.LogAttrs(ctx, slog.LevelInfo, message, attrs...)
	case LogLevelWarn:
		l.logger.LogAttrs(ctx, slog.LevelWarn, message, attrs...)
	case LogLevelError:
		l.logger.LogAttrs(ctx, slog.LevelError, message, attrs...)
	}
}

func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, instanceID string, validationErr *ValidationError) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Submission blocked by validation",
		slog.String("operation", operation),
		slog.String("instance_id", instanceID),
		slog.String("field", validationErr.Field),
		slog.String("rule", validationErr.Rule),
		slog.String("message", validationErr.Message),
	)
}

// ===== ERROR RECOVERY LOGGING =====

func (l *ServiceLogger) LogRecovery(ctx context.Context, operation string, instanceID string, recovered interface{}, stack []byte) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("instance_id", instanceID),
		slog.Any("panic_value", recovered),
		slog.String("stack_trace", string(stack)),
	}

	l.logger.LogAttrs(ctx, slog.LevelError, "Panic recovered", attrs...)
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger wraps one operation with automatic timing
type ContextualLogger struct {
	logger       *ServiceLogger
	operation    string
	instanceID   string
	exerciseType models.ExerciseType
	startTime    time.Time
	ctx          context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, instanceID string) *ContextualLogger {
	return &ContextualLogger{
		logger:     l,
		operation:  operation,
		instanceID: instanceID,
		startTime:  time.Now(),
		ctx:        ctx,
	}
}

// SetExerciseType records the type once the instance is resolved
func (cl *ContextualLogger) SetExerciseType(t models.ExerciseType) {
	cl.exerciseType = t
}

func (cl *ContextualLogger) SetInstanceID(id string) {
	cl.instanceID = id
}

func (cl *ContextualLogger) LogResult(err error) {
	duration := time.Since(cl.startTime)
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.instanceID, cl.exerciseType, duration, err)

	var ve *ValidationError
	if err != nil && asValidationError(err, &ve) {
		cl.logger.LogValidationError(cl.ctx, cl.operation, cl.instanceID, ve)
	}
}

// ===== ERROR FORMATTING HELPERS =====

// FormatError describes err for API responses
func FormatError(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	result := map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}

	var ve *ValidationError
	var bre *BusinessRuleError
	switch {
	case asValidationError(err, &ve):
		result["type"] = "validation"
		result["field"] = ve.Field
		result["rule"] = ve.Rule
		result["message"] = ve.Message
	case asBusinessRule(err, &bre):
		result["type"] = "business_rule"
		result["rule"] = bre.Rule
		if len(bre.Context) > 0 {
			result["context"] = bre.Context
		}
	case IsContentUnavailable(err):
		result["type"] = "content_unavailable"
	case IsNotFound(err):
		result["type"] = "not_found"
	case IsConflict(err):
		result["type"] = "conflict"
	case IsBadRequest(err):
		result["type"] = "bad_request"
	case IsRetryable(err):
		result["type"] = "correction_failed"
		result["retryable"] = true
	}

	return result
}
