// Package errors provides error handling and recovery mechanisms for the bot.
// It implements an error counter with automatic shutdown on excessive errors.
package errors

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// ErrorHandler manages error counting and reporting
type ErrorHandler struct {
	errorCount    int32
	webhookURL    string
	stopChan      chan struct{}
	stopOnce      sync.Once
	shutdownFunc  func()
	exitFunc      func(code int)
	maxErrors     int32
	resetInterval time.Duration
	checkInterval time.Duration
	httpClient    *http.Client
}

// Options tunes the error storm detection.
type Options struct {
	MaxErrors     int32
	ResetInterval time.Duration
	CheckInterval time.Duration
}

// DefaultOptions shuts the bot down after more than 15 errors in 5 seconds.
var DefaultOptions = Options{
	MaxErrors:     15,
	ResetInterval: 5 * time.Second,
	CheckInterval: 1 * time.Second,
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
	Fields  map[string]string
}

// PanicError is returned by Safe when the guarded function panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init(webhookURL string, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(webhookURL, shutdownFunc, DefaultOptions)
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(webhookURL string, shutdownFunc func(), opts Options) *ErrorHandler {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultOptions.MaxErrors
	}
	if opts.ResetInterval <= 0 {
		opts.ResetInterval = DefaultOptions.ResetInterval
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultOptions.CheckInterval
	}

	h := &ErrorHandler{
		webhookURL:    webhookURL,
		stopChan:      make(chan struct{}),
		shutdownFunc:  shutdownFunc,
		exitFunc:      os.Exit,
		maxErrors:     opts.MaxErrors,
		resetInterval: opts.ResetInterval,
		checkInterval: opts.CheckInterval,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}

	h.start()
	return h
}

// start begins the error monitoring goroutines
func (h *ErrorHandler) start() {
	// Error reset goroutine
	go func() {
		ticker := time.NewTicker(h.resetInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				atomic.StoreInt32(&h.errorCount, 0)
			case <-h.stopChan:
				return
			}
		}
	}()

	// Error check goroutine
	go func() {
		ticker := time.NewTicker(h.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if atomic.LoadInt32(&h.errorCount) > h.maxErrors {
					h.shutdown()
					return
				}
			case <-h.stopChan:
				return
			}
		}
	}()
}

func (h *ErrorHandler) shutdown() {
	start := time.Now()
	logger.Warn("Se detectó un número demasiado alto de errores", "CRITICAL")
	logger.Warn("Apagando...", "CRITICAL")

	h.Report(ReportErrorOptions{
		Error:   "Critical Error",
		Message: "Número inusual de errores. Apagando...",
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Finalizando proceso... Tiempo total: %v", time.Since(start)), "CRITICAL")
	h.exitFunc(1)
}

// Stop stops the error monitoring goroutines
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError increments the error count
func (h *ErrorHandler) IncrementError() {
	count := atomic.AddInt32(&h.errorCount, 1)
	logger.Error(fmt.Sprintf("Error count: %d", count), "AntiCrash")
}

// ErrorCount returns the errors counted in the current window.
func (h *ErrorHandler) ErrorCount() int32 {
	return atomic.LoadInt32(&h.errorCount)
}

// HandlePanic handles a recovered panic
func (h *ErrorHandler) HandlePanic(recovered interface{}) {
	h.IncrementError()
	logger.Debug("Unhandled Panic/Catch", "AntiCrash")
	logger.Error(fmt.Sprintf("%v\n%s", recovered, debug.Stack()), "SYS")
}

// Report sends an error report to the Discord webhook
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.webhookURL == "" {
		return
	}

	embed := map[string]interface{}{
		"author": map[string]string{
			"name": fmt.Sprintf("Error %s", data.Error),
		},
		"description": data.Message,
		"color":       0xFF0000, // Red
		"footer": map[string]string{
			"text": "PancyGuard Go",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if len(data.Fields) > 0 {
		fields := make([]map[string]interface{}, 0, len(data.Fields))
		for name, value := range data.Fields {
			fields = append(fields, map[string]interface{}{"name": name, "value": value, "inline": true})
		}
		embed["fields"] = fields
	}

	payload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshal error report: %v", err), "AntiCrash")
		return
	}

	req, err := http.NewRequest("POST", h.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to create webhook request: %v", err), "AntiCrash")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send error report: %v", err), "AntiCrash")
		return
	}
	defer resp.Body.Close()

	logger.Warn(fmt.Sprintf("Sent ErrorReport to Webhook, Status: %d", resp.StatusCode), "AntiCrash")
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return func() {
		if r := recover(); r != nil {
			if handler != nil {
				handler.HandlePanic(r)
			} else {
				logger.Error(fmt.Sprintf("Panic recovered (no handler): %v", r), "AntiCrash")
			}
		}
	}
}

// Safe runs fn and converts a panic into a *PanicError. The panic is
// counted by the global handler when one is installed.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if handler != nil {
				handler.IncrementError()
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
