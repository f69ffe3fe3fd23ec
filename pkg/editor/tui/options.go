package tui

import (
	"io"
	"os"

	"go.uber.org/zap"
)

// Option mutates editor configuration.
type Option func(*Editor)

// WithPromptDriver overrides the default survey-backed driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithLogger attaches a logger for editing outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFileOpener replaces how "@path" answers on image fields are opened
// before upload.
func WithFileOpener(open func(name string) (io.ReadCloser, error)) Option {
	return func(e *Editor) {
		if open != nil {
			e.open = open
		}
	}
}

func openFile(name string) (io.ReadCloser, error) {
	return os.Open(name)
}
