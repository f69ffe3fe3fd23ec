package remote

import (
	"fmt"
	"strings"
)

// FallbackMessage is shown when a collaborator failure carries no message of
// its own.
const FallbackMessage = "Request failed"

// SubmitError reports a failed create or update request.
type SubmitError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *SubmitError) Error() string {
	return describe("submit", e.Method+" "+e.Endpoint, e.Status, e.Message, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show the person editing the form.
func (e *SubmitError) UserMessage() string {
	return userMessage(e.Message)
}

// UploadError reports a failed file upload.
type UploadError struct {
	Filename string
	Status   int
	Message  string
	Err      error
}

func (e *UploadError) Error() string {
	return describe("upload", e.Filename, e.Status, e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show the person editing the form.
func (e *UploadError) UserMessage() string {
	return userMessage(e.Message)
}

// FetchError reports a failed record fetch during hydration.
type FetchError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	return describe("fetch", e.Endpoint, e.Status, e.Message, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show the person editing the form.
func (e *FetchError) UserMessage() string {
	return userMessage(e.Message)
}

func userMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return FallbackMessage
	}
	return msg
}

func describe(op, target string, status int, msg string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote: %s %s", op, target)
	if status != 0 {
		fmt.Fprintf(&b, ": status %d", status)
	}
	if msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	return b.String()
}
