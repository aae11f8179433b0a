// Package submission implements the anonymous testimonial form.
package submission

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"dreamsite/internal/apperr"

	"go.uber.org/zap"
)

const (
	// SuccessDuration is how long the success indicator stays up.
	SuccessDuration = 3 * time.Second
	// MaxContentLength caps a testimonial, in characters.
	MaxContentLength = 5000

	EmptyContentMessage = "Please write your testimonial"
	TooLongMessage      = "Your testimonial is too long"
	SubmitFailedMessage = "Failed to submit testimonial. Please try again."
)

// Inserter stores a testimonial row.
type Inserter interface {
	InsertTestimonial(ctx context.Context, content string) error
}

// View is what the form renders.
type View struct {
	Content    string `json:"content"`
	Submitting bool   `json:"submitting"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Form holds one tab's submission state. Only one submission may be in flight.
type Form struct {
	inserter   Inserter
	logger     *zap.Logger
	successTTL time.Duration

	mu           sync.Mutex
	content      string
	submitting   bool
	success      bool
	errMsg       string
	successTimer *time.Timer
	closed       bool
}

func NewForm(inserter Inserter, logger *zap.Logger) *Form {
	return &Form{
		inserter:   inserter,
		logger:     logger.Named("submission"),
		successTTL: SuccessDuration,
	}
}

// SetContent mirrors the text area.
func (f *Form) SetContent(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

// Submit validates content and inserts it trimmed. On success the input is
// cleared and the success indicator raised; on failure the trimmed input is kept.
func (f *Form) Submit(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return apperr.ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return apperr.ErrSubmissionInFlight
	}
	f.content = content
	if trimmed == "" {
		f.errMsg = EmptyContentMessage
		f.mu.Unlock()
		return &apperr.ValidationError{Message: EmptyContentMessage}
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		f.errMsg = TooLongMessage
		f.mu.Unlock()
		return &apperr.ValidationError{Message: TooLongMessage}
	}
	f.submitting = true
	f.errMsg = ""
	f.mu.Unlock()

	err := f.inserter.InsertTestimonial(ctx, trimmed)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return apperr.ErrClosed
	}
	f.submitting = false

	if err != nil {
		f.logger.Error("error submitting testimonial", zap.Error(err))
		f.content = trimmed
		f.errMsg = SubmitFailedMessage
		return apperr.Remote("insert testimonial", err)
	}

	f.content = ""
	f.showSuccessLocked()
	return nil
}

func (f *Form) showSuccessLocked() {
	f.success = true
	if f.successTimer != nil {
		f.successTimer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(f.successTTL, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.successTimer == timer && !f.closed {
			f.success = false
			f.successTimer = nil
		}
	})
	f.successTimer = timer
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		Content:    f.content,
		Submitting: f.submitting,
		Success:    f.success,
		Error:      f.errMsg,
	}
}

// Close disposes the form. Pending timers are cancelled and late results dropped.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.successTimer != nil {
		f.successTimer.Stop()
		f.successTimer = nil
	}
}
