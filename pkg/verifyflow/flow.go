// Package verifyflow drives the reference verification page: validate the
// link once, collect feedback, submit it once.
package verifyflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rentcard_service/pkg/client"
)

type State int

const (
	StateLoading State = iota
	StateError
	StateAlreadyVerified
	StateForm
	StateSubmitting
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateAlreadyVerified:
		return "alreadyVerified"
	case StateForm:
		return "form"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal states have no outgoing transitions.
func (s State) Terminal() bool {
	return s == StateError || s == StateAlreadyVerified || s == StateSuccess
}

type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorExpiredToken
	ErrorInvalidToken
)

var (
	ErrAlreadyStarted   = errors.New("verification flow already started")
	ErrNotReady         = errors.New("verification form is not ready")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrTerminal         = errors.New("verification flow is finished")
)

const (
	progressStep     = 10
	progressCeiling  = 90
	progressInterval = 100 * time.Millisecond
)

type API interface {
	ValidateToken(ctx context.Context, token string) (client.ReferenceInfo, error)
	SubmitVerification(ctx context.Context, token string, sub client.Submission) (client.SubmitResult, error)
}

// Notifier shows transient messages, e.g. a failed submission.
type Notifier interface {
	Notify(msg string)
}

type Flow struct {
	log      *slog.Logger
	api      API
	notifier Notifier
	token    string

	mu         sync.Mutex
	started    bool
	state      State
	errKind    ErrorKind
	errMsg     string
	reference  client.ReferenceInfo
	tenantName string
	progress   int
}

func New(log *slog.Logger, api API, notifier Notifier, token string) *Flow {
	return &Flow{
		log:      log.With(slog.String("component", "verifyflow")),
		api:      api,
		notifier: notifier,
		token:    token,
		state:    StateLoading,
	}
}

// Start validates the token and leaves the loading state. It may be called
// only once.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	f.mu.Unlock()

	if strings.TrimSpace(f.token) == "" {
		f.finishLoading(func() {
			f.state = StateError
			f.errKind = ErrorInvalidToken
			f.errMsg = "No verification token provided."
		})
		return nil
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		f.tickProgress(done)
	}()

	info, err := f.api.ValidateToken(ctx, f.token)

	close(done)
	wg.Wait()

	if err != nil {
		f.log.Warn("token validation failed", slog.String("error", err.Error()))

		f.finishLoading(func() {
			f.applyValidationError(err)
		})
		return nil
	}

	f.finishLoading(func() {
		f.reference = info
		if info.IsVerified {
			f.state = StateAlreadyVerified
			return
		}
		f.state = StateForm
	})

	return nil
}

// Submit sends the form. Only accepted while the form is shown.
func (f *Flow) Submit(ctx context.Context, form Form) error {
	f.mu.Lock()
	switch {
	case f.state == StateSubmitting:
		f.mu.Unlock()
		return ErrSubmitInProgress
	case f.state.Terminal():
		f.mu.Unlock()
		return ErrTerminal
	case f.state != StateForm:
		f.mu.Unlock()
		return ErrNotReady
	}

	if err := form.Validate(); err != nil {
		f.mu.Unlock()
		return err
	}

	f.state = StateSubmitting
	referenceID := f.reference.ID
	f.mu.Unlock()

	res, err := f.api.SubmitVerification(ctx, f.token, client.Submission{
		ReferenceID: referenceID,
		Rating:      form.Rating,
		Comments:    form.Comments,
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = StateForm
		f.log.Warn("verification submit failed", slog.String("error", err.Error()))
		if f.notifier != nil {
			f.notifier.Notify(messageOf(err))
		}
		return err
	}

	f.tenantName = res.TenantName
	if f.tenantName == "" {
		f.tenantName = f.reference.TenantName
	}
	f.state = StateSuccess

	return nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *Flow) ErrorKind() ErrorKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.errKind
}

func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.errMsg
}

func (f *Flow) Reference() client.ReferenceInfo {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reference
}

// Progress is a cosmetic percentage for the loading indicator.
func (f *Flow) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.progress
}

func (f *Flow) SuccessMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateSuccess {
		return ""
	}

	return fmt.Sprintf("Thank you for verifying your reference for %s.", f.tenantName)
}

// CanClose reports whether the "Close Window" action is shown.
func (f *Flow) CanClose() bool {
	return f.State().Terminal()
}

func (f *Flow) tickProgress(done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.progress < progressCeiling {
				f.progress = min(f.progress+progressStep, progressCeiling)
			}
			f.mu.Unlock()
		}
	}
}

func (f *Flow) finishLoading(apply func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.progress = 100
	apply()
}

// applyValidationError must be called with f.mu held.
func (f *Flow) applyValidationError(err error) {
	msg := messageOf(err)

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		switch apiErr.Code {
		case client.CodeExpiredToken:
			f.setError(ErrorExpiredToken, msg)
		case client.CodeAlreadyVerified:
			f.state = StateAlreadyVerified
		default:
			f.setError(ErrorInvalidToken, msg)
		}
		return
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "expired"):
		f.setError(ErrorExpiredToken, msg)
	case strings.Contains(lower, "already verified"):
		f.state = StateAlreadyVerified
	default:
		f.setError(ErrorInvalidToken, msg)
	}
}

func (f *Flow) setError(kind ErrorKind, msg string) {
	f.state = StateError
	f.errKind = kind
	f.errMsg = msg
}

func messageOf(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	return err.Error()
}
