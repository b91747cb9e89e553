package reconcile

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
)

// Policy decides what happens to an inventory item whose quantity or price
// cannot be normalized.
type Policy int

const (
	// PolicyAbort fails the whole reconciliation on the first bad item.
	PolicyAbort Policy = iota

	// PolicySkip logs the item and leaves it out. A skipped stock item is
	// zeroed like any other remote offer missing from the inventory.
	PolicySkip
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyAbort, errors.NewValidationError("policy", s, "must be abort or skip")
	}
}

type options struct {
	policy Policy
	now    func() time.Time
	logger *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		policy: PolicyAbort,
		now:    time.Now,
		logger: logging.Default(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithPolicy sets the parse failure policy.
func WithPolicy(policy Policy) Option {
	return func(o *options) error {
		if policy != PolicyAbort && policy != PolicySkip {
			return &errors.ValidationError{
				Field:   "policy",
				Value:   policy,
				Message: "unknown policy",
			}
		}
		o.policy = policy
		return nil
	}
}

// WithClock sets the clock used to timestamp stock records.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.now = now
		return nil
	}
}

// WithLogger sets the logger skipped items are reported to.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
