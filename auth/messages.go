package auth

import (
	"context"
	"strings"

	apperrors "github.com/snapgram/go-feed-core/internal/errors"
)

// messageRule maps a known backend error substring to a classified,
// human-readable error. Rules are checked in order; the first match wins.
type messageRule struct {
	substring string
	classify  func(raw error) *apperrors.Classified
}

var messageRules = []messageRule{
	{"invalid login credentials", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindConflict, Message: "Incorrect email or password.", Err: raw}
	}},
	{"invalid_grant", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindConflict, Message: "Incorrect email or password.", Err: raw}
	}},
	{"email not confirmed", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindConflict, Message: "Please confirm your email address before signing in.", Err: raw}
	}},
	{"user already registered", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindConflict, Field: "email", Message: "An account with this email already exists.", Err: raw}
	}},
	{"already been registered", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindConflict, Field: "email", Message: "An account with this email already exists.", Err: raw}
	}},
	{"password should be", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindValidation, Field: "password", Message: "Password does not meet the provider's requirements.", Err: raw}
	}},
	{"weak password", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindValidation, Field: "password", Message: "Password does not meet the provider's requirements.", Err: raw}
	}},
	{"signups not allowed", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindFatalConfig, Message: "Sign-up is currently disabled.", Err: raw}
	}},
	{"signup disabled", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindFatalConfig, Message: "Sign-up is currently disabled.", Err: raw}
	}},
	{"too many requests", func(raw error) *apperrors.Classified {
		return &apperrors.Classified{Kind: apperrors.KindTransient, Message: "Too many attempts. Please wait a moment and try again.", Err: raw}
	}},
	{"timeout", transientRule},
	{"timed out", transientRule},
	{"connection refused", transientRule},
	{"connection reset", transientRule},
	{"network", transientRule},
	{"temporarily unavailable", transientRule},
	{"no such host", transientRule},
}

func transientRule(raw error) *apperrors.Classified {
	return &apperrors.Classified{Kind: apperrors.KindTransient, Message: "Network problem. Please check your connection and try again.", Err: raw}
}

// ClassifyBackendError maps a raw backend error onto the error taxonomy by
// pattern match on known substrings. Already-classified errors pass through
// untouched. Unmatched errors are surfaced with their raw message rather
// than swallowed.
func ClassifyBackendError(err error) error {
	if err == nil {
		return nil
	}

	var c *apperrors.Classified
	if apperrors.As(err, &c) {
		return err
	}

	if apperrors.Is(err, context.DeadlineExceeded) || apperrors.Is(err, context.Canceled) {
		return transientRule(err)
	}

	raw := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if strings.Contains(raw, rule.substring) {
			return rule.classify(err)
		}
	}

	return apperrors.Internal(err.Error(), err)
}
