package apperror

import "errors"

// UserMessage converts any error into the single line shown to the user.
//
// Screens never surface raw errors; every call site funnels its error through
// here so that the wording stays the same across the app. Messages that came
// from the backend (login/signup details, validation) are passed through
// verbatim because they are already written for end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	hasAppErr := errors.As(err, &appErr)

	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Please log in to continue."
	case errors.Is(err, ErrInFlight):
		return "Still sending your previous request. Please wait."
	case errors.Is(err, ErrAuth), errors.Is(err, ErrValidation), errors.Is(err, ErrForbidden):
		if hasAppErr {
			return appErr.Message
		}
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, ErrServer):
		if hasAppErr && appErr.StatusCode >= 500 {
			return "The server is having trouble right now. Please try again later."
		}
		if hasAppErr && appErr.Message != "" {
			return appErr.Message
		}
		return "The server rejected the request."
	case errors.Is(err, ErrDecode):
		return "Received an unexpected response from the server."
	case errors.Is(err, ErrInvalidURL):
		return "The server address is not configured correctly."
	case errors.Is(err, ErrNotFound):
		return "The item no longer exists."
	}
	return "Something went wrong. Please try again."
}
