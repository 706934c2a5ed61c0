package services

import (
	"errors"
	"net/http"
)

// Apology is a user-facing failure: the message is shown as-is with Code as the HTTP status.
type Apology struct {
	Message string
	Code    int
}

func (a *Apology) Error() string {
	return a.Message
}

func apologize(message string, code int) *Apology {
	return &Apology{Message: message, Code: code}
}

// forbidden is the status used for every input validation failure.
func forbidden(message string) *Apology {
	return apologize(message, http.StatusForbidden)
}

func badRequest(message string) *Apology {
	return apologize(message, http.StatusBadRequest)
}

func unavailable(message string) *Apology {
	return apologize(message, http.StatusInternalServerError)
}

// AsApology reports whether err carries an Apology.
func AsApology(err error) (*Apology, bool) {
	var apology *Apology
	if errors.As(err, &apology) {
		return apology, true
	}
	return nil, false
}
