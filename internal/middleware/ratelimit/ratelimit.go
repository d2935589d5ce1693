package rateLimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
)

// ValidateToken guards the public token lookup against link enumeration.
func ValidateToken() func(http.Handler) http.Handler {
	return limitByIP(30, 10*time.Minute)
}

func SubmitVerification() func(http.Handler) http.Handler {
	return limitByIP(10, 10*time.Minute)
}

func RequestVerification() func(http.Handler) http.Handler {
	return limitByIP(10, time.Hour)
}

func SendCommunication() func(http.Handler) http.Handler {
	return limitByIP(60, time.Hour)
}

// Disabled lets every request through; used when rate limiting is turned off.
func Disabled() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.LimitByIP(limit, window)
}
