package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/config"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

// kindExitCodes covers failure kinds whose code does not depend on the status.
var kindExitCodes = map[api.ErrorKind]int{
	api.KindNotFound:    exitNotFound,
	api.KindConflict:    exitUsage,
	api.KindValidation:  exitUsage,
	api.KindServerError: exitServer,
}

var structuredExitCodes = map[api.ErrorCode]int{
	api.ErrUnauthorized:   exitAuth,
	api.ErrSessionInvalid: exitAuth,
	api.ErrConfig:         exitAuth,
	api.ErrForbidden:      exitForbidden,
	api.ErrNotFound:       exitNotFound,
	api.ErrRateLimited:    exitRateLimited,
	api.ErrServerError:    exitServer,
	api.ErrCircuitOpen:    exitServer,
	api.ErrTimeout:        exitNetwork,
	api.ErrNetwork:        exitNetwork,
	api.ErrBadRequest:     exitUsage,
	api.ErrValidation:     exitUsage,
	api.ErrConflict:       exitUsage,
}

var sentinelExitCodes = []struct {
	err  error
	code int
}{
	{api.ErrInvalidSession, exitAuth},
	{api.ErrMissingClientCredentials, exitAuth},
	{config.ErrNotLoggedIn, exitAuth},
	{config.ErrMissingAPIURL, exitUsage},
}

// usageIndicators are fragments of cobra, pflag and flag validation messages.
var usageIndicators = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"requires at least",
	"requires exactly",
	"accepts ",
	"invalid argument",
	"must be",
	"is required",
	"cannot be used",
	"unsupported",
}

// ExitCode maps an error to a process exit code. API failures are matched by
// kind, then structured error codes, then sentinels, then message shape.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	var f *api.Failure
	if errors.As(err, &f) {
		return failureExitCode(f)
	}
	if structured := api.StructuredErrorFromError(err); structured != nil {
		if code, ok := structuredExitCodes[structured.Code]; ok {
			return code
		}
	}
	for _, s := range sentinelExitCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range usageIndicators {
		if strings.Contains(msg, indicator) {
			return exitUsage
		}
	}
	if isNetworkError(err, msg) {
		return exitNetwork
	}
	return exitGeneric
}

func failureExitCode(f *api.Failure) int {
	if code, ok := kindExitCodes[f.Kind]; ok {
		return code
	}
	switch {
	case f.Kind == api.KindAuth && f.StatusCode == http.StatusForbidden:
		return exitForbidden
	case f.Kind == api.KindAuth:
		return exitAuth
	case f.Kind == api.KindNetwork && api.IsCircuitBreakerError(f.Err):
		return exitServer
	case f.Kind == api.KindNetwork:
		return exitNetwork
	case f.StatusCode == http.StatusTooManyRequests:
		return exitRateLimited
	}
	return exitGeneric
}

func isNetworkError(err error, msg string) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return true
	}
	for _, fragment := range []string{"connection refused", "no such host", "certificate", "i/o timeout"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
