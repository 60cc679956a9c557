package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/resolve"
)

// HandleError renders err as a user-facing message with suggestions.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder
	var failure *api.Failure
	var notFound *resolve.NotFoundError

	switch {
	case errors.As(err, &failure):
		msg.WriteString(describeFailure(failure))
		msg.WriteString(suggestionsForFailure(failure))

	case errors.Is(err, api.ErrInvalidSession), errors.Is(err, config.ErrNotLoggedIn):
		fmt.Fprintf(&msg, "Not authenticated: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: beyond auth login\n")
		msg.WriteString("  - Or set BEYOND_ACCESS_TOKEN for a one-off call\n")

	case errors.Is(err, api.ErrMissingClientCredentials):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Set BEYOND_CLIENT_ID and BEYOND_CLIENT_SECRET\n")
		msg.WriteString("  - Or add client_id and client_secret to the config file\n")

	case errors.Is(err, config.ErrMissingAPIURL):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Set BEYOND_API_URL (e.g. https://shop.example.com/api)\n")
		msg.WriteString("  - Or log in with: beyond auth login --api-url <url>\n")

	case errors.As(err, &notFound):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		fmt.Fprintf(&msg, "Known resources: %s\n", strings.Join(resolve.ResourceNames(), ", "))

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func describeFailure(f *api.Failure) string {
	switch {
	case f.Kind == api.KindNetwork && api.IsCircuitBreakerError(f.Err):
		return "Service temporarily unavailable (circuit breaker open).\n\n"
	case f.Kind == api.KindNetwork:
		return fmt.Sprintf("Network error: %s\n\n", f.Message())
	case f.StatusCode > 0:
		return fmt.Sprintf("API error (HTTP %d, %s): %s\n\n", f.StatusCode, f.Kind, f.Message())
	default:
		return fmt.Sprintf("API error (%s): %s\n\n", f.Kind, f.Message())
	}
}

func suggestionsForFailure(f *api.Failure) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch f.Kind {
	case api.KindAuth:
		if f.StatusCode == 403 {
			suggestions.WriteString("  - The token lacks the scope for this action\n")
			suggestions.WriteString("  - Check the scopes granted to the app\n")
		} else {
			suggestions.WriteString("  - The access token may be invalid or expired\n")
			suggestions.WriteString("  - Run: beyond auth refresh\n")
		}

	case api.KindNotFound:
		suggestions.WriteString("  - Check the resource ID or path\n")
		suggestions.WriteString("  - The resource may have been deleted\n")

	case api.KindValidation:
		suggestions.WriteString("  - Check your input values\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case api.KindConflict:
		suggestions.WriteString("  - The resource changed since it was read; fetch it again and retry\n")

	case api.KindServerError:
		suggestions.WriteString("  - Server error, not caused by the request\n")
		suggestions.WriteString("  - Wait and retry\n")

	case api.KindNetwork:
		suggestions.WriteString("  - Check your network connection\n")
		suggestions.WriteString("  - Verify the API URL: beyond auth status\n")

	default:
		if f.StatusCode == 429 {
			suggestions.WriteString("  - Too many requests; wait a few seconds and retry\n")
		} else {
			suggestions.WriteString("  - Use --debug for more details\n")
		}
	}

	return suggestions.String()
}
