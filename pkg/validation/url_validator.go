package validation

import (
	"net/url"
	"strings"

	apperrors "go-skin-inspector/internal/errors"
)

// Schemes accepted for remote upload references. azblob references take the
// form azblob://<container>/<blob path>.
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeAzBlob = "azblob"
)

// URLValidator checks remote image references used by the upload path
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a validator accepting http, https and azblob
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS, SchemeAzBlob},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageReference parses and validates a remote image reference
func (v *URLValidator) ValidateImageReference(ref string) (*url.URL, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(strings.ToLower(parsedURL.Scheme)) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if strings.EqualFold(parsedURL.Scheme, SchemeAzBlob) && strings.Trim(parsedURL.Path, "/") == "" {
		return nil, apperrors.NewValidationError("blob reference must name a blob", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	return parsedURL, nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
