package middleware

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/bryanwahyu/reason3/internal/domain/ai"
)

// Input validation and sanitization utilities

// ValidateURL accepts public http(s) URLs only.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("URL has no host")
	}

	// SSRF protection
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if strings.HasSuffix(host, ".internal") || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("internal host names are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		return CheckIP(ip)
	}

	return nil
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// CheckIP rejects addresses that are not publicly routable.
func CheckIP(ip net.IP) error {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if ip.IsPrivate() || sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("private IP ranges are not allowed")
	}
	return nil
}

// ValidateImageDataURL checks that s is a base64 image data URL.
func ValidateImageDataURL(s string) error {
	if s == "" {
		return nil
	}
	if _, err := ai.ParseDataURL(s); err != nil {
		return fmt.Errorf("invalid imageData: %w", err)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
