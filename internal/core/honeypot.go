package core

import "strings"

const honeypotReason = "Honeypot field filled"

// CheckHoneypot reports whether the hidden form field was filled in
func CheckHoneypot(value string) bool {
	return strings.TrimSpace(value) != ""
}
