package domainlist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker matches the domain part of email addresses against a fixed list
type Checker struct {
	name    string
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new domain checker. name is only used in log output.
func NewChecker(name string, domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalized := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized[domain] = struct{}{}
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized domain list",
			zap.String("list", name),
			zap.Int("domains", len(normalized)))
	}

	return &Checker{
		name:    name,
		domains: normalized,
		logger:  logger,
	}
}

// Domain returns the lowercased segment after the first '@', or "" when there is none
func Domain(email string) string {
	parts := strings.SplitN(email, "@", 3)
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// Contains reports whether the address belongs to a listed domain
func (c *Checker) Contains(email string) bool {
	if c == nil || len(c.domains) == 0 {
		return false
	}

	domain := Domain(email)
	if domain == "" {
		return false
	}

	if _, ok := c.domains[domain]; ok {
		if c.logger != nil {
			c.logger.Debug("Domain is listed",
				zap.String("list", c.name),
				zap.String("domain", domain))
		}
		return true
	}

	return false
}

// Len returns the number of listed domains
func (c *Checker) Len() int {
	if c == nil {
		return 0
	}
	return len(c.domains)
}
