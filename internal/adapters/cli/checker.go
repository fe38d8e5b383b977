package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

// Input is the JSON document read by the checker
type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Honeypot string `json:"honeypot"`
	Client   string `json:"client"`
}

// Checker runs submissions through the spam guard from the command line
type Checker struct {
	guard   *core.SpamGuard
	sink    core.SubmissionSink
	content *content.Loader
	logger  *zap.Logger
	text    *utils.TextProcessor
	out     io.Writer
	verbose bool
}

// NewChecker creates a new CLI checker. sink and loader may be nil.
func NewChecker(guard *core.SpamGuard, sink core.SubmissionSink, loader *content.Loader, logger *zap.Logger, out io.Writer, verbose bool) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		guard:   guard,
		sink:    sink,
		content: loader,
		logger:  logger,
		text:    utils.NewTextProcessor(logger),
		out:     out,
		verbose: verbose,
	}
}

// Check reads one submission from r, evaluates it and prints the verdict
func (c *Checker) Check(ctx context.Context, r io.Reader, defaultClient string) (*core.Verdict, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to parse submission: %w", err)
	}
	if in.Client == "" {
		in.Client = defaultClient
	}

	c.logger.Debug("Checking submission", zap.Int("message_length", utf8.RuneCountInString(in.Message)))

	fmt.Fprintf(c.out, "\n=== Submission Summary ===\n")
	fmt.Fprintf(c.out, "Name: %s\n", in.Name)
	fmt.Fprintf(c.out, "Email: %s\n", in.Email)
	fmt.Fprintf(c.out, "Message length: %d characters\n", utf8.RuneCountInString(in.Message))
	fmt.Fprintf(c.out, "Honeypot filled: %t\n", strings.TrimSpace(in.Honeypot) != "")
	if c.verbose {
		fmt.Fprintf(c.out, "\nMessage preview:\n%s\n", c.text.Preview(in.Message, 500))
	}

	start := time.Now()
	verdict := c.guard.Check(ctx, &core.Submission{
		Name:           in.Name,
		Email:          in.Email,
		Message:        in.Message,
		Honeypot:       in.Honeypot,
		ClientIdentity: in.Client,
	})

	fmt.Fprintf(c.out, "\n=== Results ===\n")
	fmt.Fprintf(c.out, "Is spam: %t\n", verdict.IsSpam)
	fmt.Fprintf(c.out, "Allow: %t\n", verdict.Allow)
	fmt.Fprintf(c.out, "Score: %d\n", verdict.Score)
	fmt.Fprintf(c.out, "Confidence: %s\n", verdict.Confidence)
	if len(verdict.Reasons) > 0 {
		fmt.Fprintf(c.out, "Reasons:\n")
		for _, reason := range verdict.Reasons {
			fmt.Fprintf(c.out, "  - %s\n", reason)
		}
	}
	if c.verbose && verdict.Details != nil {
		d := verdict.Details
		fmt.Fprintf(c.out, "\n=== Details ===\n")
		fmt.Fprintf(c.out, "URLs: %d\n", d.URLCount)
		fmt.Fprintf(c.out, "Uppercase ratio: %.2f\n", d.UpperCaseRatio)
		fmt.Fprintf(c.out, "Keywords: %s\n", strings.Join(d.SpamKeywords, ", "))
		fmt.Fprintf(c.out, "Valid email: %t\n", d.ValidEmail)
	}
	fmt.Fprintf(c.out, "Processing time: %v\n", time.Since(start))

	return verdict, nil
}

// PingSink tests the configured sink connection
func (c *Checker) PingSink(ctx context.Context) error {
	if c.sink == nil {
		return errors.New("no sink configured")
	}
	if err := c.sink.Ping(ctx); err != nil {
		fmt.Fprintf(c.out, "Sink %s: FAILED (%v)\n", c.sink.Name(), err)
		return err
	}
	fmt.Fprintf(c.out, "Sink %s: OK\n", c.sink.Name())
	return nil
}

// ValidateContent reports whether every required content file is present
func (c *Checker) ValidateContent() bool {
	if c.content == nil {
		fmt.Fprintf(c.out, "Content: not configured\n")
		return false
	}
	missing := c.content.ValidateSetup()
	if len(missing) == 0 {
		fmt.Fprintf(c.out, "Content: OK\n")
		return true
	}
	fmt.Fprintf(c.out, "Content: missing %s\n", strings.Join(missing, ", "))
	return false
}
