package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker verifies the report archive bucket.
type BucketChecker interface {
	Check(ctx context.Context) error
}

// Checker aggregates readiness of the dependencies a request may touch.
type Checker struct {
	redis     RedisPinger
	archive   BucketChecker
	providers []string
	search    []string
}

// Options configures the Checker. Nil Redis or Archive means the feature is disabled.
type Options struct {
	Redis     RedisPinger
	Archive   BucketChecker
	Providers []string // names of providers with credentials
	Search    []string // names of usable web search backends, in try order
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for /api/status.
type Summary struct {
	Providers Status `json:"providers"`
	Search    Status `json:"search"`
	Redis     Status `json:"redis"`
	S3        Status `json:"s3"`
	PDF       Status `json:"pdf"`
}

func New(opts Options) *Checker {
	return &Checker{
		redis:     opts.Redis,
		archive:   opts.Archive,
		providers: append([]string(nil), opts.Providers...),
		search:    append([]string(nil), opts.Search...),
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Providers: c.checkProviders(),
		Search:    c.checkSearch(),
		Redis:     c.checkRedis(ctx),
		S3:        c.checkS3(ctx),
		PDF:       Status{OK: true, Message: "Embedded (go-fitz)"},
	}
}

func (c *Checker) checkProviders() Status {
	if len(c.providers) == 0 {
		return Status{OK: false, Message: "No provider API keys configured"}
	}
	return Status{OK: true, Message: fmt.Sprintf("Configured: %s", strings.Join(c.providers, ", "))}
}

func (c *Checker) checkSearch() Status {
	if len(c.search) == 0 {
		return Status{OK: false, Message: "No search backend available"}
	}
	return Status{OK: true, Message: fmt.Sprintf("Configured: %s", strings.Join(c.search, " -> "))}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: "Disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.archive == nil {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.archive.Check(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
