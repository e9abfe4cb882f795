package statuscheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type checkFunc func(ctx context.Context) error

func (f checkFunc) Check(ctx context.Context) error { return f(ctx) }

func TestSummaryAllHealthy(t *testing.T) {
	c := New(Options{
		Redis:     pingFunc(func(context.Context) error { return nil }),
		Archive:   checkFunc(func(context.Context) error { return nil }),
		Providers: []string{"gemini", "groq"},
		Search:    []string{"tavily", "duckduckgo"},
	})
	s := c.Summary(context.Background())
	assert.True(t, s.Providers.OK)
	assert.Equal(t, "Configured: gemini, groq", s.Providers.Message)
	assert.True(t, s.Search.OK)
	assert.Equal(t, "Configured: tavily -> duckduckgo", s.Search.Message)
	assert.True(t, s.Redis.OK)
	assert.True(t, s.S3.OK)
	assert.True(t, s.PDF.OK)
}

func TestSummaryDisabledAndFailing(t *testing.T) {
	long := errors.New(strings.Repeat("x", 300))
	c := New(Options{
		Archive: checkFunc(func(context.Context) error { return long }),
	})
	s := c.Summary(context.Background())
	assert.False(t, s.Providers.OK)
	assert.False(t, s.Search.OK)
	assert.Equal(t, Status{OK: false, Message: "Disabled"}, s.Redis)
	assert.False(t, s.S3.OK)
	assert.Len(t, s.S3.Message, 120)
}

func TestTrimErrorTimeout(t *testing.T) {
	assert.Equal(t, "timeout", trimError(context.DeadlineExceeded))
	assert.Equal(t, "", trimError(nil))
}
