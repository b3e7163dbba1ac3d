package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers rate-limiting step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I read the ledger rules (\d+) times from IP "([^"]*)"$`, steps.readRulesNTimes)
	ctx.Step(`^the (\d+)(?:st|nd|rd|th) request should return (\d+)$`, steps.nthRequestShouldReturn)
	ctx.Step(`^the response should carry a Retry-After header$`, steps.responseShouldCarryRetryAfter)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

func (s *ratelimitSteps) readRulesNTimes(ctx context.Context, n int, ip string) error {
	s.statuses = s.statuses[:0]
	for range n {
		if err := s.tc.GET("/v1/rules", map[string]string{"X-Forwarded-For": ip}); err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) nthRequestShouldReturn(ctx context.Context, n, status int) error {
	if n < 1 || n > len(s.statuses) {
		return fmt.Errorf("only %d requests were sent", len(s.statuses))
	}
	if got := s.statuses[n-1]; got != status {
		return fmt.Errorf("request %d returned %d, expected %d", n, got, status)
	}
	return nil
}

func (s *ratelimitSteps) responseShouldCarryRetryAfter(ctx context.Context) error {
	if s.tc.GetLastResponseHeader("Retry-After") == "" {
		return fmt.Errorf("missing Retry-After header")
	}
	return nil
}
