package common

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	DefineAccount(alias, address string) error
	ActAs(alias string) error
	AdvanceClock(d time.Duration)
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
}

// RegisterSteps registers background and generic assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^account "([^"]*)" has address "([^"]*)"$`, tc.DefineAccount)
	ctx.Step(`^I am "([^"]*)"$`, tc.ActAs)
	ctx.Step(`^(\d+) minutes? pass(?:es)?$`, steps.minutesPass)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the request should fail with "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) minutesPass(ctx context.Context, minutes int) error {
	s.tc.AdvanceClock(time.Duration(minutes) * time.Minute)
	return nil
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.GetLastResponseStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d", status, got)
	}
	return nil
}

func (s *commonSteps) errorShouldBe(ctx context.Context, code string) error {
	got, err := s.tc.GetResponseField("error")
	if err != nil {
		return err
	}
	if got != code {
		return fmt.Errorf("expected error %q, got %v", code, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s=%q, got %v", field, want, got)
	}
	return nil
}
