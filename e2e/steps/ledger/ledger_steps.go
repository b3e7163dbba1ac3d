package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	id "badgeledger/pkg/domain"
)

const api = "/v1"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Account(alias string) (id.Account, error)
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	AdminPOST(path string, body any) error
	AdminPUT(path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
}

// RegisterSteps registers ledger step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	// Operator setup
	ctx.Step(`^"([^"]*)" is the payout address of project (\d+)$`, steps.registerProject)
	ctx.Step(`^"([^"]*)" was minted a (\w+) badge$`, steps.adminMint)

	// Caller actions
	ctx.Step(`^I donate "([^"]*)" to project (\d+)$`, steps.donate)
	ctx.Step(`^I transfer badge (\d+) to "([^"]*)"$`, steps.transfer)
	ctx.Step(`^I fuse badges (\d+) and (\d+)$`, steps.fuse)
	ctx.Step(`^I list badge (\d+) for "([^"]*)"$`, steps.list)
	ctx.Step(`^I cancel listing (\d+)$`, steps.cancel)
	ctx.Step(`^I buy listing (\d+) paying "([^"]*)"$`, steps.buy)
	ctx.Step(`^I withdraw the escrow of project (\d+)$`, steps.withdraw)
	ctx.Step(`^I withdraw the escrow of project (\d+) to "([^"]*)"$`, steps.withdrawTo)

	// Ledger state assertions
	ctx.Step(`^badge (\d+) should be a (\w+) badge owned by "([^"]*)"$`, steps.badgeShouldBeOwnedBy)
	ctx.Step(`^badge (\d+) should be burned$`, steps.badgeShouldBeBurned)
	ctx.Step(`^"([^"]*)" should hold (\d+) live badges?$`, steps.shouldHoldLiveBadges)
	ctx.Step(`^"([^"]*)" should have a balance of "([^"]*)"$`, steps.shouldHaveBalance)
	ctx.Step(`^the escrow of project (\d+) should be "([^"]*)"$`, steps.escrowShouldBe)
	ctx.Step(`^listing (\d+) should be (\w+)$`, steps.listingOutcomeShouldBe)
}

type ledgerSteps struct {
	tc TestContext
}

func (s *ledgerSteps) expectOK(op string) error {
	if status := s.tc.GetLastResponseStatus(); status >= 300 {
		code, _ := s.tc.GetResponseField("error")
		return fmt.Errorf("%s failed with %d (%v)", op, status, code)
	}
	return nil
}

func (s *ledgerSteps) registerProject(ctx context.Context, alias string, projectID int) error {
	owner, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	if err := s.tc.AdminPUT(fmt.Sprintf("%s/admin/projects/%d", api, projectID), map[string]any{
		"owner_address": owner.String(),
	}); err != nil {
		return err
	}
	return s.expectOK("register project")
}

func (s *ledgerSteps) adminMint(ctx context.Context, alias, tier string) error {
	owner, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	if err := s.tc.AdminPOST(api+"/admin/badges", map[string]any{
		"owner":        owner.String(),
		"tier":         tier,
		"metadata_ref": "ipfs://seed",
		"project_id":   1,
	}); err != nil {
		return err
	}
	return s.expectOK("mint")
}

func (s *ledgerSteps) donate(ctx context.Context, amount string, projectID int) error {
	return s.tc.POST(api+"/donations", map[string]any{
		"project_id":   projectID,
		"metadata_ref": "ipfs://donation",
		"amount":       amount,
	})
}

func (s *ledgerSteps) transfer(ctx context.Context, tokenID int, alias string) error {
	to, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	return s.tc.POST(fmt.Sprintf("%s/badges/%d/transfer", api, tokenID), map[string]any{"to": to.String()})
}

func (s *ledgerSteps) fuse(ctx context.Context, a, b int) error {
	return s.tc.POST(api+"/fusions", map[string]any{
		"token_a":      a,
		"token_b":      b,
		"metadata_ref": "ipfs://fused",
	})
}

func (s *ledgerSteps) list(ctx context.Context, tokenID int, price string) error {
	return s.tc.POST(api+"/listings", map[string]any{"token_id": tokenID, "price": price})
}

func (s *ledgerSteps) cancel(ctx context.Context, listingID int) error {
	return s.tc.POST(fmt.Sprintf("%s/listings/%d/cancel", api, listingID), nil)
}

func (s *ledgerSteps) buy(ctx context.Context, listingID int, payment string) error {
	return s.tc.POST(fmt.Sprintf("%s/listings/%d/buy", api, listingID), map[string]any{"payment": payment})
}

func (s *ledgerSteps) withdraw(ctx context.Context, projectID int) error {
	return s.tc.POST(fmt.Sprintf("%s/projects/%d/withdraw", api, projectID), nil)
}

func (s *ledgerSteps) withdrawTo(ctx context.Context, projectID int, alias string) error {
	recipient, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	return s.tc.POST(fmt.Sprintf("%s/projects/%d/withdraw", api, projectID), map[string]any{"recipient": recipient.String()})
}

func (s *ledgerSteps) field(name string) (string, error) {
	v, err := s.tc.GetResponseField(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (s *ledgerSteps) badgeShouldBeOwnedBy(ctx context.Context, tokenID int, tier, alias string) error {
	owner, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	if err := s.tc.GET(fmt.Sprintf("%s/badges/%d", api, tokenID), nil); err != nil {
		return err
	}
	if err := s.expectOK("get badge"); err != nil {
		return err
	}
	checks := map[string]string{"owner": owner.String(), "tier": tier, "alive": "true"}
	for name, want := range checks {
		got, err := s.field(name)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("badge %d: expected %s=%s, got %s", tokenID, name, want, got)
		}
	}
	return nil
}

func (s *ledgerSteps) badgeShouldBeBurned(ctx context.Context, tokenID int) error {
	if err := s.tc.GET(fmt.Sprintf("%s/badges/%d", api, tokenID), nil); err != nil {
		return err
	}
	alive, err := s.field("alive")
	if err != nil {
		return err
	}
	if alive != "false" {
		return fmt.Errorf("badge %d is still alive", tokenID)
	}
	return nil
}

func (s *ledgerSteps) account(alias string) error {
	account, err := s.tc.Account(alias)
	if err != nil {
		return err
	}
	if err := s.tc.GET(api+"/accounts/"+account.String(), nil); err != nil {
		return err
	}
	return s.expectOK("get account")
}

func (s *ledgerSteps) shouldHoldLiveBadges(ctx context.Context, alias string, count int) error {
	if err := s.account(alias); err != nil {
		return err
	}
	got, err := s.field("live_badge_count")
	if err != nil {
		return err
	}
	if got != strconv.Itoa(count) {
		return fmt.Errorf("%s holds %s live badges, expected %d", alias, got, count)
	}
	return nil
}

func (s *ledgerSteps) shouldHaveBalance(ctx context.Context, alias, amount string) error {
	if err := s.account(alias); err != nil {
		return err
	}
	return s.amountFieldShouldBe("balance", amount)
}

func (s *ledgerSteps) escrowShouldBe(ctx context.Context, projectID int, amount string) error {
	if err := s.tc.GET(fmt.Sprintf("%s/projects/%d/escrow", api, projectID), nil); err != nil {
		return err
	}
	if err := s.expectOK("get escrow"); err != nil {
		return err
	}
	return s.amountFieldShouldBe("balance", amount)
}

func (s *ledgerSteps) amountFieldShouldBe(name, amount string) error {
	raw, err := s.field(name)
	if err != nil {
		return err
	}
	got, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%s is not a decimal: %q", name, raw)
	}
	if !got.Equal(decimal.RequireFromString(amount)) {
		return fmt.Errorf("expected %s %s, got %s", name, amount, got)
	}
	return nil
}

func (s *ledgerSteps) listingOutcomeShouldBe(ctx context.Context, listingID int, outcome string) error {
	if err := s.tc.GET(fmt.Sprintf("%s/listings/%d", api, listingID), nil); err != nil {
		return err
	}
	if err := s.expectOK("get listing"); err != nil {
		return err
	}
	got, err := s.field("outcome")
	if err != nil {
		return err
	}
	if got != outcome {
		return fmt.Errorf("listing %d: expected outcome %s, got %s", listingID, outcome, got)
	}
	return nil
}
