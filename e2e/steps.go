package e2e

import (
	"github.com/cucumber/godog"

	"badgeledger/e2e/steps/common"
	"badgeledger/e2e/steps/ledger"
	"badgeledger/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Accounts, clock and generic response assertions
	common.RegisterSteps(ctx, tc)

	// Donations, fusion, marketplace and escrow
	ledger.RegisterSteps(ctx, tc)

	ratelimit.RegisterSteps(ctx, tc)
}
