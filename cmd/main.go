package main

import (
	"os"

	"loan-engine/internal/cli"
)

// @title Loan Engine API
// @version 1.0
// @description EMI amortization, loan servicing and repayment tracking.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
