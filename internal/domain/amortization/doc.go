// Package amortization computes equated monthly installments, builds the
// month-by-month repayment schedule for a loan and annotates that schedule
// with recorded payments. Everything here is pure computation on
// shopspring/decimal values; callers own persistence and the clock.
package amortization
