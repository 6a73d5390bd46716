package config

import (
	"os"
	"strings"
)

// InstallmentCatchUp controls how installment due dates are matched against
// the run date. When enabled (the default), any installment whose due date is
// on or before the run date settles, so missed runner days are caught up on
// the next tick. Set INSTALLMENT_CATCH_UP=false to restore strict same-day
// matching.
func InstallmentCatchUp() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("INSTALLMENT_CATCH_UP")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SettlementEventsEnabled gates the outbox publication of settlement events
// to Pub/Sub. Runs still record outbox rows when disabled; the dispatcher
// simply does not start.
//
// Set via env:
// - SETTLEMENT_EVENTS=true
func SettlementEventsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SETTLEMENT_EVENTS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
