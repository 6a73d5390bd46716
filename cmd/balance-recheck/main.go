package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"bitbucket.org/mmdatafocus/fintrack_backend/workflow"
)

// Replays every account's transaction history for a profile and repairs any
// stored balance that drifted. Prints the drift report.
func main() {
	profileID := flag.String("profile-id", "", "Required: profile id")
	flag.Parse()

	if strings.TrimSpace(*profileID) == "" {
		fmt.Fprintln(os.Stderr, "--profile-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetProfileIdInContext(context.Background(), strings.TrimSpace(*profileID))
	result, err := workflow.ReconcileProfileBalances(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recheck failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	if len(result.Drifts) > 0 {
		fmt.Fprintf(os.Stderr, "%d account(s) had drifted balances (now repaired)\n", len(result.Drifts))
		os.Exit(2)
	}
}
