package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/workflow"
)

// Runs one settlement tick from the command line. Meant for cron hosts that
// prefer a binary over hitting the /jobs endpoints.
func main() {
	profileID := flag.String("profile-id", "", "Optional: settle a single profile; default all profiles")
	dateStr := flag.String("date", "", "Optional: run date (YYYY-MM-DD), default today")
	flag.Parse()

	runDate := time.Now().UTC()
	if strings.TrimSpace(*dateStr) != "" {
		d, err := models.ParseDateOnly(strings.TrimSpace(*dateStr))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid date: %v\n", err)
			os.Exit(1)
		}
		runDate = d
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()

	if strings.TrimSpace(*profileID) != "" {
		result, err := workflow.RunSettlementForProfile(ctx, strings.TrimSpace(*profileID), runDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "settlement failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(result)
		return
	}

	results, err := workflow.RunSettlementForAllProfiles(ctx, runDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "settlement failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(results)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
