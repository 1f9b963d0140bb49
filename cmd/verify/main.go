// Package main provides the link verification tool. It sweeps every URL in
// the link table and reports registered links whose targets have gone dead,
// including shortlink hosts that answer 200 with an error landing page.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/linkcheck"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
)

// CLI flags
var (
	linksFlag   = flag.String("links", "", "Link table CSV path (empty = use configured path)")
	timeoutFlag = flag.Duration("timeout", 30*time.Minute, "Overall sweep timeout")
	rateFlag    = flag.Float64("rate", 30, "Verification requests per minute")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.ToolMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	linksPath := *linksFlag
	if linksPath == "" {
		linksPath = cfg.LinkTablePath
	}

	table, err := linktable.LoadFile(linksPath, linktable.WithPadWidth(cfg.Resolver.PadWidth))
	if err != nil {
		log.WithError(err).WithField("path", linksPath).Error("Failed to load link table")
		color.Red("✗ Failed to load link table: %v", err)
		os.Exit(1)
	}

	links := table.Links()
	fmt.Printf("Verifying %d registered links from %s\n", len(links), linksPath)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	client := linkcheck.NewClient(config.LinkCheckRequest, *rateFlag, 3, config.LinkCheckRetryInitial)
	verifier := linkcheck.NewVerifier(client, log)

	start := time.Now()
	results, err := verifier.VerifyAll(ctx, links)
	if err != nil {
		log.WithError(err).Error("Sweep aborted")
		color.Red("✗ Sweep aborted after %d/%d links: %v", len(results), len(links), err)
		os.Exit(1)
	}

	dead := linkcheck.Dead(results)
	for _, r := range results {
		if r.OK {
			color.Green("✓ %s [%s] %s", r.DocID, r.Language, r.URL)
		} else {
			color.Red("✗ %s [%s] %s (%s)", r.DocID, r.Language, r.URL, r.Reason)
		}
	}

	fmt.Printf("\nSummary: %d live, %d dead (%v)\n",
		len(results)-len(dead), len(dead), time.Since(start).Round(time.Second))

	if len(dead) > 0 {
		os.Exit(1)
	}
}
