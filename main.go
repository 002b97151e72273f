package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/buildinfo"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
)

const usage = `Usage: monitor-flights <command> [flags]

Commands:
  scan       run one scan now and print the report
  plan       show the date pairs the next scan would search (no API calls)
  quota      plan scans against the remaining monthly search quota (-presets compares cadences)
  validate   check the configuration and estimate quota usage
  monitor    run scans on the MONITOR_CRON schedule, or a -preset, with the status server
  version    print build information

Run "monitor-flights <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "scan":
		err = runScan(args)
	case "plan":
		err = runPlan(args)
	case "quota":
		err = runQuota(args)
	case "validate":
		err = runValidate(args)
	case "monitor":
		err = runMonitor(args)
	case "version", "-v", "--version":
		fmt.Println(buildinfo.String())
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, monitor.ErrDeclined) {
		fmt.Println("Search cancelled.")
		return
	}
	if err != nil {
		logger.Error(err, cmd+" failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
