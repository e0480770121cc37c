// Package cmd implements procwatch's demonstrator binary: a CLI that
// exercises the engine end to end. It is not part of the core's
// contract — TUI rendering, flag parsing, and text formatting belong to
// whatever real collaborator embeds the library.
package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nsolari/procwatch/affinity"
	"github.com/nsolari/procwatch/config"
	"github.com/nsolari/procwatch/engine"
	"github.com/nsolari/procwatch/sampler"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// ExitCodeError signals a non-zero exit code without calling os.Exit
// directly, so main can decide whether to print "Error: ...".
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

func printUsage() {
	fmt.Fprintf(os.Stderr, `procwatch v%s — Linux process observability engine

Usage:
  procwatch [OPTIONS]

Modes:
  (default)               Interactive TUI (bubbletea, live process table)
  -json                   Single JSON snapshot to stdout, then exit
  -daemon                 Run sampler/history/alerts with no TUI until interrupted

Process control:
  -affinity PID           Print PID's CPU affinity
  -set-affinity PID=LIST  Pin PID to the CPU list (e.g. "1234=0-1,3")
  -nice PID=N             Set PID's nice value
  -kill PID=SIG           Send a signal (by number) to PID
  -killpg PGID=SIG        Send a signal (by number) to a process group

Options:
  -interval DURATION      Sampler refresh interval (default 2s)
  -db PATH                History database path (default procwatch_history.db)
  -no-history             Disable the history subsystem
  -retention DAYS         History retention in days (default 7)

`, Version)
}

// cliConfig holds the flags this demonstrator understands.
type cliConfig struct {
	interval    time.Duration
	jsonMode    bool
	daemonMode  bool
	dbPath      string
	noHistory   bool
	retention   int
	affinityPID int
	setAffinity string
	nice        string
	kill        string
	killpg      string
}

// Run parses flags and dispatches to the selected mode.
func Run() error {
	fs := flag.NewFlagSet("procwatch", flag.ContinueOnError)
	fs.Usage = printUsage

	cli := cliConfig{}
	fs.DurationVar(&cli.interval, "interval", 2*time.Second, "sampler refresh interval")
	fs.BoolVar(&cli.jsonMode, "json", false, "print one JSON snapshot and exit")
	fs.BoolVar(&cli.daemonMode, "daemon", false, "run without a TUI until interrupted")
	fs.StringVar(&cli.dbPath, "db", "", "history database path")
	fs.BoolVar(&cli.noHistory, "no-history", false, "disable the history subsystem")
	fs.IntVar(&cli.retention, "retention", 0, "history retention in days")
	fs.IntVar(&cli.affinityPID, "affinity", 0, "print this pid's CPU affinity")
	fs.StringVar(&cli.setAffinity, "set-affinity", "", "PID=CPULIST")
	fs.StringVar(&cli.nice, "nice", "", "PID=NICE")
	fs.StringVar(&cli.kill, "kill", "", "PID=SIGNAL")
	fs.StringVar(&cli.killpg, "killpg", "", "PGID=SIGNAL")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return ExitCodeError{Code: 0}
		}
		return ExitCodeError{Code: 2}
	}

	switch {
	case cli.affinityPID != 0:
		return runGetAffinity(cli.affinityPID)
	case cli.setAffinity != "":
		return runSetAffinity(cli.setAffinity)
	case cli.nice != "":
		return runSetNice(cli.nice)
	case cli.kill != "":
		return runKill(cli.kill)
	case cli.killpg != "":
		return runKillGroup(cli.killpg)
	}

	cfg := config.Load()
	if cli.dbPath != "" {
		cfg.History.DatabasePath = cli.dbPath
	}
	if cli.noHistory {
		cfg.History.Enabled = false
	}
	if cli.retention > 0 {
		cfg.History.RetentionDays = cli.retention
	}

	engCfg := engine.DefaultConfig()
	engCfg.RefreshInterval = cli.interval
	engCfg.HistoryEnabled = cfg.History.Enabled
	engCfg.DatabasePath = cfg.History.DatabasePath
	engCfg.RetentionDays = cfg.History.RetentionDays
	engCfg.Sampler.EnableContainerDetection = cfg.Features.ContainerDetection
	engCfg.Sampler.EnableNetworkCount = cfg.Features.NetworkMonitoring
	engCfg.Notifier.Webhook = cfg.Notify.Webhook
	engCfg.Notifier.Command = cfg.Notify.Command
	engCfg.Notifier.Email = cfg.Notify.Email
	engCfg.Notifier.SlackWebhook = cfg.Notify.SlackWebhook
	engCfg.Notifier.TelegramBotToken = cfg.Notify.TelegramBotToken
	engCfg.Notifier.TelegramChatID = cfg.Notify.TelegramChatID

	switch {
	case cli.jsonMode:
		return runJSONOnce(engCfg)
	case cli.daemonMode:
		return runDaemon(engCfg)
	default:
		return runTUI(engCfg)
	}
}

func runJSONOnce(cfg engine.Config) error {
	s := sampler.New(cfg.Sampler)
	snap, _, err := s.Refresh()
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func parsePIDEqual(spec string) (int, string, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("expected PID=VALUE, got %q", spec)
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("bad pid %q: %w", parts[0], err)
	}
	return pid, parts[1], nil
}

func runGetAffinity(pid int) error {
	cpus, err := affinity.GetCPUAffinity(pid)
	if err != nil {
		return err
	}
	fmt.Println(affinity.FormatAffinityList(cpus))
	return nil
}

func runSetAffinity(spec string) error {
	pid, list, err := parsePIDEqual(spec)
	if err != nil {
		return err
	}
	cpus, err := affinity.ParseAffinityString(list)
	if err != nil {
		return err
	}
	return affinity.SetCPUAffinity(pid, cpus)
}

func runSetNice(spec string) error {
	pid, val, err := parsePIDEqual(spec)
	if err != nil {
		return err
	}
	nice, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("bad nice value %q: %w", val, err)
	}
	return affinity.SetNiceValue(pid, nice)
}

func runKill(spec string) error {
	pid, sigStr, err := parsePIDEqual(spec)
	if err != nil {
		return err
	}
	sig, err := strconv.Atoi(sigStr)
	if err != nil {
		return fmt.Errorf("bad signal %q: %w", sigStr, err)
	}
	return affinity.KillProcess(pid, affinity.Signal(sig))
}

func runKillGroup(spec string) error {
	pgid, sigStr, err := parsePIDEqual(spec)
	if err != nil {
		return err
	}
	sig, err := strconv.Atoi(sigStr)
	if err != nil {
		return fmt.Errorf("bad signal %q: %w", sigStr, err)
	}
	return affinity.KillProcessGroup(pgid, affinity.Signal(sig))
}

func runDaemon(cfg engine.Config) error {
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "procwatch daemon started (pid=%d, interval=%s)\n", os.Getpid(), cfg.RefreshInterval)
	return eng.Run(rootContext())
}

func runTUI(cfg engine.Config) error {
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	ctx := rootContext()
	go func() {
		_ = eng.Run(ctx)
	}()

	p := tea.NewProgram(newTableModel(eng, cfg.RefreshInterval), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
