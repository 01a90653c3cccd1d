// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli"

	"github.com/beevik/discore/proc/toy"
	"github.com/beevik/discore/shell"
	"github.com/beevik/discore/space"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "discore: fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	app := cli.NewApp()
	app.Name = "discore"
	app.Usage = "interactive disassembler core shell"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "project",
			Usage: "directory to open on startup (see the shell's 'open' command)",
		},
		cli.StringFlag{
			Name:  "area",
			Usage: "start,end address pair (hex, no 0x) defining an initial area",
		},
		cli.StringFlag{
			Name:  "entry",
			Usage: "address (hex, no 0x) to analyze on startup",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "path to a debug log file; analysis progress is written there",
		},
	}
	app.Action = runShell

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "discore: %v\n", err)
		os.Exit(1)
	}
}

func runShell(c *cli.Context) error {
	log, closeLog, err := newLogger(c.String("log"))
	if err != nil {
		return err
	}
	defer closeLog()

	s := space.New()
	sh := shell.New(s, toy.New(), log)

	if err := bootstrap(sh, s, c); err != nil {
		return err
	}

	sh.RunCommands(os.Stdin, os.Stdout, true)
	return nil
}

// newLogger builds the slog.Logger that fans out to stderr and,
// optionally, to a debug log file at path.
func newLogger(path string) (*slog.Logger, func(), error) {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	closeFn := func() {}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("discore: opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, closeFn, nil
}

// bootstrap applies the --project/--area/--entry flags before handing
// control to the interactive loop.
func bootstrap(sh *shell.Shell, s *space.AddressSpace, c *cli.Context) error {
	if area := c.String("area"); area != "" {
		start, end, err := parseAreaFlag(area)
		if err != nil {
			return err
		}
		s.AddArea(start, end, "")
	}

	if project := c.String("project"); project != "" {
		if err := sh.OpenProject(project); err != nil {
			return err
		}
	}

	if entry := c.String("entry"); entry != "" {
		addr, err := shell.ParseAddrFlag(entry)
		if err != nil {
			return err
		}
		if err := sh.AnalyzeFrom(addr); err != nil {
			return err
		}
	}

	return nil
}

func parseAreaFlag(s string) (uint32, uint32, error) {
	start, end, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("discore: invalid --area %q, want <start>,<end>", s)
	}
	startAddr, err := shell.ParseAddrFlag(start)
	if err != nil {
		return 0, 0, err
	}
	endAddr, err := shell.ParseAddrFlag(end)
	if err != nil {
		return 0, 0, err
	}
	return startAddr, endAddr, nil
}
