// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-slots/internal/config"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
	"github.com/jeranaias/rigrun-slots/internal/util"
)

// ShellHistoryName is the history file of the shell, in the config dir.
const ShellHistoryName = "shell_history"

func newShellCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive line-oriented slot shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				sh := &shell{ms: ms, timeout: cfg.Client.RequestTimeout(), out: cmd.OutOrStdout()}
				return sh.run(ctx)
			})
		},
	}
}

// =============================================================================
// SHELL
// =============================================================================

// shell is another foreground surface: each command becomes a message to
// the background.
type shell struct {
	ms      messenger.Messenger
	timeout time.Duration
	out     io.Writer
}

type shellCommand struct {
	usage string
	help  string
	run   func(s *shell, ctx context.Context, args []string) error
}

// shellCommands is filled in init since cmdHelp reads it.
var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"list":   {"list", "list slots", (*shell).cmdList},
		"show":   {"show ID", "show one slot", (*shell).cmdShow},
		"add":    {"add [--type=Bedrock] NAME", "append a slot", (*shell).cmdAdd},
		"select": {"select ID", "select a slot", (*shell).cmdSelect},
		"rename": {"rename ID NAME", "rename a slot", (*shell).cmdRename},
		"delete": {"delete ID", "delete a slot", (*shell).cmdDelete},
		"export": {"export", "print the collection as YAML", (*shell).cmdExport},
		"key":    {"key [reset]", "show the stored key, or forget it", (*shell).cmdKey},
		"help":   {"help", "show this help", (*shell).cmdHelp},
	}
}

var errQuit = errors.New("quit")

func (s *shell) run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	historyFile := shellHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile)

	fmt.Fprintln(s.out, "Type help for commands, quit to leave.")
	for ctx.Err() == nil {
		input, err := line.Prompt("slots> ")
		if err != nil {
			// Ctrl+C or Ctrl+D
			fmt.Fprintln(s.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		err = s.exec(ctx, input)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, styles.RenderError(err.Error()))
		}
	}
	return nil
}

// exec runs one input line.
func (s *shell) exec(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "quit", "exit":
		return errQuit
	case "ls":
		name = "list"
	case "rm":
		name = "delete"
	}
	cmd, ok := shellCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return cmd.run(s, ctx, args)
}

func (s *shell) cmdList(ctx context.Context, _ []string) error {
	return listSlots(ctx, s.out, s.ms, s.timeout, false)
}

func (s *shell) cmdShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: show ID")
	}
	c, err := fetchSlots(ctx, s.ms, s.timeout)
	if err != nil {
		return err
	}
	slot, err := resolveSlot(c, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "ID:        %s\nName:      %s\nType:      %s\nSelected:  %t\n", slot.ID, slot.Name, slot.Type, slot.IsSelected)
	if slot.Assistant != "" {
		fmt.Fprintf(s.out, "Assistant: %s\n", slot.Assistant)
	}
	if slot.System != "" {
		fmt.Fprintf(s.out, "System:    %s\n", slot.System)
	}
	return nil
}

func (s *shell) cmdAdd(ctx context.Context, args []string) error {
	typ := model.DefaultSlotType
	if len(args) > 0 && strings.HasPrefix(args[0], "--type=") {
		typ = model.SlotType(strings.TrimPrefix(args[0], "--type="))
		args = args[1:]
	}
	return addSlot(ctx, s.out, s.ms, s.timeout, strings.Join(args, " "), typ)
}

func (s *shell) cmdSelect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: select ID")
	}
	return selectSlot(ctx, s.out, s.ms, s.timeout, args[0])
}

func (s *shell) cmdRename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: rename ID NAME")
	}
	c, err := fetchSlots(ctx, s.ms, s.timeout)
	if err != nil {
		return err
	}
	slot, err := resolveSlot(c, args[0])
	if err != nil {
		return err
	}
	slot.Name = util.NormalizeName(strings.Join(args[1:], " "))
	if _, err := notifyAndConfirm(ctx, s.ms, s.timeout, messenger.UpdateSlotData(slot)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Renamed %s to %s\n", shortID(slot.ID), slot.DisplayName())
	return nil
}

func (s *shell) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete ID")
	}
	return deleteSlot(ctx, s.out, s.ms, s.timeout, args[0])
}

func (s *shell) cmdExport(ctx context.Context, _ []string) error {
	return exportSlots(ctx, s.out, s.ms, s.timeout)
}

func (s *shell) cmdKey(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "reset" {
		s.ms.Send(messenger.ResetApiKey())
		fmt.Fprintln(s.out, "API key forgotten")
		return nil
	}
	if len(args) != 0 {
		return errors.New("usage: key [reset]")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cred, err := messenger.Call[model.Credential](ctx, s.ms, messenger.GetApiKey())
	var re *messenger.RemoteError
	if errors.As(err, &re) && re.Code == messenger.CodeNotFound {
		fmt.Fprintln(s.out, "No API key stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get api key: %w", err)
	}
	fmt.Fprintf(s.out, "Access key ID: %s\n", cred.Redacted().AccessKeyID)
	return nil
}

func (s *shell) cmdHelp(context.Context, []string) error {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := shellCommands[name]
		fmt.Fprintf(s.out, "  %-28s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(s.out, "  %-28s %s\n", "quit", "leave the shell")
	return nil
}

// =============================================================================
// LINE EDITING
// =============================================================================

func completeCommand(line string) []string {
	var out []string
	for name := range shellCommands {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func shellHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, ShellHistoryName)
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
