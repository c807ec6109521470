// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigrun-slots/internal/config"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/slots"
	"github.com/jeranaias/rigrun-slots/internal/util"
)

// ExportVersion is the format version written by `slots export`.
const ExportVersion = 1

// SlotExport is the YAML document written by `slots export`.
type SlotExport struct {
	Version    int          `yaml:"version"`
	ExportedAt time.Time    `yaml:"exportedAt"`
	Slots      []model.Slot `yaml:"slots"`
}

func newSlotsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect and change slots without the TUI",
	}

	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List slots in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				return listSlots(ctx, cmd.OutOrStdout(), ms, cfg.Client.RequestTimeout(), jsonOut)
			})
		},
	}
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")

	var addName, addType string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a new slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				return addSlot(ctx, cmd.OutOrStdout(), ms, cfg.Client.RequestTimeout(), addName, model.SlotType(addType))
			})
		},
	}
	addCmd.Flags().StringVar(&addName, "name", "", "display name")
	addCmd.Flags().StringVar(&addType, "type", string(model.DefaultSlotType), "slot type (ChatGPT or Bedrock)")

	selectCmd := &cobra.Command{
		Use:   "select ID",
		Short: "Select a slot by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				return selectSlot(ctx, cmd.OutOrStdout(), ms, cfg.Client.RequestTimeout(), args[0])
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a slot by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				return deleteSlot(ctx, cmd.OutOrStdout(), ms, cfg.Client.RequestTimeout(), args[0])
			})
		},
	}

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the slot collection as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMessenger(cmd, func(ctx context.Context, cfg *config.Config, ms messenger.Messenger) error {
				if output == "" || output == "-" {
					return exportSlots(ctx, cmd.OutOrStdout(), ms, cfg.Client.RequestTimeout())
				}
				var buf strings.Builder
				if err := exportSlots(ctx, &buf, ms, cfg.Client.RequestTimeout()); err != nil {
					return err
				}
				if err := util.AtomicWriteFile(output, []byte(buf.String()), 0644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported slots to %s\n", output)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	cmd.AddCommand(listCmd, addCmd, selectCmd, deleteCmd, exportCmd)
	return cmd
}

// =============================================================================
// OPERATIONS
// =============================================================================

func fetchSlots(ctx context.Context, ms messenger.Messenger, timeout time.Duration) ([]model.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	got, err := messenger.Call[[]model.Slot](ctx, ms, messenger.GetSlots())
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	return got, nil
}

// resolveSlot finds a slot by exact id, then by unique id prefix.
func resolveSlot(c []model.Slot, ref string) (model.Slot, error) {
	if s, ok := slots.FindSlot(c, ref); ok {
		return s, nil
	}
	var matches []model.Slot
	for _, s := range c {
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return model.Slot{}, fmt.Errorf("no slot with id %q", ref)
	case 1:
		return matches[0], nil
	}
	return model.Slot{}, fmt.Errorf("id prefix %q matches %d slots", ref, len(matches))
}

// notifyAndConfirm sends a notification and reads the collection back.
// The connection is ordered, so the reply reflects the notification.
func notifyAndConfirm(ctx context.Context, ms messenger.Messenger, timeout time.Duration, msg messenger.Message) ([]model.Slot, error) {
	ms.Send(msg)
	return fetchSlots(ctx, ms, timeout)
}

func listSlots(ctx context.Context, w io.Writer, ms messenger.Messenger, timeout time.Duration, jsonOut bool) error {
	got, err := fetchSlots(ctx, ms, timeout)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(got)
	}
	writeSlotTable(w, got)
	return nil
}

func writeSlotTable(w io.Writer, c []model.Slot) {
	if len(c) == 0 {
		fmt.Fprintln(w, "No slots.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEL\tID\tNAME\tTYPE")
	for _, s := range c {
		mark := ""
		if s.IsSelected {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, shortID(s.ID), util.TruncateWidth(s.DisplayName(), 40), s.Type)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func addSlot(ctx context.Context, w io.Writer, ms messenger.Messenger, timeout time.Duration, name string, typ model.SlotType) error {
	if !typ.Valid() {
		return fmt.Errorf("unknown slot type %q (want %s or %s)", typ, model.SlotTypeChatGPT, model.SlotTypeBedrock)
	}
	current, err := fetchSlots(ctx, ms, timeout)
	if err != nil {
		return err
	}
	// The first slot of an empty collection starts selected.
	slot := model.NewSlot(
		model.WithName(util.NormalizeName(name)),
		model.WithType(typ),
		model.WithSelected(len(current) == 0),
	)
	got, err := notifyAndConfirm(ctx, ms, timeout, messenger.AddNewSlot(slot))
	if err != nil {
		return err
	}
	if _, ok := slots.FindSlot(got, slot.ID); !ok {
		return fmt.Errorf("slot %s was not added", slot.ID)
	}
	fmt.Fprintf(w, "Added %s (%s)\n", slot.DisplayName(), slot.ID)
	return nil
}

func selectSlot(ctx context.Context, w io.Writer, ms messenger.Messenger, timeout time.Duration, ref string) error {
	current, err := fetchSlots(ctx, ms, timeout)
	if err != nil {
		return err
	}
	target, err := resolveSlot(current, ref)
	if err != nil {
		return err
	}
	got, err := notifyAndConfirm(ctx, ms, timeout, messenger.SelectSlot(target.ID))
	if err != nil {
		return err
	}
	if sel, ok := slots.GetSelectedSlot(got); !ok || sel.ID != target.ID {
		return fmt.Errorf("slot %s was not selected", target.ID)
	}
	fmt.Fprintf(w, "Selected %s\n", target.DisplayName())
	return nil
}

func deleteSlot(ctx context.Context, w io.Writer, ms messenger.Messenger, timeout time.Duration, ref string) error {
	current, err := fetchSlots(ctx, ms, timeout)
	if err != nil {
		return err
	}
	target, err := resolveSlot(current, ref)
	if err != nil {
		return err
	}
	got, err := notifyAndConfirm(ctx, ms, timeout, messenger.DeleteSlot(target.ID))
	if err != nil {
		return err
	}
	if _, ok := slots.FindSlot(got, target.ID); ok {
		return fmt.Errorf("slot %s was not deleted", target.ID)
	}
	fmt.Fprintf(w, "Deleted %s\n", target.DisplayName())
	return nil
}

func exportSlots(ctx context.Context, w io.Writer, ms messenger.Messenger, timeout time.Duration) error {
	got, err := fetchSlots(ctx, ms, timeout)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(SlotExport{Version: ExportVersion, ExportedAt: time.Now().UTC(), Slots: got}); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}

