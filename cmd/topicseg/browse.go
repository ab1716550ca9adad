package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"topicseg/internal/service"
	"topicseg/internal/tui"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file>",
		Short: "Segment a file and browse its topics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			seg, err := service.NewFromConfig(a.cfg, a.log, nil)
			if err != nil {
				return err
			}
			res, err := seg.Segment(cmd.Context(), string(data))
			if err != nil {
				a.log.Error("segmentation failed", "error", err)
				return errSegmentation
			}
			p := tea.NewProgram(tui.New(args[0], res), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
