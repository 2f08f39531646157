package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opencard/scardcore/pkg/card"
	"github.com/opencard/scardcore/pkg/reader"
	"github.com/opencard/scardcore/pkg/path"
)

var selectCmd = &cobra.Command{
	Use:   "select <hex-file-id>",
	Short: "select a file by two-byte identifier and print its FCP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hi, lo byte
		if _, err := fmt.Sscanf(args[0], "%02x%02x", &hi, &lo); err != nil {
			return fmt.Errorf("parsing file id %q: %w", args[0], err)
		}

		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Disconnect(reader.LeaveCard)

		ref := path.FromFileID(uint16(hi)<<8 | uint16(lo))
		info, err := card.SelectFile(c, ref)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRow(table.Row{"Type", info.Type})
		t.AppendRow(table.Row{"Structure", info.Structure})
		t.AppendRow(table.Row{"Size", info.Size})
		t.AppendRow(table.Row{"Record count", info.RecordCount})
		t.AppendRow(table.Row{"Short EF id", fmt.Sprintf("%02X", info.ShortFileID)})
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
