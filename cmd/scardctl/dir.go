package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opencard/scardcore/pkg/card"
	"github.com/opencard/scardcore/pkg/reader"
)

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "list applications from EF.DIR",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Disconnect(reader.LeaveCard)

		apps, err := card.ListApplications(c)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "AID", "Label"})
		for i, app := range apps {
			t.AppendRow(table.Row{i, fmt.Sprintf("%X", app.AID), app.Label})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirCmd)
}
