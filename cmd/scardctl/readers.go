package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opencard/scardcore/pkg/reader"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "list connected PC/SC readers",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := reader.ListReaders()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Reader"})
		for i, name := range names {
			t.AppendRow(table.Row{i, name})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readersCmd)
}
