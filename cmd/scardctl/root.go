package main

import (
	"github.com/spf13/cobra"

	"github.com/opencard/scardcore/internal/corelog"
)

var (
	version = "0.1.0"

	readerIndex int
	debugLevel  int
)

var rootCmd = &cobra.Command{
	Use:     "scardctl",
	Short:   "ISO/IEC 7816-4 smart card diagnostic CLI",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		corelog.SetLevel(corelog.LevelForDebug(debugLevel))
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&readerIndex, "reader", "r", 0,
		"reader index (see 'scardctl readers')")
	rootCmd.PersistentFlags().IntVarP(&debugLevel, "debug", "d", 0,
		"debug verbosity, 0-5 (5 hex-dumps the wire)")
}
