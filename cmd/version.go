// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	COMPANY_NAME        = "Blockwatch Data Inc."
	ORG_NAME            = "Blockwatch"
	APP_NAME            = "erc725"
	VERSION      string = "v1.0.0"
	GITCOMMIT    string = "dev"
	ENV_PREFIX          = "ERC725"
)

func UserAgent() string {
	return fmt.Sprintf("%s-%s/%s.%s",
		ORG_NAME,
		APP_NAME,
		VERSION,
		GITCOMMIT,
	)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of " + APP_NAME,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s %s -- %s\n", ORG_NAME, APP_NAME, VERSION, GITCOMMIT)
		fmt.Printf("(c) Copyright 2024-2026 -- %s\n", COMPANY_NAME)
		fmt.Printf("Go version (client): %s\n", runtime.Version())
	},
}
