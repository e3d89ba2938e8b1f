// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echa/config"
	logpkg "github.com/echa/log"
)

var rootCmd = &cobra.Command{
	Use:          APP_NAME + " [OPTIONS] [COMMANDS]",
	Short:        "Read schema-typed data from ERC725Y smart contracts",
	SilenceUsage: true,
}

var (
	// configuration handling
	conf     string
	testconf bool

	// connection settings
	rpcurl  string
	addr    string
	gateway string
	schemas []string
	cache   string

	// verbosity levels
	verbose bool
	vdebug  bool
	vtrace  bool
)

func init() {
	cobra.OnInitialize(initConfig)

	// config
	rootCmd.PersistentFlags().StringVarP(&conf, "config", "c", "", "config file")
	rootCmd.PersistentFlags().BoolVarP(&testconf, "test", "t", false, "test configuration and exit")

	// connection
	rootCmd.PersistentFlags().StringVar(&rpcurl, "rpc", "", "Ethereum JSON-RPC endpoint `url`")
	rootCmd.PersistentFlags().StringVarP(&addr, "address", "a", "", "ERC725Y contract `address`")
	rootCmd.PersistentFlags().StringVar(&gateway, "gateway", "", "IPFS gateway `url`")
	rootCmd.PersistentFlags().StringArrayVarP(&schemas, "schema", "s", nil, "extra schema `file` (repeatable)")
	rootCmd.PersistentFlags().StringVar(&cache, "cache", "", "content cache `path`")

	// verbosity
	rootCmd.PersistentFlags().BoolVar(&verbose, "v", false, "be verbose")
	rootCmd.PersistentFlags().BoolVar(&vdebug, "vv", false, "debug mode")
	rootCmd.PersistentFlags().BoolVar(&vtrace, "vvv", false, "trace mode")
}

func Run() error {
	return rootCmd.Execute()
}

func initConfig() {
	// set initial log level
	switch true {
	case vtrace:
		setLogLevels(logpkg.LevelTrace)
	case vdebug:
		setLogLevels(logpkg.LevelDebug)
	default:
		setLogLevels(logpkg.LevelInfo)
	}

	// load config
	config.SetEnvPrefix(ENV_PREFIX)
	if conf != "" {
		config.SetConfigName(conf)
	}
	realconf := config.ConfigName()
	if _, err := os.Stat(realconf); err == nil {
		if err := config.ReadConfigFile(); err != nil {
			fmt.Printf("Could not read config %s: %v\n", realconf, err)
			os.Exit(1)
		}
		log.Infof("Using configuration file %s", realconf)
	}
	initLogging()

	// overwrite all subsystem levels
	switch true {
	case vtrace:
		setLogLevels(logpkg.LevelTrace)
	case vdebug:
		setLogLevels(logpkg.LevelDebug)
	case verbose:
		setLogLevels(logpkg.LevelInfo)
	}

	// command line overrides config file
	if rpcurl != "" {
		config.Set("erc725.rpc.url", rpcurl)
	}
	if gateway != "" {
		config.Set("erc725.ipfs.gateway", gateway)
	}
	if cache != "" {
		config.Set("erc725.cache.path", cache)
	}

	if testconf {
		print(config.All())
		log.Info("Configuration OK.")
		os.Exit(0)
	}
}

func print(val any) {
	body, _ := json.MarshalIndent(val, "", "  ")
	fmt.Println(string(body))
}
