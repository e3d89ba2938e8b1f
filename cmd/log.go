// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package cmd

import (
	"os"

	"github.com/echa/config"
	logpkg "github.com/echa/log"

	"blockwatch.cc/erc725"
	"blockwatch.cc/erc725/codec"
	"blockwatch.cc/erc725/resolver"
	"blockwatch.cc/erc725/rpc"
	"blockwatch.cc/erc725/schema"
)

var (
	log     = logpkg.NewLogger("MAIN") // main program
	schmLog = logpkg.NewLogger("SCHM") // schema registry
	codcLog = logpkg.NewLogger("CODC") // value codec
	jrpcLog = logpkg.NewLogger("JRPC") // json rpc client
	ftchLog = logpkg.NewLogger("FTCH") // external content fetcher
)

// Initialize package-global logger variables.
func init() {
	config.SetDefault("logging.backend", "stdout")
	config.SetDefault("logging.flags", "date,time,micro,utc")
	config.SetDefault("logging.level", "info")
	config.SetDefault("logging.schema", "info")
	config.SetDefault("logging.codec", "info")
	config.SetDefault("logging.rpc", "info")
	config.SetDefault("logging.fetch", "info")

	// assign default loggers
	erc725.UseLogger(log)
	schema.UseLogger(schmLog)
	codec.UseLogger(codcLog)
	rpc.UseLogger(jrpcLog)
	resolver.UseLogger(ftchLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]logpkg.Logger{
	"MAIN": log,
	"SCHM": schmLog,
	"CODC": codcLog,
	"JRPC": jrpcLog,
	"FTCH": ftchLog,
}

func initLogging() {
	cfg := logpkg.NewConfig()
	cfg.Level = logpkg.ParseLevel(config.GetString("logging.level"))
	cfg.Flags = logpkg.ParseFlags(config.GetString("logging.flags"))
	cfg.Backend = config.GetString("logging.backend")
	cfg.Filename = config.GetString("logging.filename")
	cfg.FileMode = os.FileMode(config.GetInt("logging.filemode"))
	logpkg.Init(cfg)

	log = logpkg.NewLogger("MAIN")

	// create loggers with configured backend
	schmLog = logpkg.NewLogger("SCHM")
	schmLog.SetLevel(logpkg.ParseLevel(config.GetString("logging.schema")))
	codcLog = logpkg.NewLogger("CODC")
	codcLog.SetLevel(logpkg.ParseLevel(config.GetString("logging.codec")))
	jrpcLog = logpkg.NewLogger("JRPC")
	jrpcLog.SetLevel(logpkg.ParseLevel(config.GetString("logging.rpc")))
	ftchLog = logpkg.NewLogger("FTCH")
	ftchLog.SetLevel(logpkg.ParseLevel(config.GetString("logging.fetch")))

	// assign default loggers
	erc725.UseLogger(log)
	schema.UseLogger(schmLog)
	codec.UseLogger(codcLog)
	rpc.UseLogger(jrpcLog)
	resolver.UseLogger(ftchLog)

	// store loggers in map
	subsystemLoggers = map[string]logpkg.Logger{
		"MAIN": log,
		"SCHM": schmLog,
		"CODC": codcLog,
		"JRPC": jrpcLog,
		"FTCH": ftchLog,
	}
}

func setLogLevels(level logpkg.Level) {
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
}
