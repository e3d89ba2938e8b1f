// Copyright (c) 2024-2026 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package cmd

import (
	"fmt"
	"os"

	"github.com/echa/config"
	"github.com/spf13/cobra"

	"blockwatch.cc/erc725"
	"blockwatch.cc/erc725/resolver"
	"blockwatch.cc/erc725/rpc"
	"blockwatch.cc/erc725/schema"
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(schemaCmd)
}

// newClient builds a typed contract client from flags and config.
func newClient() (*erc725.Client, error) {
	url := config.GetString("erc725.rpc.url")
	if url == "" {
		return nil, fmt.Errorf("missing RPC endpoint, use --rpc")
	}
	if addr == "" {
		return nil, fmt.Errorf("missing contract address, use --address")
	}
	store, err := rpc.NewClient(url, nil)
	if err != nil {
		return nil, err
	}
	c := erc725.NewClient(store.WithUserAgent(UserAgent()), addr)
	for _, fname := range schemas {
		buf, err := os.ReadFile(fname)
		if err != nil {
			return nil, err
		}
		if _, err := c.Schemas().RegisterJSON(buf); err != nil {
			return nil, fmt.Errorf("%s: %v", fname, err)
		}
	}
	if err := c.Schemas().LoadExtensions(); err != nil {
		return nil, err
	}
	return c, nil
}

// newResolver builds the external content resolver from config.
func newResolver() (*resolver.Resolver, error) {
	r := resolver.New()
	if path := config.GetString("erc725.cache.path"); path != "" {
		cache, err := resolver.OpenCache(path)
		if err != nil {
			return nil, err
		}
		r = r.WithCache(cache)
	}
	return r, nil
}

var getCmd = &cobra.Command{
	Use:   "get <name|key> [<name|key>...]",
	Short: "Read and decode contract data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.GetDataBatch(cmd.Context(), args)
		if err != nil {
			return err
		}
		print(result)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <name|key> [<name|key>...]",
	Short: "Read contract data and resolve external content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := newResolver()
		if err != nil {
			return err
		}
		result, err := c.WithResolver(r).FetchDataBatch(cmd.Context(), args)
		if err != nil {
			return err
		}
		print(result)
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Print the contract owner address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		owner, err := c.Owner(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(owner)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List registered schema descriptors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := schema.NewRegistry(schema.DefaultDescriptors()...)
		for _, fname := range schemas {
			buf, err := os.ReadFile(fname)
			if err != nil {
				return err
			}
			if _, err := r.RegisterJSON(buf); err != nil {
				return fmt.Errorf("%s: %v", fname, err)
			}
		}
		if err := r.LoadExtensions(); err != nil {
			return err
		}
		print(r.Descriptors())
		return nil
	},
}
