// Package main implements the testnet-env CLI: it loads a declarative
// network descriptor, builds the service inventory, and answers topology
// and dependency queries against it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poco-labs/testnet-env/internal/descriptor"
	"github.com/poco-labs/testnet-env/internal/inventory"
	"github.com/poco-labs/testnet-env/internal/repo"
	"github.com/poco-labs/testnet-env/pkg/logger"
)

var (
	descriptorPath string
	verbose        bool
)

func buildRegistry(ctx context.Context) (*inventory.Registry, error) {
	n, err := descriptor.Load(descriptorPath)
	if err != nil {
		return nil, err
	}
	level := logrus.WarnLevel
	if verbose {
		level = logrus.DebugLevel
	}
	// Repositories resolve from the descriptor's static pins; runs that
	// need live git resolution plug a real resolver in here.
	resolver := staticResolutions(n)
	return descriptor.Build(ctx, n, resolver, logger.New("inventory", level))
}

// staticResolutions pins every declared repository to its descriptor
// version so the CLI works offline.
func staticResolutions(n *descriptor.Network) repo.Resolver {
	s := repo.Static{}
	for _, w := range n.Workers {
		s[w.Repository.Name] = repo.Resolution{
			VersionTag: w.Repository.Version,
			RepoName:   w.Repository.Name,
		}
	}
	return s
}

var rootCmd = &cobra.Command{
	Use:   "testnet-env",
	Short: "Provision and inspect a multi-process blockchain test network",
	Long: `testnet-env builds the service inventory of a blockchain test
network from a declarative YAML descriptor and answers queries about its
topology and dependency order.`,
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the descriptor and report the first configuration error",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("ok: %d entries, %d hubs, %d chains\n",
			len(reg.Entries()), len(reg.Hubs()), len(reg.Chains()))
		return nil
	},
}

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print hubs, chains and registered entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("hubs:")
		for _, h := range reg.Hubs() {
			fmt.Printf("  %-24s chain=%d flavour=%-10s native=%-5t sim=%s\n",
				h.Alias, h.ChainID, h.Flavour, h.Native, h.ChainSimName)
		}
		fmt.Println("chains:")
		for _, c := range reg.Chains() {
			fmt.Printf("  %-16s hub=%-24s bridge=%-16s swap=%s\n",
				c.Name, c.HubAlias, orDash(c.BridgedChain), orDash(c.EnterpriseSwapChain))
		}
		fmt.Println("entries:")
		for _, e := range reg.Entries() {
			local, err := reg.IsLocal(e)
			if err != nil {
				return err
			}
			fmt.Printf("  %-20s %-18s %-28s local=%t\n", e.Type(), e.Name(), e.ResolvedAddr(), local)
		}
		return nil
	},
}

var (
	depsHub   string
	depsIndex int
	depsSGX   bool
)

var depsCmd = &cobra.Command{
	Use:   "deps [name]",
	Short: "Print the dependency closure of an entry or a worker",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry(cmd.Context())
		if err != nil {
			return err
		}
		var set *inventory.DependencySet
		switch {
		case len(args) == 1:
			set, err = reg.DependenciesOf(args[0])
		case depsHub != "":
			set, err = reg.WorkerDependenciesOf(depsHub, depsIndex, depsSGX)
		default:
			return fmt.Errorf("give an entry name or --hub/--index")
		}
		if err != nil {
			return err
		}
		for _, item := range set.Items() {
			fmt.Printf("  %-18s %s\n", item.Config.Kind(), item.Name)
		}
		if set.Worker != nil {
			fmt.Printf("worker: %s port=%d dir=%s\n", set.Worker.Name, set.Worker.Port, set.Worker.Directory)
		}
		fmt.Printf("%d dependencies\n", set.Size())
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&descriptorPath, "file", "f", "network.yaml", "network descriptor path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	depsCmd.Flags().StringVar(&depsHub, "hub", "", "hub alias for worker queries")
	depsCmd.Flags().IntVar(&depsIndex, "index", 0, "worker index")
	depsCmd.Flags().BoolVar(&depsSGX, "sgx", false, "sgx worker mode")
	rootCmd.AddCommand(validateCmd, topologyCmd, depsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
