/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"fmt"

	"github.com/litefab/litefab/internal/client"
	"github.com/litefab/litefab/internal/config"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/policy"
	"github.com/spf13/cobra"
)

// ClientCmd groups the deploy/invoke/query operations a configured client
// identity can perform against a running network.
func ClientCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Act as a configured client identity against a litefab network",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "client.yaml", "client config file")

	cmd.AddCommand(deployCmd(&configPath))
	cmd.AddCommand(invokeCmd(&configPath))
	cmd.AddCommand(queryCmd(&configPath))
	return cmd
}

func newClient(configPath string) (*client.Client, error) {
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return nil, err
	}
	key, err := config.LoadIdentityKey(cfg.Identity)
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Identity.ID, cfg.Identity.OrgID, key, cfg.PeerAddrs, cfg.OrdererAddrs, cfg.RequestTimeout)
}

func deployCmd(configPath *string) *cobra.Command {
	var policyLiteral string
	var version string
	cmd := &cobra.Command{
		Use:   "deploy <chaincodeId> [args...]",
		Short: "Deploy a chaincode with an endorsement policy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath)
			if err != nil {
				return err
			}
			p, err := policy.Parse(policyLiteral)
			if err != nil {
				return err
			}
			result, err := c.Deploy(args[0], version, *p, args[1:])
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&policyLiteral, "policy", string(model.PolicyAny)+":", "endorsement policy literal, e.g. ANY:Org1,Org2")
	cmd.Flags().StringVar(&version, "version", "1.0", "chaincode version; must increase on redeploy")
	return cmd
}

func invokeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <chaincodeId> <function> [args...]",
		Short: "Invoke a deployed chaincode function",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath)
			if err != nil {
				return err
			}
			result, err := c.Invoke(args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
}

func queryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query <key>",
		Short: "Read a world-state key directly from a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath)
			if err != nil {
				return err
			}
			value, err := c.Query(args[0])
			if err != nil {
				return err
			}
			if value == nil {
				fmt.Println("<nil>")
				return nil
			}
			fmt.Println(*value)
			return nil
		},
	}
}
