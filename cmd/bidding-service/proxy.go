package main

import (
	"context"

	"github.com/spf13/cobra"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manage standing proxy bid orders",
}

var (
	proxyAuctionID string
	proxyBidderID  string
	proxyCeiling   int64
)

var proxyRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register or raise a proxy bid order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		order, err := a.Proxies.Register(ctx, proxyBidderID, proxyAuctionID, proxyCeiling)
		if err != nil {
			return err
		}
		return printJSON(cmd, order)
	},
}

var proxyCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel your proxy bid order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Proxies.Cancel(ctx, proxyBidderID, proxyAuctionID)
	},
}

func init() {
	proxyCmd.PersistentFlags().StringVar(&proxyAuctionID, "auction", "", "auction id")
	proxyCmd.PersistentFlags().StringVar(&proxyBidderID, "bidder", "", "bidder id")
	proxyCmd.MarkPersistentFlagRequired("auction")
	proxyCmd.MarkPersistentFlagRequired("bidder")

	proxyRegisterCmd.Flags().Int64Var(&proxyCeiling, "ceiling", 0, "highest price to bid up to")
	proxyRegisterCmd.MarkFlagRequired("ceiling")

	proxyCmd.AddCommand(proxyRegisterCmd, proxyCancelCmd)
	rootCmd.AddCommand(proxyCmd)
}
