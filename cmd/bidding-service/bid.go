package main

import (
	"context"

	"github.com/spf13/cobra"
)

var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Place and inspect bids",
}

var (
	bidAuctionID string
	bidBidderID  string
	bidPrice     int64
)

var bidPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place a manual bid",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		bid, err := a.Bids.PlaceBid(ctx, bidBidderID, bidAuctionID, bidPrice)
		if err != nil {
			return err
		}
		return printJSON(cmd, bid)
	},
}

var bidListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an auction's bids, highest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		bids, err := a.Bids.ListBids(ctx, bidAuctionID)
		if err != nil {
			return err
		}
		return printJSON(cmd, bids)
	},
}

func init() {
	bidCmd.PersistentFlags().StringVar(&bidAuctionID, "auction", "", "auction id")
	bidCmd.MarkPersistentFlagRequired("auction")

	bidPlaceCmd.Flags().StringVar(&bidBidderID, "bidder", "", "bidder id")
	bidPlaceCmd.Flags().Int64Var(&bidPrice, "price", 0, "offered price")
	bidPlaceCmd.MarkFlagRequired("bidder")
	bidPlaceCmd.MarkFlagRequired("price")

	bidCmd.AddCommand(bidPlaceCmd, bidListCmd)
	rootCmd.AddCommand(bidCmd)
}
