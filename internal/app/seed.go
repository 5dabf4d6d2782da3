package app

import (
	"encoding/json"
	"fmt"
	"os"

	"bidmarket/internal/domain"

	"github.com/pkg/errors"
)

type seedAuction struct {
	ID              string   `json:"id"`
	SellerID        string   `json:"seller_id"`
	Category        string   `json:"category"`
	Name            string   `json:"name"`
	ImageURLs       []string `json:"image_urls"`
	CurrentTopPrice int64    `json:"current_top_price"`
	BuyNowPrice     int64    `json:"buy_now_price"`
	Closed          bool     `json:"closed"`
}

// loadSeed reads the auctions a memory store starts with. An empty path means none.
func loadSeed(path string) ([]*domain.Auction, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed on read seed file")
	}

	var entries []seedAuction
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "failed on parse seed file")
	}

	auctions := make([]*domain.Auction, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.SellerID == "" {
			return nil, fmt.Errorf("seed: auction needs id and seller_id")
		}
		if e.CurrentTopPrice > e.BuyNowPrice {
			return nil, fmt.Errorf("seed: auction %s top price %d above buy-now %d", e.ID, e.CurrentTopPrice, e.BuyNowPrice)
		}

		state := domain.AuctionOpen
		if e.Closed {
			state = domain.AuctionClosed
		}
		auctions = append(auctions, &domain.Auction{
			ID:              e.ID,
			SellerID:        e.SellerID,
			Category:        e.Category,
			Name:            e.Name,
			ImageURLs:       e.ImageURLs,
			State:           state,
			CurrentTopPrice: e.CurrentTopPrice,
			BuyNowPrice:     e.BuyNowPrice,
		})
	}
	return auctions, nil
}
