package domain

import (
	"time"
)

type Auction struct {
	ID              string
	SellerID        string
	Category        string
	Name            string
	ImageURLs       []string
	State           AuctionState
	CurrentTopPrice int64
	BuyNowPrice     int64
	Version         int64
	UpdatedAt       time.Time
}

type AuctionState int

const (
	AuctionOpen AuctionState = iota
	AuctionClosed
)

func (s AuctionState) String() string {
	switch s {
	case AuctionOpen:
		return "open"
	case AuctionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CoverImage is the first image reference, or "" when the listing has none.
func (a *Auction) CoverImage() string {
	if len(a.ImageURLs) == 0 {
		return ""
	}
	return a.ImageURLs[0]
}

func (a *Auction) IsOpen() bool {
	return a.State == AuctionOpen
}

// Clone returns a copy that shares nothing with a.
func (a *Auction) Clone() *Auction {
	c := *a
	if a.ImageURLs != nil {
		c.ImageURLs = append([]string(nil), a.ImageURLs...)
	}
	return &c
}

func (a *Auction) Snapshot() AuctionSnapshot {
	return AuctionSnapshot{
		ID:              a.ID,
		SellerID:        a.SellerID,
		Name:            a.Name,
		Category:        a.Category,
		Image:           a.CoverImage(),
		State:           a.State.String(),
		CurrentTopPrice: a.CurrentTopPrice,
		BuyNowPrice:     a.BuyNowPrice,
		Version:         a.Version,
	}
}

type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type ProxyBidOrder struct {
	AuctionID    string
	BidderID     string
	CeilingPrice int64
}

// AuctionSnapshot is the document handed to the search index.
type AuctionSnapshot struct {
	ID              string `json:"id"`
	SellerID        string `json:"seller_id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Image           string `json:"image"`
	State           string `json:"state"`
	CurrentTopPrice int64  `json:"current_top_price"`
	BuyNowPrice     int64  `json:"buy_now_price"`
	Version         int64  `json:"version"`
}

type NotificationKind string

const (
	NotifyOutbidByManualBid NotificationKind = "outbid-by-manual-bid"
	NotifyOutbidByProxy     NotificationKind = "outbid-by-proxy"
	NotifyProxyExhausted    NotificationKind = "proxy-exhausted"
)

type Notification struct {
	RecipientID string           `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	AuctionID   string           `json:"auction_id"`
	AuctionName string           `json:"auction_name"`
	ImageURL    string           `json:"image_url"`
	Price       int64            `json:"price"`
	Timestamp   time.Time        `json:"timestamp"`
}
