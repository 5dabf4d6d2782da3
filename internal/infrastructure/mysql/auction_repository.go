package mysql

import (
	"context"
	"database/sql"

	"bidmarket/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

type MySQLAuctionRepository struct {
	db DBTX
}

func NewMySQLAuctionRepository(db DBTX) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) GetByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `
        SELECT id, seller_id, category, name, state, current_top_price, buy_now_price, version, updated_at
        FROM auctions WHERE id = ?
    `

	var auction domain.Auction
	var state int

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&auction.ID, &auction.SellerID, &auction.Category, &auction.Name, &state,
		&auction.CurrentTopPrice, &auction.BuyNowPrice, &auction.Version, &auction.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed on query auction")
	}
	auction.State = domain.AuctionState(state)

	images, err := r.images(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	auction.ImageURLs = images

	return &auction, nil
}

func (r *MySQLAuctionRepository) images(ctx context.Context, auctionID string) ([]string, error) {
	query := `SELECT url FROM auction_images WHERE auction_id = ? ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed on query auction images")
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, errors.Wrap(err, "failed on scan auction image")
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Save writes the mutable part of the listing. Listing creation happens elsewhere.
func (r *MySQLAuctionRepository) Save(ctx context.Context, auction *domain.Auction) error {
	query := `
        UPDATE auctions SET state = ?, current_top_price = ?, version = ?, updated_at = ?
        WHERE id = ?
    `
	result, err := r.db.ExecContext(ctx, query,
		int(auction.State), auction.CurrentTopPrice, auction.Version, auction.UpdatedAt, auction.ID)
	if err != nil {
		return errors.Wrap(err, "failed on update auction")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed on read affected rows")
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
