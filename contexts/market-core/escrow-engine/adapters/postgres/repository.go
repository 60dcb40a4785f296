package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	counterItemSeq   = "item_seq"
	counterSoldCount = "sold_count"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the registry, counter, and outbox tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&marketItemModel{},
		&counterModel{},
		&outboxModel{},
	)
}

// NextItemID bumps the item counter under a row lock. The counter only ever
// increases; ids consumed by failed or cancelled listings stay consumed.
func (r *Repository) NextItemID(ctx context.Context) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		value, err := bumpCounter(tx, counterItemSeq, 1)
		if err != nil {
			return err
		}
		next = uint64(value)
		return nil
	})
	return next, err
}

func (r *Repository) GetItem(ctx context.Context, itemID uint64) (entities.MarketItem, error) {
	var row marketItemModel
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MarketItem{}, domainerrors.ErrItemNotFound
		}
		return entities.MarketItem{}, err
	}
	return row.toEntity(), nil
}

// CreateItemWithOutbox commits the item row and its emitted records together.
func (r *Repository) CreateItemWithOutbox(ctx context.Context, item entities.MarketItem, events []ports.MarketEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := marketItemModelFromEntity(item)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		for _, event := range events {
			if err := insertOutbox(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) UpdateItemPriceWithOutbox(
	ctx context.Context,
	itemID uint64,
	newPrice int64,
	updatedAt time.Time,
	event ports.MarketEvent,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&marketItemModel{}).
			Where("item_id = ? AND sold = ?", itemID, false).
			Updates(map[string]any{
				"price":      newPrice,
				"updated_at": updatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrItemNotFound
		}
		return insertOutbox(tx, event)
	})
}

func (r *Repository) RemoveItemWithOutbox(ctx context.Context, itemID uint64, event ports.MarketEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("item_id = ?", itemID).Delete(&marketItemModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrItemNotFound
		}
		return insertOutbox(tx, event)
	})
}

func (r *Repository) RemoveItem(ctx context.Context, itemID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("item_id = ?", itemID).Delete(&marketItemModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrItemNotFound
		}
		return tx.Where("partition_key = ? AND status = ?", strconv.FormatUint(itemID, 10), outboxStatusPending).
			Delete(&outboxModel{}).
			Error
	})
}

func (r *Repository) MarkItemSoldWithOutbox(
	ctx context.Context,
	itemID uint64,
	owner string,
	soldAt time.Time,
	event ports.MarketEvent,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&marketItemModel{}).
			Where("item_id = ? AND sold = ?", itemID, false).
			Updates(map[string]any{
				"owner":      owner,
				"sold":       true,
				"updated_at": soldAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&marketItemModel{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrItemNotFound
			}
			return domainerrors.ErrAlreadySold
		}
		if _, err := bumpCounter(tx, counterSoldCount, 1); err != nil {
			return err
		}
		return insertOutbox(tx, event)
	})
}

func (r *Repository) UnmarkItemSold(ctx context.Context, itemID uint64, soldEventID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&marketItemModel{}).
			Where("item_id = ? AND sold = ?", itemID, true).
			Updates(map[string]any{
				"owner": "",
				"sold":  false,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		if _, err := bumpCounter(tx, counterSoldCount, -1); err != nil {
			return err
		}
		// The listing's creation/royalty records stay pending because the
		// listing stays live; only the sold record is withdrawn.
		return tx.Where("outbox_id = ? AND status = ?", "outbox-"+soldEventID, outboxStatusPending).
			Delete(&outboxModel{}).
			Error
	})
}

func (r *Repository) ListUnsoldItems(ctx context.Context, filter ports.ItemListFilter) ([]entities.MarketItem, error) {
	tx := r.db.WithContext(ctx).Model(&marketItemModel{}).Where("sold = ?", false)

	switch filter.Price {
	case ports.PriceFilterFixedPrice:
		tx = tx.Where("price > ?", 0)
	case ports.PriceFilterNoPrice:
		tx = tx.Where("price <= ?", 0)
	}

	switch filter.Sort {
	case ports.SortPriceAsc:
		tx = tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "price"}, Desc: false}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}, Desc: false})
	case ports.SortPriceDesc:
		tx = tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "price"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}, Desc: false})
	case ports.SortRarity:
		// Rarity scores live with an external collaborator; the query layer
		// re-sorts, so hand rows back in stable id order.
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}, Desc: false})
	default:
		tx = tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "listed_at"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}, Desc: false})
	}

	var rows []marketItemModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListItemsByOwner(ctx context.Context, owner string) ([]entities.MarketItem, error) {
	var rows []marketItemModel
	if err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("item_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListItemsBySeller(ctx context.Context, seller string) ([]entities.MarketItem, error) {
	var rows []marketItemModel
	if err := r.db.WithContext(ctx).
		Where("seller = ?", seller).
		Order("item_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// CountUnsoldItems counts rows actually present. Counter arithmetic would
// drift because cancellations delete rows without touching either counter.
func (r *Repository) CountUnsoldItems(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&marketItemModel{}).
		Where("sold = ?", false).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) TotalItemCount(ctx context.Context) (uint64, error) {
	return r.readCounter(ctx, counterItemSeq)
}

func (r *Repository) SoldItemCount(ctx context.Context) (uint64, error) {
	return r.readCounter(ctx, counterSoldCount)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) readCounter(ctx context.Context, name string) (uint64, error) {
	var row counterModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(row.Value), nil
}

func bumpCounter(tx *gorm.DB, name string, delta int64) (int64, error) {
	var row counterModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		row = counterModel{Name: name}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err
		}
	}
	row.Value += delta
	if row.Value < 0 {
		return 0, domainerrors.ErrRepositoryInvariantBroke
	}
	if err := tx.Save(&row).Error; err != nil {
		return 0, err
	}
	return row.Value, nil
}

func insertOutbox(tx *gorm.DB, event ports.MarketEvent) error {
	envelope, err := buildMarketEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     "outbox-" + event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

type marketItemModel struct {
	ItemID        uint64    `gorm:"column:item_id;primaryKey"`
	AssetContract string    `gorm:"column:asset_contract"`
	TokenID       string    `gorm:"column:token_id"`
	Seller        string    `gorm:"column:seller"`
	Owner         string    `gorm:"column:owner"`
	Price         int64     `gorm:"column:price"`
	Sold          bool      `gorm:"column:sold"`
	ListedAt      time.Time `gorm:"column:listed_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (marketItemModel) TableName() string {
	return "market_items"
}

func marketItemModelFromEntity(item entities.MarketItem) marketItemModel {
	return marketItemModel{
		ItemID:        item.ItemID,
		AssetContract: item.AssetContract,
		TokenID:       item.TokenID,
		Seller:        item.Seller,
		Owner:         item.Owner,
		Price:         item.Price,
		Sold:          item.Sold,
		ListedAt:      item.ListedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m marketItemModel) toEntity() entities.MarketItem {
	return entities.MarketItem{
		ItemID:        m.ItemID,
		AssetContract: m.AssetContract,
		TokenID:       m.TokenID,
		Seller:        m.Seller,
		Owner:         m.Owner,
		Price:         m.Price,
		Sold:          m.Sold,
		ListedAt:      m.ListedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toEntities(rows []marketItemModel) []entities.MarketItem {
	items := make([]entities.MarketItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type counterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value"`
}

func (counterModel) TableName() string {
	return "market_counters"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "market_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func buildMarketEnvelope(event ports.MarketEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"item_id":        event.ItemID,
		"asset_contract": event.AssetContract,
		"token_id":       event.TokenID,
		"seller":         event.Seller,
		"owner":          event.Owner,
		"price":          event.Price,
		"creator":        event.Creator,
		"royalty_bps":    event.RoyaltyBps,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "market-escrow-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "item_id",
		PartitionKey:     event.PartitionKey,
		Data:             data,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock satisfies ports.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies ports.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
