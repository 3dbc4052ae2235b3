package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/pkg/db/models"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

// Quote is the priced breakdown for a prospective stay.
type Quote struct {
	RoomTypeID uuid.UUID       `json:"room_type_id"`
	CheckIn    time.Time       `json:"check_in"`
	CheckOut   time.Time       `json:"check_out"`
	Rooms      int             `json:"rooms"`
	Nightly    []NightlyRate   `json:"nightly"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Fees       decimal.Decimal `json:"fees"`
	Total      decimal.Decimal `json:"total"`
}

// NightlyRate is the effective rate charged for one night of the stay.
type NightlyRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// QuoteProvider prices a stay against the ledger.
type QuoteProvider interface {
	Quote(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, rooms int) (*Quote, error)
}

// RateProvider exposes the per-night rate schedule, one entry per night in
// [from, to). Channel pushes consume this so rate resolution stays in one
// place.
type RateProvider interface {
	NightlyRates(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]NightlyRate, error)
}

// LedgerReader is the slice of the inventory surface pricing needs.
type LedgerReader interface {
	GetForRange(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryDay, error)
}

// RoomTypeReader resolves the base rate for a room type.
type RoomTypeReader interface {
	GetRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
}

// LedgerQuoteProvider prices stays from the per-day ledger: a night with a
// price override charges the override, any other night charges the room
// type's base rate. It backs both QuoteProvider and RateProvider.
type LedgerQuoteProvider struct {
	ledger    LedgerReader
	roomTypes RoomTypeReader
	taxRate   decimal.Decimal
	feeRate   decimal.Decimal
}

// NewLedgerQuoteProvider wires a ledger-backed provider. Tax and fee
// percentages apply to the quote subtotal.
func NewLedgerQuoteProvider(ledger LedgerReader, roomTypes RoomTypeReader, taxRatePercent, feeRatePercent float64) (*LedgerQuoteProvider, error) {
	if ledger == nil || roomTypes == nil {
		return nil, fmt.Errorf("pricing readers required")
	}
	if taxRatePercent < 0 || feeRatePercent < 0 {
		return nil, fmt.Errorf("tax and fee rates cannot be negative")
	}
	return &LedgerQuoteProvider{
		ledger:    ledger,
		roomTypes: roomTypes,
		taxRate:   decimal.NewFromFloat(taxRatePercent).Div(decimal.NewFromInt(100)),
		feeRate:   decimal.NewFromFloat(feeRatePercent).Div(decimal.NewFromInt(100)),
	}, nil
}

// NightlyRates resolves the effective rate for every night in [from, to).
func (p *LedgerQuoteProvider) NightlyRates(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]NightlyRate, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must be after range start")
	}
	return p.nightlyRates(ctx, roomTypeID, from, to)
}

func (p *LedgerQuoteProvider) nightlyRates(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]NightlyRate, error) {
	roomType, err := p.roomTypes.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	days, err := p.ledger.GetForRange(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]decimal.Decimal, len(days))
	for _, day := range days {
		if day.PriceOverride != nil {
			overrides[day.Date.UTC().Format("2006-01-02")] = *day.PriceOverride
		}
	}

	var nightly []NightlyRate
	for night := from.UTC().Truncate(24 * time.Hour); night.Before(to.UTC().Truncate(24 * time.Hour)); night = night.AddDate(0, 0, 1) {
		rate := roomType.BaseRate
		if override, ok := overrides[night.Format("2006-01-02")]; ok {
			rate = override
		}
		nightly = append(nightly, NightlyRate{Date: night, Rate: rate})
	}
	return nightly, nil
}

func (p *LedgerQuoteProvider) Quote(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, rooms int) (*Quote, error) {
	if rooms <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room quantity must be positive")
	}
	if !checkOut.After(checkIn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in")
	}

	nightly, err := p.nightlyRates(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Rooms:      rooms,
		Nightly:    nightly,
		Subtotal:   decimal.Zero,
	}
	roomCount := decimal.NewFromInt(int64(rooms))
	for _, night := range nightly {
		quote.Subtotal = quote.Subtotal.Add(night.Rate.Mul(roomCount))
	}

	quote.Tax = quote.Subtotal.Mul(p.taxRate).Round(2)
	quote.Fees = quote.Subtotal.Mul(p.feeRate).Round(2)
	quote.Total = quote.Subtotal.Add(quote.Tax).Add(quote.Fees).Round(2)
	return quote, nil
}
