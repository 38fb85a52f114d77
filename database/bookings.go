package database

import (
	"context"
	"fmt"
	"time"

	appErrors "concierge/errors"
	"concierge/web/types"

	"github.com/google/uuid"
)

// PersistBooking writes a validated booking. The caller guarantees the slot
// values already passed the unambiguity checks (strict ISO date, 24h time).
func (s *PostgresStore) PersistBooking(ctx context.Context, slots types.BookingSlots) (types.Booking, error) {
	booking := types.Booking{
		ID:        uuid.New(),
		Name:      slots.Name,
		Email:     slots.Email,
		Date:      slots.Date,
		Time:      slots.Time,
		CreatedAt: time.Now(),
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO bookings (id, name, email, date, time, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		booking.ID, booking.Name, booking.Email, booking.Date, booking.Time, booking.CreatedAt)
	if err != nil {
		return types.Booking{}, fmt.Errorf("%w: insert booking: %v", appErrors.ErrPersistenceFailure, err)
	}
	return booking, nil
}
