package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
)

// appendEvent records b's transition from `from` to its current status on
// tx, so the audit row commits or rolls back with the change itself.
func appendEvent(
	ctx context.Context,
	tx *gorm.DB,
	typ model.EventType,
	b *model.Booking,
	from model.BookingStatus,
	at time.Time,
	details map[string]any,
) error {
	var raw datatypes.JSON
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
		raw = data
	}
	err := repository.NewGormEventRepository(tx).Append(ctx, &model.BookingEvent{
		EventType:  typ,
		BookingID:  b.ID,
		ResourceID: b.ResourceID,
		FromStatus: from,
		ToStatus:   b.Status,
		Details:    raw,
		CreatedAt:  at,
	})
	if err != nil {
		return fmt.Errorf("append %s event: %w", typ, err)
	}
	return nil
}
