package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/lumehq/lume-backend/internal/clients/redis"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// DefaultDedupWindow is the trailing window the policy layer consults
// before firing an action on a target.
const DefaultDedupWindow = 120 * time.Minute

// LedgerService is the shared "who already acted today" record. Every
// agent writes through it before touching the user and reads it to
// avoid piling onto a target another agent just handled. Entries are
// advisory; a lost append under concurrent writers is an accepted race.
type LedgerService interface {
	LogAction(ctx context.Context, userID uuid.UUID, agent, actionType string, payload map[string]string) error
	RecentActions(ctx context.Context, userID uuid.UUID, window time.Duration) ([]types.LedgerEntry, error)
}

type ledgerService struct {
	log   *logger.Logger
	store redisclient.LedgerStore
	now   func() time.Time
}

func NewLedgerService(log *logger.Logger, store redisclient.LedgerStore) LedgerService {
	return &ledgerService{
		log:   log.With("service", "LedgerService"),
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Keys roll over on the UTC day. Dedup only looks minutes back, so the
// boundary slice is harmless; the 48h store TTL reaps old keys.
func ledgerKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("ledger:%s:%s", userID, day.UTC().Format("2006-01-02"))
}

func (s *ledgerService) LogAction(ctx context.Context, userID uuid.UUID, agent, actionType string, payload map[string]string) error {
	if userID == uuid.Nil || actionType == "" {
		return nil
	}
	if s.store == nil {
		return nil
	}
	now := s.now()
	entry := types.LedgerEntry{
		Agent:      agent,
		ActionType: actionType,
		Payload:    payload,
		Timestamp:  now,
	}
	if err := s.store.Append(ctx, ledgerKey(userID, now), entry, types.MaxLedgerEntriesPerDay); err != nil {
		// A missed append means a possible duplicate later, not a
		// broken request.
		s.log.Warn("ledger append failed", "user_id", userID, "action_type", actionType, "error", err)
	}
	return nil
}

func (s *ledgerService) RecentActions(ctx context.Context, userID uuid.UUID, window time.Duration) ([]types.LedgerEntry, error) {
	if userID == uuid.Nil || s.store == nil {
		return nil, nil
	}
	if window <= 0 {
		window = DefaultDedupWindow
	}
	now := s.now()
	entries, err := s.store.Entries(ctx, ledgerKey(userID, now))
	if err != nil {
		// No dedup info beats a failed evaluation.
		s.log.Warn("ledger read failed", "user_id", userID, "error", err)
		return nil, nil
	}

	cutoff := now.Add(-window)
	out := make([]types.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

// HasRecentAction reports whether any entry in the given action-type
// set targets targetText through one of the known payload fields.
func HasRecentAction(entries []types.LedgerEntry, targetText string, actionTypes []string) bool {
	if targetText == "" || len(entries) == 0 {
		return false
	}
	typeSet := make(map[string]bool, len(actionTypes))
	for _, t := range actionTypes {
		typeSet[t] = true
	}
	for _, e := range entries {
		if len(typeSet) > 0 && !typeSet[e.ActionType] {
			continue
		}
		if e.Payload[types.LedgerFieldTargetText] == targetText ||
			e.Payload[types.LedgerFieldScheduleTitle] == targetText {
			return true
		}
	}
	return false
}
