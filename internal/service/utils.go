package service

import (
	"context"
	"errors"
	"strings"

	"defense_service/internal/errdefs"
	"defense_service/internal/model"
	"defense_service/pkg/logging"

	"go.uber.org/zap"
)

func rollback(ctx context.Context, tx RepositoryTx) {
	if err := tx.Rollback(ctx); err != nil {
		logging.FromContext(ctx).Error(ctx, "Failed to Rollback", zap.Error(err))
	}
}

// notify is fire-and-forget: the transition is already committed.
func notify(ctx context.Context, n Notifier, event model.Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		logging.FromContext(ctx).Error(ctx, "failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("defense_id", event.DefenseId.String()),
			zap.Error(err),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, errdefs.ErrNotFound)
}

// normalizeKeywords trims, lower-cases and de-duplicates, keeping first
// occurrence order.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
