package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

// SignatureStore persists the last dispatched signature per farm. Shared
// across devices like the job marker, so two hosts evaluating the same
// farm do not both fire.
type SignatureStore interface {
	LastDispatch(ctx context.Context, farmID string) (signature string, at time.Time, err error)
	RecordDispatch(ctx context.Context, farmID, signature string, at time.Time) error
}

// Notifier is the notification collaborator: it accepts the alert and owns
// delivery (push, webhook, whatever the deployment wired).
type Notifier interface {
	DispatchAlert(ctx context.Context, farmID, signature, message string) error
}

// Dispatcher decides whether an evaluation warrants a notification. The
// evaluator stays pure; this is the stateful side: last-signature
// comparison plus a cooldown window.
type Dispatcher struct {
	signatures SignatureStore
	notifier   Notifier
	cooldown   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDispatcher wires an alert dispatcher.
func NewDispatcher(signatures SignatureStore, notifier Notifier, cooldown time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		signatures: signatures,
		notifier:   notifier,
		cooldown:   cooldown,
		logger:     logger,
		now:        time.Now,
	}
}

// MaybeDispatch sends a notification for the evaluation unless the same
// condition set was already sent, or any dispatch happened within the
// cooldown window. Returns whether a notification went out.
func (d *Dispatcher) MaybeDispatch(ctx context.Context, eval Evaluation) (bool, error) {
	if eval.CriticalCount == 0 || eval.Signature == "" {
		return false, nil
	}

	lastSig, lastAt, err := d.signatures.LastDispatch(ctx, eval.FarmID)
	if err != nil {
		return false, fmt.Errorf("read last dispatch: %w", err)
	}

	now := d.now()
	if lastSig == eval.Signature {
		d.logger.Debug("alert signature unchanged, suppressing",
			zap.String("farm_id", eval.FarmID), zap.String("signature", eval.Signature))
		return false, nil
	}
	if !lastAt.IsZero() && now.Sub(lastAt) < d.cooldown {
		d.logger.Debug("alert cooldown active, suppressing",
			zap.String("farm_id", eval.FarmID), zap.Duration("remaining", d.cooldown-now.Sub(lastAt)))
		return false, nil
	}

	message := BuildMessage(eval)
	if err := d.notifier.DispatchAlert(ctx, eval.FarmID, eval.Signature, message); err != nil {
		return false, fmt.Errorf("dispatch alert: %w", err)
	}

	if err := d.signatures.RecordDispatch(ctx, eval.FarmID, eval.Signature, now); err != nil {
		// The alert went out; a failed record only risks one duplicate later.
		d.logger.Warn("failed recording dispatched signature",
			zap.String("farm_id", eval.FarmID), zap.Error(err))
	}

	d.logger.Info("alert dispatched",
		zap.String("farm_id", eval.FarmID),
		zap.Int("critical_count", eval.CriticalCount),
		zap.String("signature", eval.Signature))

	return true, nil
}

// BuildMessage renders a human-readable alert summary for the evaluation.
func BuildMessage(eval Evaluation) string {
	var lines []string
	for _, item := range eval.Items {
		switch item.Status {
		case models.StockStatusOut:
			lines = append(lines, fmt.Sprintf("%s is out of stock", item.Name))
		case models.StockStatusLow:
			if item.DaysRemaining != nil {
				lines = append(lines, fmt.Sprintf("%s is low (%d days left)", item.Name, *item.DaysRemaining))
			} else {
				lines = append(lines, fmt.Sprintf("%s is low", item.Name))
			}
		case models.StockStatusUnassigned:
			lines = append(lines, fmt.Sprintf("%s has no lot assigned", item.Name))
		}
	}

	header := fmt.Sprintf("%d issue(s) need attention on your farm.", eval.CriticalCount)
	if len(lines) == 0 {
		return header
	}
	return header + "\n" + strings.Join(lines, "\n")
}
