package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

func overviewItem(id, name string, status models.StockStatus) models.StockOverviewItem {
	return models.StockOverviewItem{
		Item:   models.StockItem{ID: id, Name: name},
		Status: status,
	}
}

func TestEvaluate_CriticalCountAndSignature(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Day:    "2026-08-20",
		Items: []models.StockOverviewItem{
			overviewItem("feed-2", "Grower feed", models.StockStatusLow),
			overviewItem("feed-1", "Starter feed", models.StockStatusOut),
			overviewItem("feed-3", "Finisher feed", models.StockStatusUnassigned),
			overviewItem("other-1", "Wood shavings", models.StockStatusOK),
		},
	}

	eval := Evaluate(overview, CollaboratorCounts{})

	// Unassigned enters the signature but not the critical count.
	assert.Equal(t, 2, eval.CriticalCount)
	assert.Equal(t, "feed-1=out;feed-2=low;feed-3=unassigned", eval.Signature)
	assert.Len(t, eval.Items, 4)
}

func TestEvaluate_SignatureOrderIndependent(t *testing.T) {
	items := []models.StockOverviewItem{
		overviewItem("feed-1", "Starter feed", models.StockStatusOut),
		overviewItem("feed-2", "Grower feed", models.StockStatusLow),
	}
	forward := Evaluate(&models.StockOverview{FarmID: "f", Items: items}, CollaboratorCounts{})
	reversed := Evaluate(&models.StockOverview{FarmID: "f", Items: []models.StockOverviewItem{items[1], items[0]}}, CollaboratorCounts{})

	assert.Equal(t, forward.Signature, reversed.Signature)
}

func TestEvaluate_CollaboratorCountsAggregate(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			overviewItem("feed-1", "Starter feed", models.StockStatusLow),
		},
	}

	eval := Evaluate(overview, CollaboratorCounts{
		UnreadCriticalNotifications: 2,
		OverdueTreatments:           1,
	})
	assert.Equal(t, 4, eval.CriticalCount)
}

func TestEvaluate_HealthyFarmIsQuiet(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			overviewItem("feed-1", "Starter feed", models.StockStatusOK),
		},
	}

	eval := Evaluate(overview, CollaboratorCounts{})
	assert.Zero(t, eval.CriticalCount)
	assert.Empty(t, eval.Signature)
}

type fakeCountsStore struct {
	unread     int
	unreadErr  error
	overdue    int
	overdueErr error
}

func (s *fakeCountsStore) CountUnreadCriticalNotifications(context.Context, string) (int, error) {
	return s.unread, s.unreadErr
}

func (s *fakeCountsStore) CountOverdueTreatments(context.Context, string, string) (int, error) {
	return s.overdue, s.overdueErr
}

func TestEvaluator_CountFailuresDegradeToZero(t *testing.T) {
	store := &fakeCountsStore{
		unreadErr: errors.New("notifications unavailable"),
		overdue:   3,
	}
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Day:    "2026-08-20",
		Items: []models.StockOverviewItem{
			overviewItem("feed-1", "Starter feed", models.StockStatusOut),
		},
	}

	eval := NewEvaluator(store, nil).Evaluate(context.Background(), overview)
	require.Equal(t, "feed-1=out", eval.Signature)
	assert.Equal(t, 4, eval.CriticalCount)
}
