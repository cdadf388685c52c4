package audit

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"storeops-system/internal/database/models"
)

// UnassignedZone groups items whose location chain is incomplete.
const UnassignedZone = "Unassigned"

// Summary is derived from the item set on every read and never stored,
// so it cannot drift from the underlying item states.
type Summary struct {
	TotalItems            int             `json:"total_items"`
	CountedItems          int             `json:"counted_items"`
	PerfectlyCountedItems int             `json:"perfectly_counted_items"`
	ProgressPercent       int             `json:"progress_percent"`
	DiscrepancyItems      int             `json:"discrepancy_items"`
	AccuracyRate          *float64        `json:"accuracy_rate"`
	ShrinkageValue        decimal.Decimal `json:"shrinkage_value"`
}

type ZoneGroup struct {
	Zone    string  `json:"zone"`
	Summary Summary `json:"summary"`
}

// Summarize folds the item set into audit-level progress figures.
//
// Counted covers every line touched by a counter, open discrepancies
// included. Progress only credits lines that are fully settled, so it
// never decreases from a pure counting action. Discrepancy lines are an
// intentional superset: a RECONCILED line whose variance was accepted
// but never zeroed still counts against accuracy.
func Summarize(items []models.AuditItem) Summary {
	s := Summary{
		TotalItems:     len(items),
		ShrinkageValue: decimal.Zero,
	}

	for i := range items {
		item := &items[i]
		switch item.Status {
		case models.AuditItemStatusCounted, models.AuditItemStatusReconciled:
			s.CountedItems++
			s.PerfectlyCountedItems++
		case models.AuditItemStatusDiscrepancy:
			s.CountedItems++
		}

		if hasOpenVariance(item) {
			s.DiscrepancyItems++
			s.ShrinkageValue = s.ShrinkageValue.Add(varianceValue(item))
		}
	}

	if s.TotalItems > 0 {
		s.ProgressPercent = int(math.Round(100 * float64(s.PerfectlyCountedItems) / float64(s.TotalItems)))
	}
	if s.CountedItems > 0 {
		rate := 100 * float64(s.CountedItems-s.DiscrepancyItems) / float64(s.CountedItems)
		s.AccuracyRate = &rate
	}

	return s
}

// GroupByZone buckets items by the zone of their inventory location and
// summarizes each bucket. Items require the InventoryItem chain
// (bin > shelf > aisle > zone) to be preloaded; a broken chain lands
// in the Unassigned bucket.
func GroupByZone(items []models.AuditItem) []ZoneGroup {
	buckets := make(map[string][]models.AuditItem)
	for _, item := range items {
		zone := ZoneOf(&item)
		buckets[zone] = append(buckets[zone], item)
	}

	groups := make([]ZoneGroup, 0, len(buckets))
	for zone, zoneItems := range buckets {
		groups = append(groups, ZoneGroup{Zone: zone, Summary: Summarize(zoneItems)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Zone < groups[j].Zone })
	return groups
}

// ZoneOf walks the location chain of the item's stock record.
func ZoneOf(item *models.AuditItem) string {
	inv := item.InventoryItem
	if inv == nil || inv.Bin == nil || inv.Bin.Shelf == nil ||
		inv.Bin.Shelf.Aisle == nil || inv.Bin.Shelf.Aisle.Zone == nil {
		return UnassignedZone
	}
	return inv.Bin.Shelf.Aisle.Zone.ZoneName
}

func hasOpenVariance(item *models.AuditItem) bool {
	if item.Status == models.AuditItemStatusDiscrepancy {
		return true
	}
	return item.Discrepancy != nil && *item.Discrepancy != 0
}

// varianceValue prices the variance at the stock record's unit cost.
// Lines without a priced stock record contribute zero.
func varianceValue(item *models.AuditItem) decimal.Decimal {
	if item.Discrepancy == nil || item.InventoryItem == nil {
		return decimal.Zero
	}
	cost, err := decimal.NewFromString(item.InventoryItem.UnitCost)
	if err != nil {
		return decimal.Zero
	}
	return cost.Mul(decimal.NewFromInt32(*item.Discrepancy))
}
