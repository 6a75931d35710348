package models

import "time"

// DefaultMonthlyGoalQty seeds a product goal the first time it is touched in
// a month.
const DefaultMonthlyGoalQty = 500

// MonthlyGoal tracks one distributor's quota for one product in one month
// (Month is YYYY-MM). Orders deduct from RemainingQty and add back on
// cancellation.
type MonthlyGoal struct {
	DistributorCode string    `bson:"distributorCode" json:"distributorCode"`
	Month           string    `bson:"month" json:"month"`
	ProductCode     string    `bson:"productCode" json:"productCode"`
	GoalQty         int       `bson:"goalQty" json:"goalQty"`
	UsedQty         int       `bson:"usedQty" json:"usedQty"`
	RemainingQty    int       `bson:"remainingQty" json:"remainingQty"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
