package models

type ReviewStats struct {
	TotalCards        int     `db:"total_cards" json:"total_cards"`
	CardsSeen         int     `db:"cards_seen" json:"cards_seen"`
	CardsMastered     int     `db:"cards_mastered" json:"cards_mastered"`
	CardsStruggling   int     `db:"cards_struggling" json:"cards_struggling"`
	CardsDue          int     `db:"cards_due" json:"cards_due"`
	CardsDueSoon      int     `db:"cards_due_soon" json:"cards_due_soon"`
	AvgEasinessFactor float64 `db:"avg_easiness_factor" json:"avg_easiness_factor"`
	AvgIntervalDays   float64 `db:"avg_interval_days" json:"avg_interval_days"`
	TotalReviews      int     `db:"total_reviews" json:"total_reviews"`
	Accuracy          float64 `db:"accuracy" json:"accuracy"`
	AvgTimeSeconds    float64 `db:"avg_time_seconds" json:"avg_time_seconds"`
}
