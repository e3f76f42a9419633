package dao

import "time"

type Link struct {
	ShortCode   string     `json:"short_code" bson:"short_code"`
	TargetURL   string     `json:"target_url" bson:"target_url"`
	TotalClicks int64      `json:"total_clicks" bson:"total_clicks"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	LastClicked *time.Time `json:"last_clicked" bson:"last_clicked,omitempty"`
}
