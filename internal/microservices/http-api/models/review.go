package models

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID  int64     `json:"title_id" gorm:"not null;uniqueIndex:idx_review_title_author"`
	AuthorID string    `json:"author_id" gorm:"size:36;not null;uniqueIndex:idx_review_title_author"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Score    int       `json:"score" gorm:"not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`

	// Associations
	Title  Title `json:"-" gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE;"`
	Author User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}
