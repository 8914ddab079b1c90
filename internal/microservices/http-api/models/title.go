package models

type Title struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"size:256;not null;index"`
	Year        int    `json:"year" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	CategoryID  *int64 `json:"-" gorm:"index"`

	// association
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre,omitempty" gorm:"many2many:genre_title;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}
