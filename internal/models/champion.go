package models

// Champion is a user-authored persona used to seed a chat session.
// Champion ids are only unique within the owning user.
type Champion struct {
	ID           int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID       int    `json:"-" gorm:"primaryKey;autoIncrement:false;index"`
	Position     int    `json:"-"` // insertion order within the owner
	Name         string `json:"name" form:"name" validate:"required"`
	Description  string `json:"description" form:"description" validate:"required,max=500"`
	Instructions string `json:"instructions" form:"instructions" validate:"required,max=6000"`
	Greeting     string `json:"greeting" form:"greeting" validate:"required,max=500"`
}
