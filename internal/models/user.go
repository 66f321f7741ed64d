package models

// User represents an arena account. The JSON shape of this struct is the
// on-disk format of the file store, so the password field is serialized.
type User struct {
	ID          int        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username    string     `json:"username" form:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,max=100"`
	DisplayName string     `json:"display_name" form:"display_name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Password    string     `json:"password" form:"password" gorm:"type:varchar(255)" validate:"required,max=72"`
	Email       string     `json:"email" form:"email" gorm:"type:varchar(255)" validate:"required,max=255"`
	Champions   []Champion `json:"champions" form:"-" gorm:"foreignKey:UserID;references:ID"`
}

// Clone returns a deep copy of the user, champions included.
func (u User) Clone() User {
	c := u
	c.Champions = make([]Champion, len(u.Champions))
	copy(c.Champions, u.Champions)
	return c
}

// HasChampion reports whether the user already owns a champion with the given id.
func (u User) HasChampion(id int) bool {
	for _, ch := range u.Champions {
		if ch.ID == id {
			return true
		}
	}
	return false
}
