package models

// User - участник платформы: плательщик или организатор
type User struct {
	BaseModel
	Name        string `gorm:"not null"`
	Email       string `gorm:"uniqueIndex"`
	Phone       string
	IsOrganizer bool `gorm:"default:false"`
	IsVerified  bool `gorm:"default:false"`
}
