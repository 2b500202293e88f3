package model

/*

Workflow is a publishable multi-step workflow item.

Category: primary category slug, also always present in Tags for category
	page filtering
Difficulty: free-form difficulty label, e.g. "beginner", "advanced"

*/

type Workflow struct {
	ContentCore `gorm:"embedded"`
	Owner       *User  `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Category    string `gorm:"not null"`
	Difficulty  string
}
