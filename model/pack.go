package model

import "github.com/lib/pq"

/*

Pack bundles existing catalog items into a single purchasable unit.

PackType: workflow | model | bundle | music_pack
ItemIds: ids of the bundled member items. Stored as a plain id set; members
	may live in different variant tables so this is not a foreign key.

*/

type PackType string

const (
	PackTypeWorkflow  PackType = "workflow"
	PackTypeModel     PackType = "model"
	PackTypeBundle    PackType = "bundle"
	PackTypeMusicPack PackType = "music_pack"
)

var AllPackTypes = []PackType{
	PackTypeWorkflow,
	PackTypeModel,
	PackTypeBundle,
	PackTypeMusicPack,
}

func (t PackType) IsValid() bool {
	switch t {
	case PackTypeWorkflow, PackTypeModel, PackTypeBundle, PackTypeMusicPack:
		return true
	}
	return false
}

type Pack struct {
	ContentCore `gorm:"embedded"`
	Owner       *User          `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	PackType    PackType       `gorm:"not null"`
	ItemIds     pq.StringArray `gorm:"type:text[]"`
}
