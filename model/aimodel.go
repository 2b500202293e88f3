package model

/*

AIModel is a publishable machine-learning model artifact.

Framework: e.g. "pytorch", "tensorflow"
Version: model version string
License: license identifier
ModelType: free-form model category, e.g. "diffusion", "llm"
FileUrl: artifact reference in media storage
SizeMB: artifact size for display

Named AIModel rather than Model to avoid clashing with the package name in
call sites.

*/

type AIModel struct {
	ContentCore `gorm:"embedded"`
	Owner       *User  `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Framework   string `gorm:"not null"`
	Version     string
	License     string
	ModelType   string
	FileUrl     string
	SizeMB      float64
}

func (AIModel) TableName() string {
	return "ai_models"
}
