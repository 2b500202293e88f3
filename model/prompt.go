package model

/*

Prompt is a publishable prompt item.

PromptText: the prompt body handed to the buyer
PromptType: what the prompt generates, one of text|image|music|code|video
ArtistID: optional id of the musical identity the prompt is attributed to
Artist: the attributed artist, "belongs-to" relation. Only Prompt carries an
	artist attribution.
PreviewUrl: optional audio/image preview reference

*/

type PromptType string

const (
	PromptTypeText  PromptType = "text"
	PromptTypeImage PromptType = "image"
	PromptTypeMusic PromptType = "music"
	PromptTypeCode  PromptType = "code"
	PromptTypeVideo PromptType = "video"
)

var AllPromptTypes = []PromptType{
	PromptTypeText,
	PromptTypeImage,
	PromptTypeMusic,
	PromptTypeCode,
	PromptTypeVideo,
}

func (t PromptType) IsValid() bool {
	switch t {
	case PromptTypeText, PromptTypeImage, PromptTypeMusic, PromptTypeCode, PromptTypeVideo:
		return true
	}
	return false
}

type Prompt struct {
	ContentCore `gorm:"embedded"`
	Owner       *User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	PromptText  string     `gorm:"not null"`
	PromptType  PromptType `gorm:"not null"`
	ArtistID    *string
	Artist      *Artist `gorm:"foreignKey:ArtistID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	PreviewUrl  string
}
