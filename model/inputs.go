package model

/*

Input and patch structs for the mutation surface. Patches use pointer fields
so that "not provided" and "set to zero value" stay distinguishable; the
store applies non-nil fields only.

*/

type CreatePromptInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PromptText  string     `json:"promptText"`
	PromptType  PromptType `json:"promptType"`
	ArtistID    *string    `json:"artistId"`
	Tags        []string   `json:"tags"`
	Price       float64    `json:"price"`
	IsPaid      bool       `json:"isPaid"`
	CoverUrl    string     `json:"coverUrl"`
	PreviewUrl  string     `json:"previewUrl"`
}

type CreateModelInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Framework   string   `json:"framework"`
	Version     string   `json:"version"`
	License     string   `json:"license"`
	ModelType   string   `json:"modelType"`
	FileUrl     string   `json:"fileUrl"`
	SizeMB      float64  `json:"sizeMb"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	IsPaid      bool     `json:"isPaid"`
	CoverUrl    string   `json:"coverUrl"`
}

type CreateWorkflowInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	IsPaid      bool     `json:"isPaid"`
	CoverUrl    string   `json:"coverUrl"`
}

type CreatePackInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PackType    PackType `json:"packType"`
	ItemIds     []string `json:"itemIds"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	IsPaid      bool     `json:"isPaid"`
	CoverUrl    string   `json:"coverUrl"`
}

// ContentPatch is the partial update accepted by Catalog.Update. Slug and
// counters are deliberately absent: the slug is immutable after publish and
// counters only move through the engagement ledger. Price and IsPaid must be
// patched together so the pair stays consistent.
type ContentPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Price       *float64  `json:"price"`
	IsPaid      *bool     `json:"isPaid"`
	CoverUrl    *string   `json:"coverUrl"`

	// Variant-specific fields; ignored when patching other variants.
	PromptText *string     `json:"promptText"`
	PromptType *PromptType `json:"promptType"`
	ArtistID   *string     `json:"artistId"`
	PreviewUrl *string     `json:"previewUrl"`
	Framework  *string     `json:"framework"`
	Version    *string     `json:"version"`
	License    *string     `json:"license"`
	ModelType  *string     `json:"modelType"`
	FileUrl    *string     `json:"fileUrl"`
	SizeMB     *float64    `json:"sizeMb"`
	Category   *string     `json:"category"`
	Difficulty *string     `json:"difficulty"`
	PackType   *PackType   `json:"packType"`
	ItemIds    *[]string   `json:"itemIds"`
}

// ProfilePatch is the partial update accepted by IdentityBridge.UpdateProfile.
// Handle changes are allowed but remain subject to the unique index.
type ProfilePatch struct {
	Handle    *string `json:"handle"`
	Bio       *string `json:"bio"`
	AvatarUrl *string `json:"avatarUrl"`
}

// UpsertArtistInput is the admin surface for creating/editing artists.
type UpsertArtistInput struct {
	Id               *string           `json:"id"`
	Name             string            `json:"name"`
	Genres           []string          `json:"genres"`
	Bio              string            `json:"bio"`
	CoverUrl         string            `json:"coverUrl"`
	Verified         bool              `json:"verified"`
	SocialLinks      map[string]string `json:"socialLinks"`
	MonthlyListeners int64             `json:"monthlyListeners"`
}
