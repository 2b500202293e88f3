package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

/*

ContentCore is the shared shape of the four catalog item variants (Prompt,
AIModel, Workflow, Pack). Each variant table embeds this struct, so every
variant carries ownership, pricing, tags, lifecycle timestamps and the three
engagement counters with identical column names.

Id: primary key
Slug: unique within the variant's table, immutable once published, used in
	detail URLs
OwnerID: the publishing user, "belongs-to" relation
Tags: set of lowercase tag strings, order-irrelevant
Price / IsPaid: opaque catalog attributes; IsPaid and Price > 0 must agree
IsFeatured: set by admin curation
ViewsCount / DownloadsCount / LikesCount: monotonically increasing counters,
	updated only through atomic increments driven by the engagement ledger

*/

type ContentCore struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt
	Slug           string `gorm:"uniqueIndex;not null"`
	OwnerID        string `gorm:"index;not null"`
	Title          string `gorm:"not null"`
	Description    string
	Tags           pq.StringArray `gorm:"type:text[]"`
	Price          float64        `gorm:"not null;default:0"`
	IsPaid         bool           `gorm:"not null;default:false"`
	IsFeatured     bool           `gorm:"not null;default:false"`
	CoverUrl       string
	ViewsCount     int64 `gorm:"not null;default:0"`
	DownloadsCount int64 `gorm:"not null;default:0"`
	LikesCount     int64 `gorm:"not null;default:0"`
}

type ContentVariant string

const (
	VariantPrompt   ContentVariant = "prompt"
	VariantModel    ContentVariant = "model"
	VariantWorkflow ContentVariant = "workflow"
	VariantPack     ContentVariant = "pack"
)

var AllContentVariants = []ContentVariant{
	VariantPrompt,
	VariantModel,
	VariantWorkflow,
	VariantPack,
}

func (v ContentVariant) IsValid() bool {
	switch v {
	case VariantPrompt, VariantModel, VariantWorkflow, VariantPack:
		return true
	}
	return false
}

func (v ContentVariant) String() string {
	return string(v)
}

// CounterKind names one of the three engagement counters on ContentCore.
type CounterKind string

const (
	CounterViews     CounterKind = "views"
	CounterDownloads CounterKind = "downloads"
	CounterLikes     CounterKind = "likes"
)

func (k CounterKind) IsValid() bool {
	switch k {
	case CounterViews, CounterDownloads, CounterLikes:
		return true
	}
	return false
}

// Column returns the ContentCore column holding the counter.
func (k CounterKind) Column() string {
	switch k {
	case CounterViews:
		return "views_count"
	case CounterDownloads:
		return "downloads_count"
	case CounterLikes:
		return "likes_count"
	}
	return ""
}

/*

ContentItem is the tagged union returned by every surface that lists items
across variants (profile aggregation, library, discovery). Exactly one of the
four pointers is set, matching Variant. Core() exposes the shared record
without the caller having to switch on the variant.

*/

type ContentItem struct {
	Variant  ContentVariant `json:"variant"`
	Prompt   *Prompt        `json:"prompt,omitempty"`
	Model    *AIModel       `json:"model,omitempty"`
	Workflow *Workflow      `json:"workflow,omitempty"`
	Pack     *Pack          `json:"pack,omitempty"`
}

func (i *ContentItem) Core() *ContentCore {
	switch i.Variant {
	case VariantPrompt:
		if i.Prompt != nil {
			return &i.Prompt.ContentCore
		}
	case VariantModel:
		if i.Model != nil {
			return &i.Model.ContentCore
		}
	case VariantWorkflow:
		if i.Workflow != nil {
			return &i.Workflow.ContentCore
		}
	case VariantPack:
		if i.Pack != nil {
			return &i.Pack.ContentCore
		}
	}
	return nil
}

func PromptItem(p *Prompt) ContentItem {
	return ContentItem{Variant: VariantPrompt, Prompt: p}
}

func ModelItem(m *AIModel) ContentItem {
	return ContentItem{Variant: VariantModel, Model: m}
}

func WorkflowItem(w *Workflow) ContentItem {
	return ContentItem{Variant: VariantWorkflow, Workflow: w}
}

func PackItem(p *Pack) ContentItem {
	return ContentItem{Variant: VariantPack, Pack: p}
}

func PromptItems(rows []*Prompt) []ContentItem {
	items := make([]ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, PromptItem(r))
	}
	return items
}

func ModelItems(rows []*AIModel) []ContentItem {
	items := make([]ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, ModelItem(r))
	}
	return items
}

func WorkflowItems(rows []*Workflow) []ContentItem {
	items := make([]ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, WorkflowItem(r))
	}
	return items
}

func PackItems(rows []*Pack) []ContentItem {
	items := make([]ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, PackItem(r))
	}
	return items
}
