package store

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	Logger "github.com/soundforge/soundforge/utils/log"
	"gorm.io/gorm"
)

// CatalogStore owns the four content-item variant tables and their shared
// lifecycle: publish, partial update, slug lookup, per-owner aggregation and
// atomic counter maintenance.
type CatalogStore struct {
	DB *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{DB: db}
}

// WithTx returns a CatalogStore bound to the given transaction handle, so
// callers can compose catalog writes with their own rows atomically.
func (s *CatalogStore) WithTx(tx *gorm.DB) *CatalogStore {
	return &CatalogStore{DB: tx}
}

func tableFor(variant model.ContentVariant) (string, error) {
	switch variant {
	case model.VariantPrompt:
		return "prompts", nil
	case model.VariantModel:
		return "ai_models", nil
	case model.VariantWorkflow:
		return "workflows", nil
	case model.VariantPack:
		return "packs", nil
	}
	return "", errors.Wrapf(ErrInvalidArgument, "unknown content variant %q", variant)
}

// validateCore rejects the field combinations a publish or update must never
// persist. IsPaid and Price have to agree in both directions.
func validateCore(title string, description string, price float64, isPaid bool) error {
	if title == "" {
		return errors.Wrap(ErrInvalidArgument, "title is required")
	}
	if description == "" {
		return errors.Wrap(ErrInvalidArgument, "description is required")
	}
	if price < 0 {
		return errors.Wrap(ErrInvalidArgument, "price cannot be negative")
	}
	if isPaid && price <= 0 {
		return errors.Wrap(ErrInvalidArgument, "a paid item needs a positive price")
	}
	if !isPaid && price != 0 {
		return errors.Wrap(ErrInvalidArgument, "a free item cannot carry a price")
	}
	return nil
}

// requireOwner loads the publishing user and promotes a first-time publisher
// from viewer to creator.
func (s *CatalogStore) requireOwner(tx *gorm.DB, ownerID string) (*model.User, error) {
	var owner model.User
	res := tx.Where("id = ?", ownerID).First(&owner)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "no user with id %s", ownerID)
	}
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if owner.Role == model.RoleViewer {
		if err := tx.Model(&owner).Update("role", model.RoleCreator).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
	}
	return &owner, nil
}

func (s *CatalogStore) newCore(tx *gorm.DB, table string, ownerID string, title string,
	description string, tags []string, price float64, isPaid bool, coverUrl string) (model.ContentCore, error) {
	if err := validateCore(title, description, price, isPaid); err != nil {
		return model.ContentCore{}, err
	}
	slug, err := uniqueSlug(tx, table, title)
	if err != nil {
		return model.ContentCore{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	return model.ContentCore{
		Id:          uuid.New().String(),
		CreatedAt:   time.Now(),
		Slug:        slug,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Tags:        pq.StringArray(NormalizeTags(tags)),
		Price:       price,
		IsPaid:      isPaid,
		CoverUrl:    coverUrl,
	}, nil
}

// publishAttempts bounds the re-runs of a publish transaction when a
// concurrent publish claims the probed slug between the uniqueness check and
// the insert.
const publishAttempts = 5

// runPublish runs a publish transaction, retrying when the insert loses a
// slug race. The rolled-back transaction is re-run whole, so the slug probe
// sees the winner's row and lands on the next free suffix.
func (s *CatalogStore) runPublish(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < publishAttempts; attempt++ {
		err = s.DB.Transaction(fn)
		if !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

// CreatePrompt publishes a prompt. The publish is all-or-nothing: validation
// failures reject the whole input and nothing is written.
func (s *CatalogStore) CreatePrompt(ownerID string, input model.CreatePromptInput) (*model.Prompt, error) {
	if input.PromptText == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "promptText is required")
	}
	if !input.PromptType.IsValid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown prompt type %q", input.PromptType)
	}

	var prompt model.Prompt
	err := s.runPublish(func(tx *gorm.DB) error {
		if _, err := s.requireOwner(tx, ownerID); err != nil {
			return err
		}
		if input.ArtistID != nil {
			var artist model.Artist
			res := tx.Where("id = ?", *input.ArtistID).First(&artist)
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrNotFound, "no artist with id %s", *input.ArtistID)
			}
			if res.Error != nil {
				return errors.Wrap(ErrUnavailable, res.Error.Error())
			}
		}
		core, err := s.newCore(tx, "prompts", ownerID, input.Title, input.Description,
			input.Tags, input.Price, input.IsPaid, input.CoverUrl)
		if err != nil {
			return err
		}
		prompt = model.Prompt{
			ContentCore: core,
			PromptText:  input.PromptText,
			PromptType:  input.PromptType,
			ArtistID:    input.ArtistID,
			PreviewUrl:  input.PreviewUrl,
		}
		if err := tx.Create(&prompt).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// CreateModel publishes an AI model artifact.
func (s *CatalogStore) CreateModel(ownerID string, input model.CreateModelInput) (*model.AIModel, error) {
	if input.Framework == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "framework is required")
	}
	if input.FileUrl == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "fileUrl is required")
	}

	var aiModel model.AIModel
	err := s.runPublish(func(tx *gorm.DB) error {
		if _, err := s.requireOwner(tx, ownerID); err != nil {
			return err
		}
		core, err := s.newCore(tx, "ai_models", ownerID, input.Title, input.Description,
			input.Tags, input.Price, input.IsPaid, input.CoverUrl)
		if err != nil {
			return err
		}
		aiModel = model.AIModel{
			ContentCore: core,
			Framework:   input.Framework,
			Version:     input.Version,
			License:     input.License,
			ModelType:   input.ModelType,
			FileUrl:     input.FileUrl,
			SizeMB:      input.SizeMB,
		}
		if err := tx.Create(&aiModel).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &aiModel, nil
}

// CreateWorkflow publishes a workflow. The category is folded into the tag
// set so category pages need no extra filter path.
func (s *CatalogStore) CreateWorkflow(ownerID string, input model.CreateWorkflowInput) (*model.Workflow, error) {
	if input.Category == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "category is required")
	}

	var workflow model.Workflow
	err := s.runPublish(func(tx *gorm.DB) error {
		if _, err := s.requireOwner(tx, ownerID); err != nil {
			return err
		}
		tags := append([]string{input.Category}, input.Tags...)
		core, err := s.newCore(tx, "workflows", ownerID, input.Title, input.Description,
			tags, input.Price, input.IsPaid, input.CoverUrl)
		if err != nil {
			return err
		}
		workflow = model.Workflow{
			ContentCore: core,
			Category:    strings.ToLower(input.Category),
			Difficulty:  input.Difficulty,
		}
		if err := tx.Create(&workflow).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

// CreatePack publishes a bundle of existing items. Every member id must
// resolve to a live item in some variant table.
func (s *CatalogStore) CreatePack(ownerID string, input model.CreatePackInput) (*model.Pack, error) {
	if !input.PackType.IsValid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown pack type %q", input.PackType)
	}
	if len(input.ItemIds) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "a pack needs at least one member item")
	}

	var pack model.Pack
	err := s.runPublish(func(tx *gorm.DB) error {
		if _, err := s.requireOwner(tx, ownerID); err != nil {
			return err
		}
		for _, itemID := range input.ItemIds {
			found := false
			for _, variant := range model.AllContentVariants {
				if variant == model.VariantPack {
					continue
				}
				table, _ := tableFor(variant)
				var count int64
				if err := tx.Table(table).Where("id = ? AND deleted_at IS NULL", itemID).Count(&count).Error; err != nil {
					return errors.Wrap(ErrUnavailable, err.Error())
				}
				if count > 0 {
					found = true
					break
				}
			}
			if !found {
				return errors.Wrapf(ErrNotFound, "pack member %s does not exist", itemID)
			}
		}
		core, err := s.newCore(tx, "packs", ownerID, input.Title, input.Description,
			input.Tags, input.Price, input.IsPaid, input.CoverUrl)
		if err != nil {
			return err
		}
		pack = model.Pack{
			ContentCore: core,
			PackType:    input.PackType,
			ItemIds:     pq.StringArray(input.ItemIds),
		}
		if err := tx.Create(&pack).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

// GetBySlug fetches one item by its variant and detail-URL slug.
func (s *CatalogStore) GetBySlug(variant model.ContentVariant, slug string) (model.ContentItem, error) {
	return s.findOne(variant, "slug = ?", slug)
}

// GetById fetches one item by its variant and id.
func (s *CatalogStore) GetById(variant model.ContentVariant, id string) (model.ContentItem, error) {
	return s.findOne(variant, "id = ?", id)
}

func (s *CatalogStore) findOne(variant model.ContentVariant, query string, arg string) (model.ContentItem, error) {
	var (
		item model.ContentItem
		res  *gorm.DB
	)
	switch variant {
	case model.VariantPrompt:
		var row model.Prompt
		res = s.DB.Preload("Artist").Where(query, arg).First(&row)
		item = model.PromptItem(&row)
	case model.VariantModel:
		var row model.AIModel
		res = s.DB.Where(query, arg).First(&row)
		item = model.ModelItem(&row)
	case model.VariantWorkflow:
		var row model.Workflow
		res = s.DB.Where(query, arg).First(&row)
		item = model.WorkflowItem(&row)
	case model.VariantPack:
		var row model.Pack
		res = s.DB.Where(query, arg).First(&row)
		item = model.PackItem(&row)
	default:
		return model.ContentItem{}, errors.Wrapf(ErrInvalidArgument, "unknown content variant %q", variant)
	}
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.ContentItem{}, errors.Wrapf(ErrNotFound, "no %s matching %s", variant, arg)
	}
	if res.Error != nil {
		return model.ContentItem{}, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return item, nil
}

// ListByOwner returns every item the user owns across all four variants,
// newest first. If one variant table fails the others are still returned,
// with partial=true so the profile page can say so instead of failing whole.
func (s *CatalogStore) ListByOwner(ownerID string) (items []model.ContentItem, partial bool, err error) {
	collect := func(variant model.ContentVariant) ([]model.ContentItem, error) {
		switch variant {
		case model.VariantPrompt:
			var rows []*model.Prompt
			if err := s.DB.Where("owner_id = ?", ownerID).Find(&rows).Error; err != nil {
				return nil, err
			}
			return model.PromptItems(rows), nil
		case model.VariantModel:
			var rows []*model.AIModel
			if err := s.DB.Where("owner_id = ?", ownerID).Find(&rows).Error; err != nil {
				return nil, err
			}
			return model.ModelItems(rows), nil
		case model.VariantWorkflow:
			var rows []*model.Workflow
			if err := s.DB.Where("owner_id = ?", ownerID).Find(&rows).Error; err != nil {
				return nil, err
			}
			return model.WorkflowItems(rows), nil
		default:
			var rows []*model.Pack
			if err := s.DB.Where("owner_id = ?", ownerID).Find(&rows).Error; err != nil {
				return nil, err
			}
			return model.PackItems(rows), nil
		}
	}

	items = []model.ContentItem{}
	for _, variant := range model.AllContentVariants {
		chunk, err := collect(variant)
		if err != nil {
			Logger.Log.Warn("listByOwner degraded, variant unavailable: ", variant, " err: ", err)
			partial = true
			continue
		}
		items = append(items, chunk...)
	}
	sortItemsByCreatedDesc(items)
	return items, partial, nil
}

// IncrementCounter bumps one engagement counter with a single atomic SQL
// update. Many concurrent viewers may hit the same row; pushing the addition
// into the database is what makes that safe across service instances.
func (s *CatalogStore) IncrementCounter(variant model.ContentVariant, itemID string, kind model.CounterKind, delta int64) error {
	if !kind.IsValid() {
		return errors.Wrapf(ErrInvalidArgument, "unknown counter kind %q", kind)
	}
	if delta <= 0 {
		return errors.Wrap(ErrInvalidArgument, "counters only increase")
	}
	table, err := tableFor(variant)
	if err != nil {
		return err
	}
	column := kind.Column()
	res := s.DB.Table(table).
		Where("id = ? AND deleted_at IS NULL", itemID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "no %s with id %s", variant, itemID)
	}
	return nil
}

// Update applies a partial edit to an item. Only the owner or an admin may
// mutate; the slug is immutable after publish and is not patchable at all.
// Price and IsPaid must be patched as a pair so the invariant holds.
func (s *CatalogStore) Update(variant model.ContentVariant, itemID string, callerID string, patch model.ContentPatch) (model.ContentItem, error) {
	item, err := s.GetById(variant, itemID)
	if err != nil {
		return model.ContentItem{}, err
	}
	core := item.Core()

	var caller model.User
	res := s.DB.Where("id = ?", callerID).First(&caller)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.ContentItem{}, errors.Wrapf(ErrNotFound, "no user with id %s", callerID)
	}
	if res.Error != nil {
		return model.ContentItem{}, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if caller.Id != core.OwnerID && caller.Role != model.RoleAdmin {
		return model.ContentItem{}, errors.Wrap(ErrForbidden, "items can only be edited by their owner or an admin")
	}

	if (patch.Price == nil) != (patch.IsPaid == nil) {
		return model.ContentItem{}, errors.Wrap(ErrInvalidArgument, "price and isPaid must be updated together")
	}

	price, isPaid := core.Price, core.IsPaid
	if patch.Price != nil {
		price, isPaid = *patch.Price, *patch.IsPaid
	}
	title := core.Title
	if patch.Title != nil {
		title = *patch.Title
	}
	description := core.Description
	if patch.Description != nil {
		description = *patch.Description
	}
	if err := validateCore(title, description, price, isPaid); err != nil {
		return model.ContentItem{}, err
	}
	if patch.PromptType != nil && !patch.PromptType.IsValid() {
		return model.ContentItem{}, errors.Wrapf(ErrInvalidArgument, "unknown prompt type %q", *patch.PromptType)
	}
	if patch.PackType != nil && !patch.PackType.IsValid() {
		return model.ContentItem{}, errors.Wrapf(ErrInvalidArgument, "unknown pack type %q", *patch.PackType)
	}

	apply := func(dst interface{}) error {
		// copier dereferences the non-nil patch pointers; IgnoreEmpty keeps
		// nil ones from zeroing fields. Price/IsPaid are handled explicitly
		// because false and 0 are themselves valid target values.
		if err := copier.CopyWithOption(dst, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
			return errors.Wrap(ErrInvalidArgument, err.Error())
		}
		return nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		switch variant {
		case model.VariantPrompt:
			row := item.Prompt
			if err := apply(row); err != nil {
				return err
			}
			row.Price, row.IsPaid = price, isPaid
			if patch.Tags != nil {
				row.Tags = pq.StringArray(NormalizeTags(*patch.Tags))
			}
			return tx.Save(row).Error
		case model.VariantModel:
			row := item.Model
			if err := apply(row); err != nil {
				return err
			}
			row.Price, row.IsPaid = price, isPaid
			if patch.Tags != nil {
				row.Tags = pq.StringArray(NormalizeTags(*patch.Tags))
			}
			return tx.Save(row).Error
		case model.VariantWorkflow:
			row := item.Workflow
			if err := apply(row); err != nil {
				return err
			}
			row.Price, row.IsPaid = price, isPaid
			if patch.Tags != nil {
				row.Tags = pq.StringArray(NormalizeTags(*patch.Tags))
			}
			if patch.Category != nil {
				row.Category = strings.ToLower(*patch.Category)
			}
			return tx.Save(row).Error
		default:
			row := item.Pack
			if err := apply(row); err != nil {
				return err
			}
			row.Price, row.IsPaid = price, isPaid
			if patch.Tags != nil {
				row.Tags = pq.StringArray(NormalizeTags(*patch.Tags))
			}
			if patch.ItemIds != nil {
				row.ItemIds = pq.StringArray(*patch.ItemIds)
			}
			return tx.Save(row).Error
		}
	})
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return model.ContentItem{}, err
		}
		return model.ContentItem{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	return s.GetById(variant, itemID)
}

// SetFeatured flips the curation flag. Admin only.
func (s *CatalogStore) SetFeatured(variant model.ContentVariant, itemID string, callerID string, featured bool) error {
	var caller model.User
	res := s.DB.Where("id = ?", callerID).First(&caller)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "no user with id %s", callerID)
	}
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if caller.Role != model.RoleAdmin {
		return errors.Wrap(ErrForbidden, "only admins can feature items")
	}
	table, err := tableFor(variant)
	if err != nil {
		return err
	}
	update := s.DB.Table(table).
		Where("id = ? AND deleted_at IS NULL", itemID).
		Updates(map[string]interface{}{"is_featured": featured, "updated_at": time.Now()})
	if update.Error != nil {
		return errors.Wrap(ErrUnavailable, update.Error.Error())
	}
	if update.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "no %s with id %s", variant, itemID)
	}
	return nil
}

// SoftDelete hides an item from every listing while keeping the row so that
// engagement events and pack memberships never dangle. Owner or admin only.
func (s *CatalogStore) SoftDelete(variant model.ContentVariant, itemID string, callerID string) error {
	item, err := s.GetById(variant, itemID)
	if err != nil {
		return err
	}
	var caller model.User
	res := s.DB.Where("id = ?", callerID).First(&caller)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "no user with id %s", callerID)
	}
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if caller.Id != item.Core().OwnerID && caller.Role != model.RoleAdmin {
		return errors.Wrap(ErrForbidden, "items can only be removed by their owner or an admin")
	}
	table, _ := tableFor(variant)
	if err := s.DB.Table(table).Where("id = ?", itemID).
		UpdateColumn("deleted_at", time.Now()).Error; err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

func sortItemsByCreatedDesc(items []model.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Core().CreatedAt.After(items[j].Core().CreatedAt)
	})
}
