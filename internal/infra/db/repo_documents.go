package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"proofstamp/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentRepository persists document metadata, scoped by owner address.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc domain.DocumentMetadata) (domain.DocumentMetadata, error) {
	if r.db == nil {
		return domain.DocumentMetadata{}, errDBUnavailable
	}
	if doc.Owner == "" {
		return domain.DocumentMetadata{}, errors.New("owner is required")
	}
	if doc.Hash == "" {
		return domain.DocumentMetadata{}, errors.New("hash is required")
	}
	if doc.Title == "" {
		doc.Title = domain.PlaceholderTimestampName
	}

	model := DocumentModel{
		ID:        uuid.NewString(),
		Owner:     doc.Owner,
		Title:     doc.Title,
		Hash:      doc.Hash,
		TxHash:    doc.TxHash,
		ContentID: doc.ContentID,
		FileURL:   doc.FileURL,
		CreatedAt: doc.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if len(doc.Metadata) > 0 {
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return domain.DocumentMetadata{}, fmt.Errorf("encode metadata: %w", err)
		}
		model.Metadata = raw
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.DocumentMetadata{}, err
	}
	return toDomain(model)
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, owner string) ([]domain.DocumentMetadata, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if owner == "" {
		return nil, errors.New("owner is required")
	}

	var models []DocumentModel
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.DocumentMetadata, 0, len(models))
	for _, model := range models {
		doc, err := toDomain(model)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, owner, id string) (domain.DocumentMetadata, error) {
	if r.db == nil {
		return domain.DocumentMetadata{}, errDBUnavailable
	}

	var model DocumentModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DocumentMetadata{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DocumentMetadata{}, err
	}
	return toDomain(model)
}

func toDomain(model DocumentModel) (domain.DocumentMetadata, error) {
	doc := domain.DocumentMetadata{
		ID:        model.ID,
		Owner:     model.Owner,
		Title:     model.Title,
		Hash:      model.Hash,
		TxHash:    model.TxHash,
		ContentID: model.ContentID,
		FileURL:   model.FileURL,
		CreatedAt: model.CreatedAt,
	}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &doc.Metadata); err != nil {
			return domain.DocumentMetadata{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return doc, nil
}
