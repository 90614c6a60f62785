package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/types"
)

type SubmissionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, submissions []*types.Submission) ([]*types.Submission, error)
  GetLive(ctx context.Context, tx *gorm.DB) ([]*types.Submission, error)
  GetLiveByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) (*types.Submission, error)
  UpdateText(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, text string) error
  Archive(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID) error
}

type submissionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
  repoLog := baseLog.With("repo", "SubmissionRepo")
  return &submissionRepo{db: db, log: repoLog}
}

func (sr *submissionRepo) Create(ctx context.Context, tx *gorm.DB, submissions []*types.Submission) ([]*types.Submission, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if len(submissions) == 0 {
    return []*types.Submission{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&submissions).Error; err != nil {
    return nil, err
  }

  return submissions, nil
}

func (sr *submissionRepo) GetLive(ctx context.Context, tx *gorm.DB) ([]*types.Submission, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Submission

  if err := transaction.WithContext(ctx).
    Where("status = ?", types.SubmissionStatusLive).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (sr *submissionRepo) GetLiveByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) (*types.Submission, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Submission

  if err := transaction.WithContext(ctx).
    Where("author_id = ? AND status = ?", authorID, types.SubmissionStatusLive).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (sr *submissionRepo) UpdateText(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, text string) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Submission{}).
    Where("id = ?", submissionID).
    Updates(map[string]any{
      "text":        text,
      "last_edited": time.Now(),
    }).Error
}

func (sr *submissionRepo) Archive(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if len(submissionIDs) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.Submission{}).
    Where("id IN ?", submissionIDs).
    Update("status", types.SubmissionStatusArchived).Error
}
