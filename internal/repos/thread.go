package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/types"
)

type ThreadRepo interface {
  Create(ctx context.Context, tx *gorm.DB, threads []*types.Thread) ([]*types.Thread, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, threadIDs []uuid.UUID) ([]*types.Thread, error)
}

type threadRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
  repoLog := baseLog.With("repo", "ThreadRepo")
  return &threadRepo{db: db, log: repoLog}
}

func (tr *threadRepo) Create(ctx context.Context, tx *gorm.DB, threads []*types.Thread) ([]*types.Thread, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  if len(threads) == 0 {
    return []*types.Thread{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&threads).Error; err != nil {
    return nil, err
  }

  return threads, nil
}

func (tr *threadRepo) GetByIDs(ctx context.Context, tx *gorm.DB, threadIDs []uuid.UUID) ([]*types.Thread, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  var results []*types.Thread

  if len(threadIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", threadIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
