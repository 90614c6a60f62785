package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/types"
)

type PostRepo interface {
  Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error)
  GetByThreadIDs(ctx context.Context, tx *gorm.DB, threadIDs []uuid.UUID) ([]*types.Post, error)
}

type postRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
  repoLog := baseLog.With("repo", "PostRepo")
  return &postRepo{db: db, log: repoLog}
}

func (pr *postRepo) Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  if len(posts) == 0 {
    return []*types.Post{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&posts).Error; err != nil {
    return nil, err
  }

  return posts, nil
}

func (pr *postRepo) GetByThreadIDs(ctx context.Context, tx *gorm.DB, threadIDs []uuid.UUID) ([]*types.Post, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Post

  if len(threadIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("thread_id IN ?", threadIDs).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
