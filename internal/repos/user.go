package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/types"
)

// ErrLiveSubmissionTaken means the user's live pointer was already set when a
// claim was attempted.
var ErrLiveSubmissionTaken = errors.New("live submission pointer already set")

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
  SetLiveSubmission(ctx context.Context, tx *gorm.DB, userID uuid.UUID, submissionID uuid.UUID) error
  ClearLiveSubmissions(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  repoLog := baseLog.With("repo", "UserRepo")
  return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }

  if len(users) == 0 {
    return []*types.User{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
    return nil, err
  }

  return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }

  var results []*types.User

  if len(userIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", userIDs).
    Find(&results).Error; err != nil {
      return nil, err
  }
  return results, nil
}

// SetLiveSubmission claims the user's live pointer. The claim is conditional
// on the pointer being unset, so two concurrent claims for the same user can
// never both succeed; the loser gets ErrLiveSubmissionTaken.
func (ur *userRepo) SetLiveSubmission(ctx context.Context, tx *gorm.DB, userID uuid.UUID, submissionID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }

  result := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("id = ? AND live_submission_id IS NULL", userID).
    Update("live_submission_id", submissionID)
  if result.Error != nil {
    return result.Error
  }
  if result.RowsAffected == 0 {
    return ErrLiveSubmissionTaken
  }
  return nil
}

func (ur *userRepo) ClearLiveSubmissions(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }

  if len(userIDs) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("id IN ?", userIDs).
    Update("live_submission_id", nil).Error
}
