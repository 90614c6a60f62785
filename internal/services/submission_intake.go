package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/repos"
  "github.com/yungbote/agora-backend/internal/types"
)

// SubmissionIntakeService manages a user's single live submission. Each user
// holds at most one live submission at a time; creating sets the user's live
// pointer in the same transaction so the pointer never dangles.
type SubmissionIntakeService interface {
  CreateLive(ctx context.Context, userID uuid.UUID, text string) (*types.Submission, error)
  GetLive(ctx context.Context, userID uuid.UUID) (*types.Submission, error)
  EditLive(ctx context.Context, userID uuid.UUID, text string) (*types.Submission, error)
}

type submissionIntakeService struct {
  db  *gorm.DB
  log *logger.Logger

  submissionRepo repos.SubmissionRepo
  userRepo       repos.UserRepo
}

func NewSubmissionIntakeService(db *gorm.DB, baseLog *logger.Logger, submissionRepo repos.SubmissionRepo, userRepo repos.UserRepo) SubmissionIntakeService {
  return &submissionIntakeService{
    db:             db,
    log:            baseLog.With("service", "SubmissionIntakeService"),
    submissionRepo: submissionRepo,
    userRepo:       userRepo,
  }
}

func (sis *submissionIntakeService) CreateLive(ctx context.Context, userID uuid.UUID, text string) (*types.Submission, error) {
  text = strings.TrimSpace(text)
  if text == "" {
    return nil, fmt.Errorf("submission text required")
  }

  var created *types.Submission
  err := sis.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    users, err := sis.userRepo.GetByIDs(ctx, tx, []uuid.UUID{userID})
    if err != nil {
      return fmt.Errorf("load user: %w", err)
    }
    if len(users) == 0 || users[0] == nil {
      return fmt.Errorf("user not found")
    }
    if users[0].LiveSubmissionID != nil {
      return fmt.Errorf("user already has a live submission")
    }

    now := time.Now()
    created = &types.Submission{
      ID:         uuid.New(),
      AuthorID:   userID,
      Text:       text,
      Status:     types.SubmissionStatusLive,
      CreatedAt:  now,
      LastEdited: now,
    }
    if _, err := sis.submissionRepo.Create(ctx, tx, []*types.Submission{created}); err != nil {
      return fmt.Errorf("create submission: %w", err)
    }

    // The conditional claim is the authoritative guard: a concurrent create
    // that slipped past the read above loses here and the whole transaction,
    // submission row included, rolls back.
    if err := sis.userRepo.SetLiveSubmission(ctx, tx, userID, created.ID); err != nil {
      if errors.Is(err, repos.ErrLiveSubmissionTaken) {
        return fmt.Errorf("user already has a live submission")
      }
      return fmt.Errorf("set live submission pointer: %w", err)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  sis.log.Info("Live submission created", "author_id", userID.String())
  return created, nil
}

func (sis *submissionIntakeService) GetLive(ctx context.Context, userID uuid.UUID) (*types.Submission, error) {
  return sis.submissionRepo.GetLiveByAuthor(ctx, nil, userID)
}

func (sis *submissionIntakeService) EditLive(ctx context.Context, userID uuid.UUID, text string) (*types.Submission, error) {
  text = strings.TrimSpace(text)
  if text == "" {
    return nil, fmt.Errorf("submission text required")
  }

  current, err := sis.submissionRepo.GetLiveByAuthor(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("load live submission: %w", err)
  }
  if current == nil {
    return nil, fmt.Errorf("no live submission to edit")
  }

  if err := sis.submissionRepo.UpdateText(ctx, nil, current.ID, text); err != nil {
    return nil, fmt.Errorf("update submission text: %w", err)
  }

  current.Text = text
  current.LastEdited = time.Now()
  return current, nil
}
