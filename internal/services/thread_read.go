package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/repos"
  "github.com/yungbote/agora-backend/internal/types"
)

// ThreadView is one published thread with its posts in chronological order.
type ThreadView struct {
  Thread *types.Thread `json:"thread"`
  Posts  []*types.Post `json:"posts"`
}

type ThreadReadService interface {
  // GetThread returns nil, nil when no thread with that ID exists.
  GetThread(ctx context.Context, threadID uuid.UUID) (*ThreadView, error)
}

type threadReadService struct {
  log *logger.Logger

  threadRepo repos.ThreadRepo
  postRepo   repos.PostRepo
}

func NewThreadReadService(baseLog *logger.Logger, threadRepo repos.ThreadRepo, postRepo repos.PostRepo) ThreadReadService {
  return &threadReadService{
    log:        baseLog.With("service", "ThreadReadService"),
    threadRepo: threadRepo,
    postRepo:   postRepo,
  }
}

func (trs *threadReadService) GetThread(ctx context.Context, threadID uuid.UUID) (*ThreadView, error) {
  threads, err := trs.threadRepo.GetByIDs(ctx, nil, []uuid.UUID{threadID})
  if err != nil {
    return nil, fmt.Errorf("load thread: %w", err)
  }
  if len(threads) == 0 {
    return nil, nil
  }

  posts, err := trs.postRepo.GetByThreadIDs(ctx, nil, []uuid.UUID{threadID})
  if err != nil {
    return nil, fmt.Errorf("load posts: %w", err)
  }

  return &ThreadView{Thread: threads[0], Posts: posts}, nil
}
