package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/repos"
  "github.com/yungbote/agora-backend/internal/types"
  "github.com/yungbote/agora-backend/internal/utils"
)

// RoundSummary is what the admin trigger gets back from one generation round.
type RoundSummary struct {
  SubmissionsConsidered int    `json:"submissions_considered"`
  ClustersFound         int    `json:"clusters_found"`
  ClustersProcessed     int    `json:"clusters_processed"`
  ClustersSkipped       int    `json:"clusters_skipped"`
  ClustersPublished     int    `json:"clusters_published"`
  Message               string `json:"message"`
}

type TopicGenerationService interface {
  // RunRound executes one fetch -> embed -> cluster -> rank -> synthesize ->
  // publish round. A non-nil error means the round performed no writes; a
  // summary with skipped clusters is still a successful round.
  RunRound(ctx context.Context) (*RoundSummary, error)
}

type topicGenerationService struct {
  db  *gorm.DB
  log *logger.Logger

  submissionRepo repos.SubmissionRepo
  userRepo       repos.UserRepo
  threadRepo     repos.ThreadRepo
  postRepo       repos.PostRepo

  ai          OpenAIClient
  synthesizer TopicSynthesizer

  epsilon        float64
  minClusterSize int
  topK           int
}

func NewTopicGenerationService(
  db *gorm.DB,
  baseLog *logger.Logger,
  submissionRepo repos.SubmissionRepo,
  userRepo repos.UserRepo,
  threadRepo repos.ThreadRepo,
  postRepo repos.PostRepo,
  ai OpenAIClient,
  synthesizer TopicSynthesizer,
) TopicGenerationService {
  log := baseLog.With("service", "TopicGenerationService")
  return &topicGenerationService{
    db:             db,
    log:            log,
    submissionRepo: submissionRepo,
    userRepo:       userRepo,
    threadRepo:     threadRepo,
    postRepo:       postRepo,
    ai:             ai,
    synthesizer:    synthesizer,
    epsilon:        utils.GetEnvAsFloat("CLUSTER_EPSILON", DefaultClusterEpsilon, log),
    minClusterSize: utils.GetEnvAsInt("CLUSTER_MIN_SIZE", DefaultClusterMinSize, log),
    topK:           utils.GetEnvAsInt("CLUSTER_TOP_K", DefaultClusterTopK, log),
  }
}

// clusterResult is one cluster's all-or-nothing outcome. The orchestrator
// folds a sequence of these into the round summary, so a failure never hides
// which cluster it came from.
type clusterResult struct {
  Label     int
  Size      int
  Published bool
  Err       error
}

func (tgs *topicGenerationService) RunRound(ctx context.Context) (*RoundSummary, error) {
  summary := &RoundSummary{}

  // Fetch
  fetched, err := tgs.submissionRepo.GetLive(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("fetch live submissions: %w", err)
  }

  // Rows without text or author are not valid clustering inputs.
  eligible := make([]*types.Submission, 0, len(fetched))
  for _, s := range fetched {
    if s == nil || strings.TrimSpace(s.Text) == "" || s.AuthorID == uuid.Nil {
      continue
    }
    eligible = append(eligible, s)
  }
  summary.SubmissionsConsidered = len(eligible)

  if len(eligible) == 0 {
    summary.Message = "nothing to process"
    tgs.log.Info("Generation round finished early", "reason", summary.Message)
    return summary, nil
  }

  // Embed
  texts := make([]string, len(eligible))
  for i, s := range eligible {
    texts[i] = s.Text
  }
  vectors, err := tgs.ai.Embed(ctx, texts)
  if err != nil {
    return nil, fmt.Errorf("embed submissions: %w", err)
  }

  // Cluster + rank
  labels := ClusterVectors(vectors, tgs.epsilon, tgs.minClusterSize)
  groups := GroupByLabel(labels)
  summary.ClustersFound = len(groups)

  if len(groups) == 0 {
    summary.Message = "no clusters formed"
    tgs.log.Info("Generation round finished early", "reason", summary.Message, "submissions", len(eligible))
    return summary, nil
  }

  selected := RankGroups(groups, tgs.topK)

  // Synthesize + publish, cluster by cluster. A failure in one cluster never
  // aborts the round.
  results := make([]clusterResult, 0, len(selected))
  for _, group := range selected {
    results = append(results, tgs.processCluster(ctx, group, eligible))
  }

  for _, r := range results {
    summary.ClustersProcessed++
    if r.Published {
      summary.ClustersPublished++
    } else {
      summary.ClustersSkipped++
      tgs.log.Warn("Cluster skipped",
        "cluster_label", r.Label,
        "cluster_size", r.Size,
        "error", r.Err.Error(),
      )
    }
  }

  summary.Message = fmt.Sprintf("generation round complete: %d published, %d skipped", summary.ClustersPublished, summary.ClustersSkipped)
  tgs.log.Info("Generation round complete",
    "submissions_considered", summary.SubmissionsConsidered,
    "clusters_found", summary.ClustersFound,
    "clusters_processed", summary.ClustersProcessed,
    "clusters_published", summary.ClustersPublished,
    "clusters_skipped", summary.ClustersSkipped,
  )
  return summary, nil
}

func (tgs *topicGenerationService) processCluster(ctx context.Context, group ClusterGroup, submissions []*types.Submission) clusterResult {
  result := clusterResult{Label: group.Label, Size: len(group.Members)}

  texts := make([]string, 0, len(group.Members))
  members := make([]*types.Submission, 0, len(group.Members))
  for _, idx := range group.Members {
    members = append(members, submissions[idx])
    texts = append(texts, submissions[idx].Text)
  }

  topic, err := tgs.synthesizer.Synthesize(ctx, texts)
  if err != nil {
    result.Err = fmt.Errorf("synthesize: %w", err)
    return result
  }

  if err := tgs.publishAndArchive(ctx, topic, members); err != nil {
    result.Err = fmt.Errorf("commit: %w", err)
    return result
  }

  result.Published = true
  return result
}

// publishAndArchive applies one cluster's full write set as a single
// transaction: new thread, its opening post, every member submission flipped
// to archived, every contributing author's live pointer cleared. Either all of
// it is visible or none of it is.
func (tgs *topicGenerationService) publishAndArchive(ctx context.Context, topic *GeneratedTopic, members []*types.Submission) error {
  now := time.Now()

  submissionIDs := make([]uuid.UUID, 0, len(members))
  authorSeen := make(map[uuid.UUID]struct{}, len(members))
  authorIDs := make([]uuid.UUID, 0, len(members))
  for _, m := range members {
    submissionIDs = append(submissionIDs, m.ID)
    if _, ok := authorSeen[m.AuthorID]; !ok {
      authorSeen[m.AuthorID] = struct{}{}
      authorIDs = append(authorIDs, m.AuthorID)
    }
  }

  metadata, err := json.Marshal(map[string]any{"source_count": len(members)})
  if err != nil {
    return fmt.Errorf("marshal thread metadata: %w", err)
  }

  return tgs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    thread := &types.Thread{
      ID:          uuid.New(),
      Title:       topic.Title,
      GeneratedAt: now,
      Metadata:    datatypes.JSON(metadata),
      CreatedAt:   now,
      UpdatedAt:   now,
    }
    if _, err := tgs.threadRepo.Create(ctx, tx, []*types.Thread{thread}); err != nil {
      return fmt.Errorf("create thread: %w", err)
    }

    post := &types.Post{
      ID:            uuid.New(),
      ThreadID:      thread.ID,
      Text:          topic.InitialPost,
      AuthorID:      nil,
      AuthorDisplay: types.PostAuthorDisplaySystem,
      CreatedAt:     now,
    }
    if _, err := tgs.postRepo.Create(ctx, tx, []*types.Post{post}); err != nil {
      return fmt.Errorf("create post: %w", err)
    }

    if err := tgs.submissionRepo.Archive(ctx, tx, submissionIDs); err != nil {
      return fmt.Errorf("archive submissions: %w", err)
    }

    if err := tgs.userRepo.ClearLiveSubmissions(ctx, tx, authorIDs); err != nil {
      return fmt.Errorf("clear live submission pointers: %w", err)
    }

    return nil
  })
}
