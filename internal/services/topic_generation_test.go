package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/repos"
	"github.com/yungbote/agora-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "agora_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.Submission{}, &types.Thread{}, &types.Post{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUserWithLive(t *testing.T, db *gorm.DB, n int, text string, createdAt time.Time) (*types.User, *types.Submission) {
	t.Helper()
	user := &types.User{
		ID:          uuid.New(),
		Email:       fmt.Sprintf("user%d-%s@example.com", n, uuid.NewString()[:8]),
		DisplayName: fmt.Sprintf("User %d", n),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sub := &types.Submission{
		ID:         uuid.New(),
		AuthorID:   user.ID,
		Text:       text,
		Status:     types.SubmissionStatusLive,
		CreatedAt:  createdAt,
		LastEdited: createdAt,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	if err := db.Model(user).Update("live_submission_id", sub.ID).Error; err != nil {
		t.Fatalf("seed live pointer: %v", err)
	}
	return user, sub
}

// scriptedSynthesizer returns one scripted outcome per call, in order.
type scriptedSynthesizer struct {
	outcomes []func() (*GeneratedTopic, error)
	calls    int
}

func (s *scriptedSynthesizer) Synthesize(ctx context.Context, texts []string) (*GeneratedTopic, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.outcomes) {
		return nil, fmt.Errorf("unexpected synthesize call %d", idx+1)
	}
	return s.outcomes[idx]()
}

func okTopic(title string) func() (*GeneratedTopic, error) {
	return func() (*GeneratedTopic, error) {
		return &GeneratedTopic{Title: title, InitialPost: "An opening post for " + title}, nil
	}
}

func embedByText(vectors map[string][]float32) func(ctx context.Context, inputs []string) ([][]float32, error) {
	return func(ctx context.Context, inputs []string) ([][]float32, error) {
		out := make([][]float32, len(inputs))
		for i, text := range inputs {
			vec, ok := vectors[text]
			if !ok {
				return nil, fmt.Errorf("no scripted vector for %q", text)
			}
			out[i] = vec
		}
		return out, nil
	}
}

func newRoundService(t *testing.T, db *gorm.DB, ai OpenAIClient, synth TopicSynthesizer, threadRepo repos.ThreadRepo) TopicGenerationService {
	t.Helper()
	log := testLogger(t)
	if threadRepo == nil {
		threadRepo = repos.NewThreadRepo(db, log)
	}
	return NewTopicGenerationService(
		db,
		log,
		repos.NewSubmissionRepo(db, log),
		repos.NewUserRepo(db, log),
		threadRepo,
		repos.NewPostRepo(db, log),
		ai,
		synth,
	)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRunRound_NoLiveSubmissions(t *testing.T) {
	db := newTestDB(t)
	svc := newRoundService(t, db, &fakeOpenAIClient{}, &scriptedSynthesizer{}, nil)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SubmissionsConsidered != 0 || summary.ClustersProcessed != 0 || summary.ClustersPublished != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if summary.Message != "nothing to process" {
		t.Fatalf("unexpected message %q", summary.Message)
	}
	if n := countRows(t, db, &types.Thread{}); n != 0 {
		t.Fatalf("expected no threads, got %d", n)
	}
}

func TestRunRound_SingleClusterPublishes(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	vectors := map[string][]float32{}
	var subs []*types.Submission
	var users []*types.User
	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("the joy of cats %d", i)
		u, s := seedUserWithLive(t, db, i, text, base.Add(time.Duration(i)*time.Second))
		vectors[text] = []float32{0.1, 0.1}
		subs = append(subs, s)
		users = append(users, u)
	}

	ai := &fakeOpenAIClient{embedFn: embedByText(vectors)}
	synth := &scriptedSynthesizer{outcomes: []func() (*GeneratedTopic, error){okTopic("Cats")}}
	svc := newRoundService(t, db, ai, synth, nil)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SubmissionsConsidered != 5 || summary.ClustersFound != 1 || summary.ClustersPublished != 1 || summary.ClustersSkipped != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if n := countRows(t, db, &types.Thread{}); n != 1 {
		t.Fatalf("expected 1 thread, got %d", n)
	}
	if n := countRows(t, db, &types.Post{}); n != 1 {
		t.Fatalf("expected 1 post, got %d", n)
	}

	var post types.Post
	if err := db.First(&post).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if post.AuthorID != nil {
		t.Fatalf("expected generated post to have no author, got %v", post.AuthorID)
	}
	if post.AuthorDisplay != types.PostAuthorDisplaySystem {
		t.Fatalf("unexpected author display %q", post.AuthorDisplay)
	}

	for _, s := range subs {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusArchived {
			t.Fatalf("expected submission %s archived, got %q", s.ID, got.Status)
		}
	}
	for _, u := range users {
		var got types.User
		if err := db.First(&got, "id = ?", u.ID).Error; err != nil {
			t.Fatalf("load user: %v", err)
		}
		if got.LiveSubmissionID != nil {
			t.Fatalf("expected cleared live pointer for user %s, got %v", u.ID, got.LiveSubmissionID)
		}
	}
}

func TestRunRound_IneligibleSubmissionsAreExcluded(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	vectors := map[string][]float32{}
	var eligible []*types.Submission
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("eligible thought %d", i)
		_, s := seedUserWithLive(t, db, i, text, base.Add(time.Duration(i)*time.Second))
		vectors[text] = []float32{0, 0}
		eligible = append(eligible, s)
	}
	// A live row holding only whitespace.
	_, blank := seedUserWithLive(t, db, 50, "   ", base.Add(20*time.Second))
	// A live row with no author on record.
	orphan := &types.Submission{
		ID:         uuid.New(),
		AuthorID:   uuid.Nil,
		Text:       "orphan thought",
		Status:     types.SubmissionStatusLive,
		CreatedAt:  base.Add(21 * time.Second),
		LastEdited: base.Add(21 * time.Second),
	}
	if err := db.Create(orphan).Error; err != nil {
		t.Fatalf("seed orphan submission: %v", err)
	}

	// Neither ineligible text has a scripted vector, so any attempt to embed
	// one fails the round outright.
	ai := &fakeOpenAIClient{embedFn: embedByText(vectors)}
	synth := &scriptedSynthesizer{outcomes: []func() (*GeneratedTopic, error){okTopic("Eligible")}}
	svc := newRoundService(t, db, ai, synth, nil)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SubmissionsConsidered != 3 {
		t.Fatalf("expected 3 submissions considered, got %d", summary.SubmissionsConsidered)
	}
	if summary.ClustersFound != 1 || summary.ClustersPublished != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	for _, s := range eligible {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusArchived {
			t.Fatalf("expected eligible submission %s archived, got %q", s.ID, got.Status)
		}
	}
	for _, s := range []*types.Submission{blank, orphan} {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusLive {
			t.Fatalf("expected excluded submission %s to stay live, got %q", s.ID, got.Status)
		}
	}
}

func TestRunRound_NoisePointsStayLive(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	vectors := map[string][]float32{}
	var clustered []*types.Submission
	var noise []*types.Submission
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("clustered thought %d", i)
		_, s := seedUserWithLive(t, db, i, text, base.Add(time.Duration(i)*time.Second))
		vectors[text] = []float32{0, 0}
		clustered = append(clustered, s)
	}
	for i := 0; i < 7; i++ {
		text := fmt.Sprintf("stray thought %d", i)
		_, s := seedUserWithLive(t, db, 100+i, text, base.Add(time.Duration(10+i)*time.Second))
		// Pairwise far apart, and far from the cluster.
		vectors[text] = []float32{float32(10 * (i + 1)), float32(-10 * (i + 1))}
		noise = append(noise, s)
	}

	ai := &fakeOpenAIClient{embedFn: embedByText(vectors)}
	synth := &scriptedSynthesizer{outcomes: []func() (*GeneratedTopic, error){okTopic("Clustered")}}
	svc := newRoundService(t, db, ai, synth, nil)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SubmissionsConsidered != 10 || summary.ClustersFound != 1 || summary.ClustersProcessed != 1 || summary.ClustersPublished != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	for _, s := range noise {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusLive {
			t.Fatalf("expected noise submission %s to stay live, got %q", s.ID, got.Status)
		}
	}
	for _, s := range clustered {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusArchived {
			t.Fatalf("expected clustered submission %s archived, got %q", s.ID, got.Status)
		}
	}
}

func TestRunRound_SecondClusterContractViolationIsIsolated(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	vectors := map[string][]float32{}
	var first []*types.Submission
	var second []*types.Submission
	// First cluster seeded earlier, so it wins the size tie and goes first.
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("first topic thought %d", i)
		_, s := seedUserWithLive(t, db, i, text, base.Add(time.Duration(i)*time.Second))
		vectors[text] = []float32{0, 0}
		first = append(first, s)
	}
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("second topic thought %d", i)
		_, s := seedUserWithLive(t, db, 10+i, text, base.Add(time.Duration(10+i)*time.Second))
		vectors[text] = []float32{20, 20}
		second = append(second, s)
	}

	ai := &fakeOpenAIClient{embedFn: embedByText(vectors)}
	synth := &scriptedSynthesizer{outcomes: []func() (*GeneratedTopic, error){
		okTopic("First"),
		func() (*GeneratedTopic, error) { return nil, fmt.Errorf("generated topic missing 'initial_post'") },
	}}
	svc := newRoundService(t, db, ai, synth, nil)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ClustersFound != 2 || summary.ClustersProcessed != 2 || summary.ClustersPublished != 1 || summary.ClustersSkipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if n := countRows(t, db, &types.Thread{}); n != 1 {
		t.Fatalf("expected exactly 1 thread, got %d", n)
	}
	for _, s := range first {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusArchived {
			t.Fatalf("expected first cluster archived, got %q", got.Status)
		}
	}
	for _, s := range second {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusLive {
			t.Fatalf("expected second cluster to stay live, got %q", got.Status)
		}
	}
}

// failFirstThreadRepo fails the first thread create and delegates afterwards,
// simulating a storage-side commit failure for one cluster.
type failFirstThreadRepo struct {
	inner repos.ThreadRepo
	calls int
}

func (f *failFirstThreadRepo) Create(ctx context.Context, tx *gorm.DB, threads []*types.Thread) ([]*types.Thread, error) {
	f.calls++
	if f.calls == 1 {
		return nil, fmt.Errorf("storage unavailable")
	}
	return f.inner.Create(ctx, tx, threads)
}

func (f *failFirstThreadRepo) GetByIDs(ctx context.Context, tx *gorm.DB, threadIDs []uuid.UUID) ([]*types.Thread, error) {
	return f.inner.GetByIDs(ctx, tx, threadIDs)
}

func TestRunRound_CommitFailureRollsBackOnlyThatCluster(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	vectors := map[string][]float32{}
	var first []*types.Submission
	var second []*types.Submission
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("doomed thought %d", i)
		_, s := seedUserWithLive(t, db, i, text, base.Add(time.Duration(i)*time.Second))
		vectors[text] = []float32{0, 0}
		first = append(first, s)
	}
	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("surviving thought %d", i)
		_, s := seedUserWithLive(t, db, 10+i, text, base.Add(time.Duration(10+i)*time.Second))
		vectors[text] = []float32{20, 20}
		second = append(second, s)
	}

	log := testLogger(t)
	threadRepo := &failFirstThreadRepo{inner: repos.NewThreadRepo(db, log)}
	ai := &fakeOpenAIClient{embedFn: embedByText(vectors)}
	synth := &scriptedSynthesizer{outcomes: []func() (*GeneratedTopic, error){
		okTopic("Doomed"),
		okTopic("Surviving"),
	}}
	svc := newRoundService(t, db, ai, synth, threadRepo)

	summary, err := svc.RunRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ClustersPublished != 1 || summary.ClustersSkipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// All-or-nothing: nothing from the failed cluster may be visible.
	for _, s := range first {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusLive {
			t.Fatalf("expected failed cluster submission %s to stay live, got %q", s.ID, got.Status)
		}
		var user types.User
		if err := db.First(&user, "id = ?", got.AuthorID).Error; err != nil {
			t.Fatalf("load user: %v", err)
		}
		if user.LiveSubmissionID == nil {
			t.Fatalf("expected failed cluster author %s to keep live pointer", got.AuthorID)
		}
	}
	for _, s := range second {
		var got types.Submission
		if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
			t.Fatalf("load submission: %v", err)
		}
		if got.Status != types.SubmissionStatusArchived {
			t.Fatalf("expected later cluster submission %s archived, got %q", s.ID, got.Status)
		}
	}
	if n := countRows(t, db, &types.Thread{}); n != 1 {
		t.Fatalf("expected 1 thread, got %d", n)
	}
}

func TestRunRound_EmbedFailureIsFatalAndWritesNothing(t *testing.T) {
	db := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedUserWithLive(t, db, i, fmt.Sprintf("thought %d", i), base.Add(time.Duration(i)*time.Second))
	}

	ai := &fakeOpenAIClient{embedFn: func(ctx context.Context, inputs []string) ([][]float32, error) {
		return nil, fmt.Errorf("embedding backend down")
	}}
	svc := newRoundService(t, db, ai, &scriptedSynthesizer{}, nil)

	if _, err := svc.RunRound(context.Background()); err == nil {
		t.Fatalf("expected fatal error when embedding is unavailable")
	}
	if n := countRows(t, db, &types.Thread{}); n != 0 {
		t.Fatalf("expected no threads after fatal round, got %d", n)
	}
	var live int64
	if err := db.Model(&types.Submission{}).Where("status = ?", types.SubmissionStatusLive).Count(&live).Error; err != nil {
		t.Fatalf("count live: %v", err)
	}
	if live != 3 {
		t.Fatalf("expected all submissions still live, got %d", live)
	}
}
