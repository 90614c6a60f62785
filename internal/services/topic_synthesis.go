package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/yungbote/agora-backend/internal/logger"
)

// GeneratedTopic is the validated output of one cluster's synthesis. Both
// fields are non-empty; a malformed model response never produces a partial
// topic.
type GeneratedTopic struct {
  Title       string
  InitialPost string
}

// submissionSeparator keeps individual thoughts visibly distinct inside the
// user payload handed to the model.
const submissionSeparator = "\n---\n"

const synthesisSystemPrompt = `You are a community discussion facilitator. You will receive several short, independently written thoughts from different people that share a common theme. Synthesize them into one neutral, open-ended discussion question (the title) and a short opening post that frames the conversation without taking sides. Do not quote or single out any individual contribution.`

type TopicSynthesizer interface {
  Synthesize(ctx context.Context, texts []string) (*GeneratedTopic, error)
}

type topicSynthesizer struct {
  log *logger.Logger
  ai  OpenAIClient
}

func NewTopicSynthesizer(baseLog *logger.Logger, ai OpenAIClient) TopicSynthesizer {
  return &topicSynthesizer{
    log: baseLog.With("service", "TopicSynthesizer"),
    ai:  ai,
  }
}

func topicSchema() map[string]any {
  return map[string]any{
    "type": "object",
    "properties": map[string]any{
      "title":        map[string]any{"type": "string"},
      "initial_post": map[string]any{"type": "string"},
    },
    "required":             []string{"title", "initial_post"},
    "additionalProperties": false,
  }
}

func (ts *topicSynthesizer) Synthesize(ctx context.Context, texts []string) (*GeneratedTopic, error) {
  if len(texts) == 0 {
    return nil, fmt.Errorf("no texts to synthesize")
  }

  user := strings.Join(texts, submissionSeparator)

  obj, err := ts.ai.GenerateJSON(ctx, synthesisSystemPrompt, user, "discussion_topic", topicSchema())
  if err != nil {
    return nil, fmt.Errorf("generate topic: %w", err)
  }

  return validateGeneratedTopic(obj)
}

// validateGeneratedTopic enforces the output contract: both keys present, both
// values strings, both non-empty. The model can return well-formed JSON with
// the wrong value types, so key presence alone is not enough.
func validateGeneratedTopic(obj map[string]any) (*GeneratedTopic, error) {
  rawTitle, ok := obj["title"]
  if !ok {
    return nil, fmt.Errorf("generated topic missing 'title'")
  }
  rawPost, ok := obj["initial_post"]
  if !ok {
    return nil, fmt.Errorf("generated topic missing 'initial_post'")
  }

  title, ok := rawTitle.(string)
  if !ok {
    return nil, fmt.Errorf("generated topic 'title' is not a string")
  }
  post, ok := rawPost.(string)
  if !ok {
    return nil, fmt.Errorf("generated topic 'initial_post' is not a string")
  }

  title = strings.TrimSpace(title)
  post = strings.TrimSpace(post)
  if title == "" {
    return nil, fmt.Errorf("generated topic 'title' is empty")
  }
  if post == "" {
    return nil, fmt.Errorf("generated topic 'initial_post' is empty")
  }

  return &GeneratedTopic{Title: title, InitialPost: post}, nil
}
