package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contentflow/contentflow/config"
	"github.com/contentflow/contentflow/llm"
)

const writerStageName = "writer"

// WriterStage turns the research findings into a full article plus a title.
// It requires a populated ResearchFindings field.
type WriterStage struct {
	Provider llm.Provider
	Config   config.StageConfig
}

func NewWriterStage(provider llm.Provider, cfg config.StageConfig) *WriterStage {
	return &WriterStage{Provider: provider, Config: cfg}
}

func (st *WriterStage) Name() string { return writerStageName }

func (st *WriterStage) Run(ctx context.Context, s State) State {
	start := time.Now()

	if len(s.ResearchFindings) == 0 {
		return hardFail(s, writerStageName, StatusWritingFailed,
			fmt.Errorf("research findings are required before writing"))
	}

	ctx, cancel := context.WithTimeout(ctx, st.Config.MaxDuration)
	defer cancel()

	articlePrompt := fmt.Sprintf(`Write a comprehensive article about %s.

Use these research findings:
%s

Structure:
1. Engaging introduction
2. Main body with 3-4 sections
3. Conclusion

Make it informative and engaging. About 500-700 words.`,
		s.Topic, strings.Join(s.ResearchFindings, "\n"))

	req := llm.Prompt(articlePrompt)
	req.Model = st.Config.Model
	req.Temperature = st.Config.Temperature
	req.MaxOutputTokens = st.Config.MaxTokens

	article, err := st.Provider.Generate(ctx, req)
	if err != nil {
		return hardFail(s, writerStageName, StatusWritingFailed, fmt.Errorf("article generation failed: %w", err))
	}

	titleReq := llm.Prompt(fmt.Sprintf("Create a catchy title for this article about %s", s.Topic))
	titleReq.Model = st.Config.Model
	titleReq.Temperature = st.Config.Temperature
	titleReq.MaxOutputTokens = 60

	title, err := st.Provider.Generate(ctx, titleReq)
	if err != nil {
		return hardFail(s, writerStageName, StatusWritingFailed, fmt.Errorf("title generation failed: %w", err))
	}

	out := s.clone()
	out.FullArticle = article.Text
	out.ArticleTitle = strings.Trim(strings.TrimSpace(title.Text), `"`)
	out.Status = StatusWritingComplete
	out = out.withMessage("Article written")
	return gateQuality(out, writerStageName, "words", wordCount(article.Text), st.Config.MinQuality, time.Since(start))
}
