package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/contentflow/contentflow/config"
	"github.com/contentflow/contentflow/llm"
)

const newsletterStageName = "newsletter"

// NewsletterStage condenses the article into an email-ready summary, subject
// line, and HTML body. It requires a populated FullArticle field.
type NewsletterStage struct {
	Provider llm.Provider
	Config   config.StageConfig

	// now is swappable for tests; the email footer embeds the date.
	now func() time.Time
}

func NewNewsletterStage(provider llm.Provider, cfg config.StageConfig) *NewsletterStage {
	return &NewsletterStage{Provider: provider, Config: cfg, now: time.Now}
}

func (st *NewsletterStage) Name() string { return newsletterStageName }

func (st *NewsletterStage) Run(ctx context.Context, s State) State {
	start := time.Now()

	if s.FullArticle == "" {
		return hardFail(s, newsletterStageName, StatusNewsletterFailed,
			fmt.Errorf("full article is required before newsletter formatting"))
	}

	ctx, cancel := context.WithTimeout(ctx, st.Config.MaxDuration)
	defer cancel()

	summaryPrompt := fmt.Sprintf(`Create a newsletter summary of this article:

Title: %s
Article: %s

Make it:
1. 150-200 words
2. Highlight key points
3. Include a call-to-action
4. Email-friendly formatting`, s.ArticleTitle, s.FullArticle)

	req := llm.Prompt(summaryPrompt)
	req.Model = st.Config.Model
	req.Temperature = st.Config.Temperature
	req.MaxOutputTokens = st.Config.MaxTokens

	summary, err := st.Provider.Generate(ctx, req)
	if err != nil {
		return hardFail(s, newsletterStageName, StatusNewsletterFailed, fmt.Errorf("summary generation failed: %w", err))
	}

	nowFn := st.now
	if nowFn == nil {
		nowFn = time.Now
	}

	out := s.clone()
	out.NewsletterSummary = summary.Text
	out.EmailSubject = "Newsletter: " + s.ArticleTitle
	out.EmailBody = fmt.Sprintf(`<h2>%s</h2>

%s

<p><a href="#">Read Full Article</a></p>

<hr>
<p>Generated on %s</p>`, s.ArticleTitle, summary.Text, nowFn().Format("January 2, 2006"))
	out.Status = StatusNewsletterComplete
	out = out.withMessage("Newsletter created")
	return gateQuality(out, newsletterStageName, "words", wordCount(summary.Text), st.Config.MinQuality, time.Since(start))
}
