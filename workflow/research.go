package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contentflow/contentflow/config"
	"github.com/contentflow/contentflow/llm"
	"github.com/contentflow/contentflow/search"
)

const researchStageName = "research"

// ResearchStage gathers findings about the topic: one web search followed by
// an LLM pass that distills the results into key points.
type ResearchStage struct {
	Provider llm.Provider
	Searcher search.Searcher
	Config   config.StageConfig
}

func NewResearchStage(provider llm.Provider, searcher search.Searcher, cfg config.StageConfig) *ResearchStage {
	return &ResearchStage{Provider: provider, Searcher: searcher, Config: cfg}
}

func (st *ResearchStage) Name() string { return researchStageName }

func (st *ResearchStage) Run(ctx context.Context, s State) State {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, st.Config.MaxDuration)
	defer cancel()

	query := fmt.Sprintf("%s latest news %d", s.Topic, time.Now().Year())
	results, err := st.Searcher.Search(ctx, query, 7)
	if err != nil {
		return hardFail(s, researchStageName, StatusResearchFailed, fmt.Errorf("web search failed: %w", err))
	}

	var digest strings.Builder
	sources := make([]string, 0, len(results))
	for _, r := range results {
		digest.WriteString("- ")
		digest.WriteString(r.Title)
		if r.Snippet != "" {
			digest.WriteString(": ")
			digest.WriteString(r.Snippet)
		}
		digest.WriteString("\n")
		sources = append(sources, r.URL)
	}

	prompt := fmt.Sprintf(`Based on these search results about %s:
%s
Extract 5-7 key findings or important points.
Format as a list of clear, concise statements.`, s.Topic, digest.String())

	req := llm.Prompt(prompt)
	req.Model = st.Config.Model
	req.Temperature = st.Config.Temperature
	req.MaxOutputTokens = st.Config.MaxTokens

	resp, err := st.Provider.Generate(ctx, req)
	if err != nil {
		return hardFail(s, researchStageName, StatusResearchFailed, fmt.Errorf("findings generation failed: %w", err))
	}

	findings := splitFindings(resp.Text)

	out := s.clone()
	out.ResearchFindings = findings
	out.ResearchSources = sources
	out.Status = StatusResearchComplete
	out = out.withMessage("Research completed")
	return gateQuality(out, researchStageName, "findings", len(findings), st.Config.MinQuality, time.Since(start))
}
