package main

import (
	"fmt"

	"github.com/entrhq/notes-agent/pkg/agent"
	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/config"
	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/llm/openai"
	"github.com/entrhq/notes-agent/pkg/llm/tokenizer"
	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/notes"
	"github.com/entrhq/notes-agent/pkg/security/workspace"
	"github.com/entrhq/notes-agent/pkg/textsplit"
	"github.com/entrhq/notes-agent/pkg/tools/notetools"
	"github.com/entrhq/notes-agent/pkg/vectorstore"
)

var cliLog = logging.MustComponent("cli")

// newEmbedder never fails on a missing key; the OpenAI embedder reports
// it on first use so commands that only append stay usable offline.
func newEmbedder(cfg *config.Config) llm.Embedder {
	if cfg.Embedding.Provider == config.EmbeddingHashing {
		return vectorstore.NewHashingEmbedder()
	}
	e := openai.NewEmbedder(cfg.LLM.APIKey,
		openai.WithEmbeddingModel(cfg.Embedding.Model),
		openai.WithEmbeddingBaseURL(cfg.LLM.BaseURL),
	)
	cliLog.Debugf("embedding with %s", e.Model())
	return e
}

func newSplitter(cfg *config.Config) (*textsplit.CharacterSplitter, error) {
	opts := []textsplit.Option{
		textsplit.WithSeparator(cfg.Chunking.Separator),
		textsplit.WithChunkSize(cfg.Chunking.Size),
		textsplit.WithChunkOverlap(cfg.Chunking.Overlap),
	}
	if cfg.Chunking.Length == config.LengthTokens {
		tok, err := tokenizer.ForModel(cfg.Embedding.Model)
		if err != nil {
			return nil, fmt.Errorf("token chunking: %w", err)
		}
		cliLog.Debugf("chunk length measured in %s tokens", tok.Name())
		opts = append(opts, textsplit.WithLengthFunc(tok.CountTokens))
	}
	return textsplit.NewCharacterSplitter(opts...)
}

// newRegistry builds the note actions from configuration.
func newRegistry(cfg *config.Config) (*tools.Registry, error) {
	embedder := newEmbedder(cfg)
	splitter, err := newSplitter(cfg)
	if err != nil {
		return nil, err
	}
	opts := []notes.SearcherOption{notes.WithK(cfg.Search.K)}
	if cfg.Notes.Root != "" {
		guard, err := newGuard(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notes.WithPathCheck(guard.Check))
	}
	return notetools.NewRegistry(notes.NewSearcher(splitter, embedder, opts...))
}

func newGuard(cfg *config.Config) (*workspace.Guard, error) {
	guard, err := workspace.NewGuard(cfg.Notes.Root)
	if err != nil {
		return nil, err
	}
	for _, dir := range cfg.Notes.Allow {
		if err := guard.Allow(dir); err != nil {
			return nil, err
		}
	}
	cliLog.Infof("notes confined to %s (+%d allowed)", guard.Root(), len(guard.Allowed()))
	return guard, nil
}

// newLoop builds the reasoning loop. Extra options are applied after the
// configured ones.
func newLoop(cfg *config.Config, registry *tools.Registry, extra ...agent.LoopOption) (*agent.Loop, error) {
	provider, err := openai.NewProvider(cfg.LLM.APIKey,
		openai.WithModel(cfg.LLM.Model),
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		return nil, err
	}

	opts := []agent.LoopOption{
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithToolErrorRecovery(cfg.Agent.RecoverToolErrors),
	}
	if tok, err := tokenizer.ForModel(cfg.LLM.Model); err != nil {
		cliLog.Warnf("token counting disabled: %v", err)
	} else {
		opts = append(opts, agent.WithTokenizer(tok))
	}
	opts = append(opts, extra...)

	return agent.NewLoop(provider, registry, opts...)
}
