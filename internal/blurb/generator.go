// Package blurb drafts candidate narrative texts for report sections with
// Claude.
package blurb

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/report-studio/internal/config"
	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/resilience"
	"github.com/sells-group/report-studio/pkg/anthropic"
)

const breakerCooldown = 30 * time.Second

// ErrAllFailed is returned when no pending section could be drafted.
var ErrAllFailed = eris.New("blurb: every section failed")

// Result summarises one Generate call.
type Result struct {
	Pending   int
	Generated int
	Failed    []string
	Usage     anthropic.TokenUsage
}

// Generator fills section options. It is safe for concurrent use.
type Generator struct {
	ai      anthropic.Client
	cfg     config.BlurbConfig
	policy  resilience.Policy
	breaker *resilience.Breaker
}

// NewGenerator creates a Generator. Zero config values fall back to one
// option per section and no concurrency.
func NewGenerator(ai anthropic.Client, cfg config.BlurbConfig) *Generator {
	if cfg.OptionsPerSection <= 0 {
		cfg.OptionsPerSection = 1
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	policy := resilience.DefaultPolicy()
	policy.Attempts = cfg.MaxAttempts
	policy.Retryable = retryable

	return &Generator{
		ai:      ai,
		cfg:     cfg,
		policy:  policy,
		breaker: resilience.NewBreaker(cfg.FailureThreshold, breakerCooldown),
	}
}

func retryable(err error) bool {
	return resilience.IsTransientHTTPStatus(anthropic.StatusCode(err)) || resilience.IsTransient(err)
}

type target struct {
	general bool
	index   int
	section model.ReportSection
}

// Generate returns a copy of b whose sections have freshly drafted options.
// Sections that already have options are left alone unless overwrite is set.
// A section that fails keeps its previous options and is listed in
// Result.Failed; the call only errors when ctx ends or every pending section
// fails.
func (g *Generator) Generate(ctx context.Context, b *model.DraftBundle, overwrite bool) (*model.DraftBundle, Result, error) {
	if b == nil {
		return nil, Result{}, eris.New("blurb: nil bundle")
	}

	out := *b
	out.Questions = append([]model.ReportSection(nil), b.Questions...)
	out.GeneralSections = append([]model.ReportSection(nil), b.GeneralSections...)
	out.AssignIDs()

	var targets []target
	for i, s := range out.Questions {
		if overwrite || len(s.Options) == 0 {
			targets = append(targets, target{index: i, section: s})
		}
	}
	for i, s := range out.GeneralSections {
		if overwrite || len(s.Options) == 0 {
			targets = append(targets, target{general: true, index: i, section: s})
		}
	}

	res := Result{Pending: len(targets)}
	if len(targets) == 0 {
		return &out, res, nil
	}

	log := zap.L().With(zap.String("client", b.ClientName), zap.Int("pending", len(targets)))
	log.Info("drafting section options")

	system := []anthropic.SystemBlock{
		{Text: systemPrompt},
		{Text: contextPrompt(&out), CacheControl: &anthropic.CacheControl{}},
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	record := func(t target, opts []string, usage anthropic.TokenUsage, err error) {
		mu.Lock()
		defer mu.Unlock()
		res.Usage = res.Usage.Add(usage)
		if err != nil {
			log.Warn("section draft failed", zap.String("section", t.section.ID), zap.Error(err))
			res.Failed = append(res.Failed, t.section.ID)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if t.general {
			out.GeneralSections[t.index].Options = opts
		} else {
			out.Questions[t.index].Options = opts
		}
		res.Generated++
	}

	// The first request runs alone so the rest read the shared context from
	// the prompt cache.
	opts, usage, err := g.draft(ctx, system, targets[0].section)
	record(targets[0], opts, usage, err)

	eg := errgroup.Group{}
	eg.SetLimit(g.cfg.MaxConcurrency)
	for _, t := range targets[1:] {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			opts, usage, err := g.draft(ctx, system, t.section)
			record(t, opts, usage, err)
			return nil
		})
	}
	waitErr := eg.Wait()

	res.Usage.LogCost(g.cfg.Model, "draft")
	log.Info("section drafting complete",
		zap.Int("generated", res.Generated),
		zap.Int("failed", len(res.Failed)),
	)

	if err := ctx.Err(); err != nil {
		return &out, res, eris.Wrap(err, "blurb: generate")
	}
	if waitErr != nil {
		return &out, res, eris.Wrap(waitErr, "blurb: generate")
	}
	if res.Generated == 0 {
		return &out, res, eris.Wrapf(ErrAllFailed, "%v", firstErr)
	}
	return &out, res, nil
}

// draft requests options for one section, retrying transient API failures.
func (g *Generator) draft(ctx context.Context, system []anthropic.SystemBlock, s model.ReportSection) ([]string, anthropic.TokenUsage, error) {
	if err := g.breaker.Allow(); err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	policy := g.policy
	policy.OnRetry = resilience.LogRetry("blurb", s.ID)

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     g.cfg.Model,
			MaxTokens: g.cfg.MaxTokens,
			System:    system,
			Messages:  []anthropic.Message{{Role: "user", Content: sectionPrompt(s, g.cfg.OptionsPerSection)}},
		})
	})
	g.breaker.Record(err)
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrapf(err, "blurb: draft section %s", s.ID)
	}

	opts, err := parseOptions(resp.Text(), g.cfg.OptionsPerSection)
	if err != nil {
		return nil, resp.Usage, err
	}
	return opts, resp.Usage, nil
}
