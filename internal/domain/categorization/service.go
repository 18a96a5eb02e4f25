package categorization

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// Result holds the outcome of categorizing one label.
type Result struct {
	Category  string
	CleanName string
	Fuzzy     bool
}

// Service answers merchant-to-category lookups: exact substring rules first,
// then a fuzzy pass for misspelt merchants, then a full-text search over the
// words of the label.
type Service struct {
	engine    *Engine
	fuzzy     *FuzzyMatcher
	search    *SearchIndex // nil when the index could not be built
	threshold int
	logger    *slog.Logger

	mu    sync.Mutex
	rules []Rule

	// user rule hits since the last FlushMatches, by pattern
	hitsMu sync.Mutex
	hits   map[string]int
}

// NewService creates a categorizer over rules. A threshold of zero uses
// DefaultFuzzyThreshold; a negative one disables the fuzzy and search passes.
func NewService(rules []Rule, threshold int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if threshold == 0 {
		threshold = DefaultFuzzyThreshold
	}
	owned := append([]Rule(nil), rules...)
	s := &Service{
		engine:    NewEngine(owned),
		fuzzy:     NewFuzzyMatcher(owned),
		threshold: threshold,
		logger:    logger,
		rules:     owned,
	}
	if threshold >= 0 {
		search, err := NewSearchIndex(owned)
		if err != nil {
			logger.Warn("category search disabled", slog.Any("error", err))
		} else {
			s.search = search
		}
	}
	return s
}

// NewDefaultService is NewService over DefaultRules.
func NewDefaultService(logger *slog.Logger) *Service {
	return NewService(DefaultRules(), 0, logger)
}

// Categorize looks up label. ok is false when nothing matched.
func (s *Service) Categorize(label string) (Result, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Result{}, false
	}

	if m := s.engine.Match(label); m != nil {
		s.hit(*m)
		return Result{Category: m.Category, CleanName: m.CleanName}, true
	}

	if s.threshold < 0 {
		return Result{}, false
	}
	if m := s.fuzzy.Match(label, s.threshold); m != nil {
		s.logger.Debug("fuzzy category match",
			slog.String("label", label),
			slog.String("pattern", m.Pattern),
			slog.Int("score", m.Score))
		s.hit(m.MatchResult)
		return Result{Category: m.Category, CleanName: m.CleanName, Fuzzy: true}, true
	}
	return s.searchLabel(label)
}

func (s *Service) searchLabel(label string) (Result, bool) {
	if s.search == nil {
		return Result{}, false
	}
	hits, err := s.search.Search(label, 1)
	if err != nil {
		s.logger.Warn("category search failed", slog.String("label", label), slog.Any("error", err))
		return Result{}, false
	}
	if len(hits) == 0 {
		return Result{}, false
	}
	s.logger.Debug("search category match",
		slog.String("label", label),
		slog.String("pattern", hits[0].Pattern),
		slog.Float64("score", hits[0].Score))
	s.hit(hits[0].MatchResult)
	return Result{Category: hits[0].Category, CleanName: hits[0].CleanName, Fuzzy: true}, true
}

// AddRule registers a user rule and rebuilds the matchers.
func (s *Service) AddRule(rule Rule) {
	rule.User = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule)
	s.rebuild()
}

// rebuild must be called with mu held.
func (s *Service) rebuild() {
	s.engine.Build(s.rules)
	s.fuzzy.Build(s.rules)
	if s.search != nil {
		if err := s.search.Build(s.rules); err != nil {
			s.logger.Warn("category search index not rebuilt", slog.Any("error", err))
		}
	}
}

// RuleSource supplies persisted user rules.
type RuleSource interface {
	List(ctx context.Context) ([]Rule, error)
}

// LoadRules adds every rule from src as a user rule and rebuilds once.
func (s *Service) LoadRules(ctx context.Context, src RuleSource) (int, error) {
	rules, err := src.List(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rules {
		r.User = true
		s.rules = append(s.rules, r)
	}
	s.rebuild()
	return len(rules), nil
}

func (s *Service) hit(m MatchResult) {
	if !m.IsUser {
		return
	}
	s.hitsMu.Lock()
	defer s.hitsMu.Unlock()
	if s.hits == nil {
		s.hits = make(map[string]int)
	}
	s.hits[m.Pattern]++
}

// MatchRecorder persists how often user rules matched.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, pattern string, n int) error
}

// FlushMatches hands the user rule hits counted so far to rec and resets
// them. It returns the number of patterns recorded.
func (s *Service) FlushMatches(ctx context.Context, rec MatchRecorder) (int, error) {
	s.hitsMu.Lock()
	hits := s.hits
	s.hits = nil
	s.hitsMu.Unlock()

	var errs []error
	recorded := 0
	for pattern, n := range hits {
		if err := rec.RecordMatch(ctx, pattern, n); err != nil {
			errs = append(errs, err)
			continue
		}
		recorded++
	}
	return recorded, errors.Join(errs...)
}

// Mapper adapts the service to the category-mapper function the importer
// takes.
func (s *Service) Mapper() func(string) (string, bool) {
	return func(label string) (string, bool) {
		r, ok := s.Categorize(label)
		return r.Category, ok
	}
}
