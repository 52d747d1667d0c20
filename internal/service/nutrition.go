package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// Fixed replies of the nutrition action
const (
	MsgAskFood              = "Which food?"
	MsgNutritionUnavailable = "Nutrition database unavailable."
	MsgNoNutrition          = "No nutrition data found."
)

// DefaultThreshold is the minimum fuzzy similarity accepted as a match
const DefaultThreshold = 0.6

// MaxQueryRunes bounds a normalized query; longer ones never match
const MaxQueryRunes = 200

// NutritionIndex is an immutable lookup table keyed by normalized food name
type NutritionIndex struct {
	keys    []string
	records []model.NutritionRecord
	byKey   map[string]int
}

// NewNutritionIndex builds an index from dataset rows. When two rows normalize
// to the same key the first one wins; rows that normalize to nothing are dropped.
func NewNutritionIndex(records []model.NutritionRecord) *NutritionIndex {
	idx := &NutritionIndex{byKey: make(map[string]int, len(records))}
	for _, rec := range records {
		key := NormalizeFoodName(rec.FoodName)
		if key == "" {
			continue
		}
		if _, dup := idx.byKey[key]; dup {
			continue
		}
		idx.byKey[key] = len(idx.keys)
		idx.keys = append(idx.keys, key)
		idx.records = append(idx.records, rec.Clone())
	}
	return idx
}

// Len returns the number of distinct foods
func (idx *NutritionIndex) Len() int {
	return len(idx.keys)
}

// Lookup resolves query by exact, then substring, then fuzzy match.
// threshold is the minimum fuzzy similarity in [0,1].
func (idx *NutritionIndex) Lookup(query string, threshold float64) (*model.NutritionMatch, error) {
	q := NormalizeFoodName(query)
	if q == "" || utf8.RuneCountInString(q) > MaxQueryRunes {
		return nil, ErrNoMatch
	}

	if i, ok := idx.byKey[q]; ok {
		return idx.match(i, model.MatchExact, 1), nil
	}

	// whole-word containment beats a match inside a word, then the closest key wins;
	// earlier rows win ties
	best, bestScore, bestWord := -1, 0.0, false
	for i, key := range idx.keys {
		if !strings.Contains(key, q) {
			continue
		}
		word := containsWords(key, q)
		score := similarity(q, key)
		if best < 0 || (word && !bestWord) || (word == bestWord && score > bestScore) {
			best, bestScore, bestWord = i, score, word
		}
	}
	if best >= 0 {
		return idx.match(best, model.MatchSubstring, bestScore), nil
	}

	best, bestScore = -1, 0.0
	for i, key := range idx.keys {
		if score := similarity(q, key); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= threshold {
		return idx.match(best, model.MatchFuzzy, bestScore), nil
	}

	return nil, ErrNoMatch
}

func (idx *NutritionIndex) match(i int, kind model.MatchKind, score float64) *model.NutritionMatch {
	return &model.NutritionMatch{
		Record:     idx.records[i].Clone(),
		Kind:       kind,
		Similarity: score,
	}
}

// containsWords reports whether q occurs in key on word boundaries
func containsWords(key, q string) bool {
	return strings.Contains(" "+key+" ", " "+q+" ")
}

// similarity is 1 - editDistance/longerLength, measured in runes
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// DatasetLoader produces the raw dataset rows
type DatasetLoader func(ctx context.Context) ([]model.NutritionRecord, error)

// NutritionService answers food lookups against a lazily loaded dataset
type NutritionService struct {
	load      DatasetLoader
	threshold float64

	mu    sync.Mutex
	index *NutritionIndex
}

// NewNutritionService creates a NutritionService. The dataset is loaded on first use.
func NewNutritionService(load DatasetLoader, threshold float64) *NutritionService {
	return &NutritionService{load: load, threshold: threshold}
}

// Preload loads the dataset now instead of on the first lookup
func (s *NutritionService) Preload(ctx context.Context) error {
	_, err := s.ensureIndex(ctx)
	return err
}

// ensureIndex loads the dataset once. A failed load is retried on the next call.
func (s *NutritionService) ensureIndex(ctx context.Context) (*NutritionIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset has no usable rows", ErrDatasetUnavailable)
	}

	s.index = NewNutritionIndex(records)
	logger.Info("nutrition index ready", zap.Int("foods", s.index.Len()))
	return s.index, nil
}

// Lookup finds the dataset record for a free-text food name
func (s *NutritionService) Lookup(ctx context.Context, food string) (*model.NutritionMatch, error) {
	if strings.TrimSpace(food) == "" {
		return nil, ErrMissingSlot
	}

	idx, err := s.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}

	match, err := idx.Lookup(food, s.threshold)
	if err != nil {
		logger.Debug("no nutrition match", zap.String("query", food))
		return nil, err
	}

	logger.Debug("nutrition match",
		zap.String("query", food),
		zap.String("food", match.Record.FoodName),
		zap.String("kind", string(match.Kind)),
		zap.Float64("similarity", match.Similarity),
	)
	return match, nil
}

// NutritionMessage turns a lookup outcome into the reply shown to the user
func NutritionMessage(match *model.NutritionMatch, err error) string {
	switch {
	case errors.Is(err, ErrMissingSlot):
		return MsgAskFood
	case errors.Is(err, ErrDatasetUnavailable):
		return MsgNutritionUnavailable
	case err != nil || match == nil:
		return MsgNoNutrition
	}
	return FormatNutrition(match.Record)
}

// FormatNutrition renders a record as a per-100g summary
func FormatNutrition(rec model.NutritionRecord) string {
	parts := []string{fmt.Sprintf("Calories: %s kcal", formatAmount(rec.Calories))}

	labels := map[string]string{
		model.MacroProtein: "Protein",
		model.MacroCarbs:   "Carbs",
		model.MacroFat:     "Fat",
	}
	for _, name := range model.MacroOrder {
		if v, ok := rec.Macros.Get(name); ok && v != 0 {
			parts = append(parts, fmt.Sprintf("%s: %s g", labels[name], formatAmount(v)))
		}
	}

	return fmt.Sprintf("Nutrition for %s (per 100g):\n- %s", rec.FoodName, strings.Join(parts, "\n- "))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
