package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/repository"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxKeywordWords      = 5
	partialMatchMinScore = 0.5
	fuzzyMatchMinScore   = 0.75
	historyBonusPerHit   = 0.05
	historyBonusMax      = 0.2
)

// 地址匹配方式
const (
	AddressMatchExact   = "exact"
	AddressMatchPartial = "partial"
	AddressMatchFuzzy   = "fuzzy"
)

var addressStopWords = map[string]struct{}{
	"va": {}, "o": {}, "tai": {}, "tren": {}, "duoi": {}, "ben": {},
	"canh": {}, "gan": {}, "sau": {}, "truoc": {}, "doi": {}, "dien": {},
}

var (
	localityMarkers  = []string{"thon", "xom", "ap", "khom", "khu", "to", "cum", "bon", "lang"}
	localityPatterns = compileLocalityPatterns()
	digitPattern     = regexp.MustCompile(`\d`)
	numberPattern    = regexp.MustCompile(`^\d+$`)
)

func compileLocalityPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(localityMarkers))
	for _, marker := range localityMarkers {
		patterns = append(patterns, regexp.MustCompile(`\b`+marker+`\b`))
	}
	return patterns
}

// AddressLearningService 从历史地址学习 街道 -> 坊 的映射
type AddressLearningService struct {
	repo repository.AddressLearningRepository
}

// NewAddressLearningService 创建地址学习服务
func NewAddressLearningService(repo repository.AddressLearningRepository) *AddressLearningService {
	return &AddressLearningService{repo: repo}
}

// LearnResult 学习结果
type LearnResult struct {
	KeywordsSaved int      `json:"keywords_saved"`
	Keywords      []string `json:"keywords"`
}

// AddressMatch 搜索结果
type AddressMatch struct {
	Found          bool    `json:"found"`
	WardID         string  `json:"ward_id,omitempty"`
	WardName       string  `json:"ward_name,omitempty"`
	Confidence     int     `json:"confidence,omitempty"`
	LastUsed       int64   `json:"last_used,omitempty"`
	MatchType      string  `json:"match_type,omitempty"`
	MatchedKeyword string  `json:"matched_keyword,omitempty"`
	Score          float64 `json:"score,omitempty"`
	Similarity     float64 `json:"similarity,omitempty"`
}

// foldVietnamese 小写并去除声调，đ 转 d
func foldVietnamese(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(folded, "đ", "d"))
}

// ExtractAddressKeywords 提取地址关键词
func ExtractAddressKeywords(streetAddress string) []string {
	normalized := foldVietnamese(streetAddress)
	if normalized == "" {
		return nil
	}

	start := -1
	for _, pattern := range localityPatterns {
		loc := pattern.FindStringIndex(normalized)
		if loc != nil && (start == -1 || loc[0] < start) {
			start = loc[0]
		}
	}

	var words []string
	if start >= 0 {
		words = strings.Fields(normalized[start:])
	} else {
		for _, w := range strings.Fields(normalized) {
			if len(w) < 2 {
				continue
			}
			if _, stop := addressStopWords[w]; stop {
				continue
			}
			words = append(words, w)
		}
	}
	if len(words) > maxKeywordWords {
		words = words[:maxKeywordWords]
	}
	if len(words) == 0 {
		return nil
	}

	candidates := make([]string, 0, 4)
	if len(words) <= 4 {
		candidates = append(candidates, strings.Join(words, " "))
	}
	if len(words) >= 2 {
		candidates = append(candidates, strings.Join(words[:2], " "))
		candidates = append(candidates, strings.Join(words[len(words)-2:], " "))
	}
	hasNumber := false
	for _, w := range words {
		if digitPattern.MatchString(w) {
			hasNumber = true
			break
		}
	}
	if hasNumber && len(words) >= 3 {
		var noNum []string
		for _, w := range words {
			if !numberPattern.MatchString(w) {
				noNum = append(noNum, w)
			}
		}
		if len(noNum) >= 2 {
			if len(noNum) > 3 {
				noNum = noNum[:3]
			}
			candidates = append(candidates, strings.Join(noNum, " "))
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, k := range candidates {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}
	return keywords
}

// Learn 记录一次地址输入
func (s *AddressLearningService) Learn(ctx context.Context, streetAddress, districtID, wardID, wardName string) (*LearnResult, error) {
	districtID = strings.TrimSpace(districtID)
	wardID = strings.TrimSpace(wardID)
	wardName = strings.TrimSpace(wardName)
	if strings.TrimSpace(streetAddress) == "" || districtID == "" || wardID == "" || wardName == "" {
		return nil, ErrAddressLearnFields
	}
	keywords := ExtractAddressKeywords(streetAddress)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	for _, keyword := range keywords {
		if err := s.repo.Upsert(keyword, districtID, wardID, wardName); err != nil {
			return nil, err
		}
	}
	logger.FromContext(ctx).Debugw("address_learned", "district_id", districtID, "ward_id", wardID, "keywords", len(keywords))
	return &LearnResult{KeywordsSaved: len(keywords), Keywords: keywords}, nil
}

// Search 三级匹配：精确、词重叠、编辑距离
func (s *AddressLearningService) Search(ctx context.Context, address, districtID string) (*AddressMatch, error) {
	districtID = strings.TrimSpace(districtID)
	keywords := ExtractAddressKeywords(address)
	if len(keywords) == 0 || districtID == "" {
		return &AddressMatch{Found: false}, nil
	}
	log := logger.FromContext(ctx)

	ordered := append([]string(nil), keywords...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })
	for _, keyword := range ordered {
		row, err := s.repo.FindExact(keyword, districtID)
		if err != nil {
			return nil, err
		}
		if row != nil {
			log.Debugw("address_match_exact", "keyword", keyword, "ward_id", row.WardID)
			return &AddressMatch{
				Found:          true,
				WardID:         row.WardID,
				WardName:       row.WardName,
				Confidence:     row.MatchCount,
				LastUsed:       row.LastUsedAt,
				MatchType:      AddressMatchExact,
				MatchedKeyword: keyword,
			}, nil
		}
	}

	rows, err := s.repo.ListByDistrict(districtID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &AddressMatch{Found: false}, nil
	}

	bestIdx, bestScore := -1, 0.0
	for _, keyword := range ordered {
		inputWords := strings.Split(keyword, " ")
		for i := range rows {
			dbWords := strings.Split(rows[i].Keywords, " ")
			matched := 0
			for _, w := range inputWords {
				if containsString(dbWords, w) {
					matched++
				}
			}
			score := float64(matched) / float64(maxInt(len(inputWords), len(dbWords)))
			bonus := float64(rows[i].MatchCount) * historyBonusPerHit
			if bonus > historyBonusMax {
				bonus = historyBonusMax
			}
			final := score + bonus
			if final > bestScore && final >= partialMatchMinScore {
				bestIdx, bestScore = i, final
			}
		}
	}
	if bestIdx >= 0 {
		row := rows[bestIdx]
		log.Debugw("address_match_partial", "score", round2(bestScore), "ward_id", row.WardID)
		return &AddressMatch{
			Found:      true,
			WardID:     row.WardID,
			WardName:   row.WardName,
			Confidence: row.MatchCount,
			MatchType:  AddressMatchPartial,
			Score:      bestScore,
		}, nil
	}

	bestIdx, bestScore = -1, 0.0
	for _, keyword := range ordered {
		for i := range rows {
			similarity := stringSimilarity(keyword, rows[i].Keywords)
			if similarity > bestScore && similarity >= fuzzyMatchMinScore {
				bestIdx, bestScore = i, similarity
			}
		}
	}
	if bestIdx >= 0 {
		row := rows[bestIdx]
		log.Debugw("address_match_fuzzy", "similarity", round2(bestScore), "ward_id", row.WardID)
		return &AddressMatch{
			Found:      true,
			WardID:     row.WardID,
			WardName:   row.WardName,
			Confidence: row.MatchCount,
			MatchType:  AddressMatchFuzzy,
			Similarity: bestScore,
		}, nil
	}
	return &AddressMatch{Found: false}, nil
}

// Stats 学习统计
func (s *AddressLearningService) Stats() (repository.AddressLearningStats, error) {
	return s.repo.Stats()
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// stringSimilarity 编辑距离按较长串归一到 0~1，1 表示完全相同
func stringSimilarity(a, b string) float64 {
	longest := maxInt(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
