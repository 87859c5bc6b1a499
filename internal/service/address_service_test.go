package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopvd/backoffice/internal/repository"
)

func TestExtractAddressKeywords(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"Thôn Đông Hòa", []string{"thon dong hoa", "thon dong", "dong hoa"}},
		{"123 Nguyễn Trãi", []string{"123 nguyen trai", "123 nguyen", "nguyen trai"}},
		{"Số 5 đường X, thôn Phú Mỹ", []string{"thon phu my", "thon phu", "phu my"}},
		{"a b", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := ExtractAddressKeywords(tc.input)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("keywords(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestStringSimilarity(t *testing.T) {
	if got := stringSimilarity("phuu dongg", "phu dong"); got < 0.79 || got > 0.81 {
		t.Fatalf("expected 0.8, got %v", got)
	}
	if got := stringSimilarity("", ""); got != 1 {
		t.Fatalf("expected 1 for empty strings, got %v", got)
	}
	if got := stringSimilarity("kitten", "sitting"); got < 0.57 || got > 0.58 {
		t.Fatalf("expected 1-3/7, got %v", got)
	}
	// 按 rune 计数，带声调的字符算一个
	if got := stringSimilarity("phường", "phuong"); got < 0.66 || got > 0.67 {
		t.Fatalf("expected 1-2/6, got %v", got)
	}
}

func TestAddressLearningTiers(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewAddressLearningService(repository.NewAddressLearningRepository(db))
	ctx := context.Background()

	if _, err := svc.Learn(ctx, "", "D1", "W1", "Phường A"); !errors.Is(err, ErrAddressLearnFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if _, err := svc.Learn(ctx, "a b", "D1", "W1", "Phường A"); !errors.Is(err, ErrNoKeywords) {
		t.Fatalf("expected no keywords, got %v", err)
	}

	learned, err := svc.Learn(ctx, "Thôn Đông Hòa", "D1", "W1", "Phường A")
	if err != nil || learned.KeywordsSaved != 3 {
		t.Fatalf("learn failed: %+v err=%v", learned, err)
	}
	if _, err := svc.Learn(ctx, "thon dong hoa", "D1", "W1", "Phường A"); err != nil {
		t.Fatalf("second learn failed: %v", err)
	}
	if _, err := svc.Learn(ctx, "Làng Phù Đổng", "D1", "W2", "Phường B"); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	exact, err := svc.Search(ctx, "THÔN ĐÔNG HÒA", "D1")
	if err != nil || !exact.Found || exact.MatchType != AddressMatchExact {
		t.Fatalf("expected exact match, got %+v err=%v", exact, err)
	}
	if exact.MatchedKeyword != "thon dong hoa" || exact.Confidence != 2 || exact.WardID != "W1" {
		t.Fatalf("unexpected exact match: %+v", exact)
	}

	partial, err := svc.Search(ctx, "Xóm Đông Hòa Mới", "D1")
	if err != nil || !partial.Found || partial.MatchType != AddressMatchPartial || partial.WardID != "W1" {
		t.Fatalf("expected partial match, got %+v err=%v", partial, err)
	}

	fuzzy, err := svc.Search(ctx, "Phuu Dongg", "D1")
	if err != nil || !fuzzy.Found || fuzzy.MatchType != AddressMatchFuzzy || fuzzy.WardID != "W2" {
		t.Fatalf("expected fuzzy match, got %+v err=%v", fuzzy, err)
	}

	miss, err := svc.Search(ctx, "Thôn Đông Hòa", "D9")
	if err != nil || miss.Found {
		t.Fatalf("expected no match in other district, got %+v err=%v", miss, err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalMappings != 6 || stats.DistrictsCovered != 1 || stats.MaxConfidence != 2 || stats.TotalMatches != 9 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
