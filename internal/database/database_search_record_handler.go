package database

import (
	"fmt"

	"tubescout/internal/domain"
	"tubescout/internal/fetcher"

	"github.com/charmbracelet/log"
)

const defaultSearchHistoryLimit = 50

func CreateSearchRecord(record *domain.SearchRecord) error {
	if DB == nil {
		return fmt.Errorf("search record: database connection was not initialised")
	}
	return DB.Create(record).Error
}

// ListRecentSearches returns the newest records first, capped at limit.
// Non-positive limits fall back to the default page size.
func ListRecentSearches(limit int) ([]domain.SearchRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("search record: database connection was not initialised")
	}
	if limit <= 0 {
		limit = defaultSearchHistoryLimit
	}

	var records []domain.SearchRecord
	if err := DB.
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SearchSink persists every terminal result as a SearchRecord. It satisfies
// the fetcher sink contract.
type SearchSink struct{}

func (SearchSink) Record(res fetcher.Result) {
	record := domain.SearchRecord{
		Keyword:         res.Keyword,
		VideoID:         res.VideoID,
		Outcome:         res.Kind.String(),
		Detail:          res.Detail,
		DurationSeconds: res.Duration.Seconds(),
	}
	if err := CreateSearchRecord(&record); err != nil {
		// History is best effort; a down database never fails a search.
		log.Error("search record: persist result", "keyword", res.Keyword, "error", err)
	}
}
