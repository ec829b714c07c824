package gridtap

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/buntdb"
)

type StatsRepository interface {
	GetDailyStats(date Date) (DailyStats, error)
	SaveDailyStats(s DailyStats) error
}

func NewStatsRepository(db *buntdb.DB) StatsRepository {
	return &statsRepository{db: db}
}

type statsRepository struct {
	db *buntdb.DB
}

const statsKeyPrefix = "stats:"

func statsKey(date Date) string {
	return statsKeyPrefix + string(date)
}

func (r *statsRepository) SaveDailyStats(s DailyStats) error {
	return r.db.Update(func(tx *buntdb.Tx) error {
		bs, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(statsKey(s.Date), string(bs), nil)
		return err
	})
}

// GetDailyStats returns zero stats for a date with nothing recorded.
func (r *statsRepository) GetDailyStats(date Date) (DailyStats, error) {
	s := DailyStats{Date: date}
	err := r.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(statsKey(date))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &s)
	})
	if err != nil {
		return DailyStats{}, err
	}
	return s, nil
}
