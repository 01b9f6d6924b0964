package publish

import (
	"os"
	"time"
)

// DayStatus 某天的产出情况
type DayStatus struct {
	Date       string
	HasSummary bool
	HasContent bool // 播客素材 Markdown
	HasPodcast bool
}

// Recent 从 now 当天往前共 days 天的状态，从新到旧
func (p *Publisher) Recent(now time.Time, days int) []DayStatus {
	out := make([]DayStatus, 0, days)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -i).Format(time.DateOnly)
		out = append(out, DayStatus{
			Date:       date,
			HasSummary: p.summaries.Exists(date),
			HasContent: exists(ContentPath(p.podcastsDir, date)),
			HasPodcast: p.hasPodcast(date),
		})
	}
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
