package album

import (
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/cluster"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	summaryMoments = 3
	summarySuffix  = " & more"
	untitledAlbum  = "A Trip Album"
)

type draftMoment struct {
	cluster    *cluster.MomentCluster
	ident      identification
	highlights []common.Highlight
	optionals  []common.PhotoRecord
}

func (d draftMoment) toMoment(loc *time.Location) common.Moment {
	optionalIDs := make([]string, len(d.optionals))
	for i, p := range d.optionals {
		optionalIDs[i] = p.ID
	}
	highlights := d.highlights
	if highlights == nil {
		highlights = []common.Highlight{}
	}
	candidates := d.ident.candidates
	if candidates == nil {
		candidates = []common.POICandidate{}
	}
	return common.Moment{
		ID:                    uuid.NewString(),
		Name:                  d.ident.name,
		Time:                  d.cluster.StartTime.In(loc).Format(timeLayout),
		RepresentativeAssetID: d.ident.representative.ID,
		Highlights:            highlights,
		OptionalAssetIDs:      optionalIDs,
		POICandidates:         candidates,
		Status:                d.ident.status,
	}
}

// buildAlbum groups moments by the calendar date of their start time.
func buildAlbum(moments []draftMoment, loc *time.Location) common.Album {
	if loc == nil {
		loc = time.Local
	}

	byDate := map[string][]common.Moment{}
	var dates []string
	for _, m := range moments {
		date := m.cluster.StartTime.In(loc).Format(dateLayout)
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], m.toMoment(loc))
	}
	// Layout dates sort lexically.
	slices.Sort(dates)

	days := make([]common.Day, 0, len(dates))
	for _, date := range dates {
		ms := byDate[date]
		if len(ms) == 0 {
			continue
		}
		days = append(days, common.Day{
			ID:         uuid.NewString(),
			Date:       date,
			CoverImage: ms[0].RepresentativeAssetID,
			Summary:    Summary(ms),
			Moments:    ms,
		})
	}

	return common.Album{
		ID:        uuid.NewString(),
		Title:     Title(days),
		Days:      days,
		CreatedAt: time.Now().UTC(),
	}
}

// Summary joins the names of the first three moments of a day.
func Summary(moments []common.Moment) string {
	n := min(len(moments), summaryMoments)
	names := make([]string, n)
	for i := range n {
		names[i] = moments[i].Name
	}
	return strings.Join(names, ", ") + summarySuffix
}

// Title names an album after the dates it covers.
func Title(days []common.Day) string {
	if len(days) == 0 {
		return untitledAlbum
	}
	first, last := days[0].Date, days[len(days)-1].Date
	if first == last {
		return "Trip of " + first
	}
	return "Trip: " + first + " - " + last
}
