package album

import (
	"errors"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

var (
	ErrMomentNotFound = errors.New("moment not found")
	ErrInvalidEdit    = errors.New("invalid moment edit")
)

// AssetMove moves one photo of a moment into the highlight HighlightID, or
// into the optional photos when HighlightID is empty.
type AssetMove struct {
	AssetID     string `json:"asset_id" validate:"required"`
	HighlightID string `json:"highlight_id"`
}

// MomentEdit is a user correction of a generated moment. Nil fields are
// left untouched.
type MomentEdit struct {
	Name                  *string     `json:"name,omitempty"`
	CandidateID           *string     `json:"poi_candidate_id,omitempty"`
	RepresentativeAssetID *string     `json:"representative_asset_id,omitempty"`
	Caption               *string     `json:"caption,omitempty"`
	VoiceMemoPath         *string     `json:"voice_memo_path,omitempty"`
	Moves                 []AssetMove `json:"moves,omitempty" validate:"omitempty,dive"`
}

// EditMoment applies edit to the moment momentID of a. The moment is only
// modified when the whole edit is valid.
func EditMoment(a *common.Album, momentID string, edit MomentEdit) (*common.Moment, error) {
	target := a.FindMoment(momentID)
	if target == nil {
		return nil, ErrMomentNotFound
	}

	m := cloneMoment(*target)

	if edit.CandidateID != nil {
		i := slices.IndexFunc(m.POICandidates, func(c common.POICandidate) bool { return c.ID == *edit.CandidateID })
		if i < 0 {
			return nil, fmt.Errorf("%w: unknown place candidate %q", ErrInvalidEdit, *edit.CandidateID)
		}
		m.Name = m.POICandidates[i].Name
		m.Status = common.MomentIdentified
	}
	if edit.Name != nil {
		name := util.SanitizeText(*edit.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is empty", ErrInvalidEdit)
		}
		m.Name = name
	}
	for _, mv := range edit.Moves {
		if err := moveAsset(&m, mv); err != nil {
			return nil, err
		}
	}
	if edit.RepresentativeAssetID != nil {
		if !slices.Contains(m.AllAssetIDs(), *edit.RepresentativeAssetID) {
			return nil, fmt.Errorf("%w: %q is not a photo of this moment", ErrInvalidEdit, *edit.RepresentativeAssetID)
		}
		m.RepresentativeAssetID = *edit.RepresentativeAssetID
	}
	if edit.Caption != nil {
		m.Caption = util.SanitizeText(*edit.Caption)
	}
	if edit.VoiceMemoPath != nil {
		m.VoiceMemoPath = util.SanitizeText(*edit.VoiceMemoPath)
	}

	*target = m
	return target, nil
}

func cloneMoment(m common.Moment) common.Moment {
	out := m
	out.Highlights = make([]common.Highlight, len(m.Highlights))
	for i, h := range m.Highlights {
		h.AssetIDs = slices.Clone(h.AssetIDs)
		out.Highlights[i] = h
	}
	out.OptionalAssetIDs = slices.Clone(m.OptionalAssetIDs)
	if out.OptionalAssetIDs == nil {
		out.OptionalAssetIDs = []string{}
	}
	out.POICandidates = slices.Clone(m.POICandidates)
	return out
}

// moveAsset keeps every photo in exactly one bucket. A highlight left with
// a single photo is dissolved into the optionals.
func moveAsset(m *common.Moment, mv AssetMove) error {
	dest := -1
	if mv.HighlightID != "" {
		dest = slices.IndexFunc(m.Highlights, func(h common.Highlight) bool { return h.ID == mv.HighlightID })
		if dest < 0 {
			return fmt.Errorf("%w: unknown highlight %q", ErrInvalidEdit, mv.HighlightID)
		}
		if slices.Contains(m.Highlights[dest].AssetIDs, mv.AssetID) {
			return nil
		}
	} else if slices.Contains(m.OptionalAssetIDs, mv.AssetID) {
		return nil
	}

	found := false
	if i := slices.Index(m.OptionalAssetIDs, mv.AssetID); i >= 0 {
		m.OptionalAssetIDs = slices.Delete(m.OptionalAssetIDs, i, i+1)
		found = true
	}
	for h := range m.Highlights {
		if i := slices.Index(m.Highlights[h].AssetIDs, mv.AssetID); i >= 0 {
			m.Highlights[h].AssetIDs = slices.Delete(m.Highlights[h].AssetIDs, i, i+1)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q is not a photo of this moment", ErrInvalidEdit, mv.AssetID)
	}

	if dest >= 0 {
		m.Highlights[dest].AssetIDs = append(m.Highlights[dest].AssetIDs, mv.AssetID)
	} else {
		m.OptionalAssetIDs = append(m.OptionalAssetIDs, mv.AssetID)
	}

	kept := m.Highlights[:0]
	for _, h := range m.Highlights {
		switch len(h.AssetIDs) {
		case 0:
			continue
		case 1:
			m.OptionalAssetIDs = append(m.OptionalAssetIDs, h.AssetIDs[0])
			continue
		}
		if !slices.Contains(h.AssetIDs, h.RepresentativeAssetID) {
			h.RepresentativeAssetID = h.AssetIDs[0]
		}
		kept = append(kept, h)
	}
	m.Highlights = kept
	return nil
}
