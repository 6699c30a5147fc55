package cloudsync

import (
	"sort"

	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Merge combines two snapshots without losing a record.
//
// Records are united by id. When both sides hold an id, the copy modified
// later wins and the remote copy wins ties. Options keep the remote order,
// then local options whose type is not already present, up to the option
// limit. The remote profile wins but the avatar always stays local.
func Merge(local, remote *model.Snapshot) *model.Snapshot {
	byID := make(map[string]*model.PracticeRecord, len(local.Records)+len(remote.Records))
	for i := range local.Records {
		byID[local.Records[i].ID] = local.Records[i].Clone()
	}
	for i := range remote.Records {
		r := &remote.Records[i]
		if l, ok := byID[r.ID]; ok && l.LastModified().After(r.LastModified()) {
			continue
		}
		byID[r.ID] = r.Clone()
	}

	recs := make([]*model.PracticeRecord, 0, len(byID))
	for _, r := range byID {
		recs = append(recs, r)
	}
	journal.SortRecords(recs)

	out := &model.Snapshot{
		Version:    model.SnapshotVersion,
		Records:    make([]model.PracticeRecord, 0, len(recs)),
		Options:    mergeOptions(local.Options, remote.Options),
		Profile:    pickProfile(local.Profile, remote.Profile),
		ExportedAt: remote.ExportedAt,
	}
	for _, r := range recs {
		if r.Photos == nil {
			r.Photos = []string{}
		}
		out.Records = append(out.Records, *r)
	}
	return out
}

func mergeOptions(local, remote []model.PracticeOption) []model.PracticeOption {
	out := make([]model.PracticeOption, 0, model.MaxOptions)
	seenID := map[string]bool{}
	seenType := map[string]bool{}
	add := func(o model.PracticeOption) {
		if o.IsSynthetic() || len(out) >= model.MaxOptions {
			return
		}
		key := validate.FoldKey(o.TypeLabel())
		if seenID[o.ID] || seenType[key] {
			return
		}
		seenID[o.ID] = true
		seenType[key] = true
		out = append(out, o)
	}
	for _, o := range remote {
		add(o)
	}
	for _, o := range local {
		add(o)
	}
	return out
}

// pickProfile prefers the remote profile and keeps the local avatar.
func pickProfile(local, remote *model.UserProfile) *model.UserProfile {
	if remote == nil {
		if local == nil {
			return nil
		}
		p := *local
		return &p
	}
	p := *remote
	p.Avatar = ""
	if local != nil {
		p.Avatar = local.Avatar
	}
	return &p
}

// withLocalAvatar returns remote prepared for a local replace.
func withLocalAvatar(remote *model.Snapshot, local *model.Snapshot) *model.Snapshot {
	cp := *remote
	var lp *model.UserProfile
	if local != nil {
		lp = local.Profile
	}
	if remote.Profile != nil {
		cp.Profile = pickProfile(lp, remote.Profile)
	}
	return &cp
}

// sameIDs reports whether two snapshots hold exactly the same record ids.
func sameIDs(a, b *model.Snapshot) bool {
	if len(a.Records) != len(b.Records) {
		return false
	}
	ids := a.RecordIDs()
	for _, r := range b.Records {
		if _, ok := ids[r.ID]; !ok {
			return false
		}
	}
	return true
}

// changedRecords returns the records of next that are missing from or
// differ in prev, sorted by id.
func changedRecords(prev, next *model.Snapshot) []model.PracticeRecord {
	old := make(map[string]*model.PracticeRecord, len(prev.Records))
	for i := range prev.Records {
		old[prev.Records[i].ID] = &prev.Records[i]
	}
	var out []model.PracticeRecord
	for i := range next.Records {
		r := &next.Records[i]
		if o, ok := old[r.ID]; !ok || !o.Equal(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
