package store

import "testing"

func TestResolveLikeEdits(t *testing.T) {
	tests := []struct {
		name       string
		existing   []PendingBookmarkEdit
		want       BookmarkEditKind
		wantCancel []int64
		wantWrite  bool
	}{
		{
			name:      "like with empty outbox writes",
			want:      BookmarkEditLike,
			wantWrite: true,
		},
		{
			name:      "unlike with empty outbox writes",
			want:      BookmarkEditUnlike,
			wantWrite: true,
		},
		{
			name: "like over pending like is a no-op",
			existing: []PendingBookmarkEdit{
				{ID: 3, Kind: BookmarkEditLike},
			},
			want:      BookmarkEditLike,
			wantWrite: false,
		},
		{
			name: "unlike over pending like collapses",
			existing: []PendingBookmarkEdit{
				{ID: 3, Kind: BookmarkEditLike},
			},
			want:       BookmarkEditUnlike,
			wantCancel: []int64{3},
			wantWrite:  false,
		},
		{
			name: "like over pending unlike collapses",
			existing: []PendingBookmarkEdit{
				{ID: 7, Kind: BookmarkEditUnlike},
			},
			want:       BookmarkEditLike,
			wantCancel: []int64{7},
			wantWrite:  false,
		},
		{
			name: "unrelated edits are ignored",
			existing: []PendingBookmarkEdit{
				{ID: 1, Kind: BookmarkEditMove},
				{ID: 2, Kind: BookmarkEditDelete},
			},
			want:      BookmarkEditLike,
			wantWrite: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cancel, write := resolveLikeEdits(tt.existing, tt.want)
			if write != tt.wantWrite {
				t.Errorf("write: expected %v, got %v", tt.wantWrite, write)
			}
			if !equalIDs(cancel, tt.wantCancel) {
				t.Errorf("cancel: expected %v, got %v", tt.wantCancel, cancel)
			}
		})
	}
}

func TestEditsCancelledByDelete(t *testing.T) {
	existing := []PendingBookmarkEdit{
		{ID: 1, Kind: BookmarkEditMove},
		{ID: 2, Kind: BookmarkEditLike},
		{ID: 3, Kind: BookmarkEditUnlike},
		{ID: 4, Kind: BookmarkEditAdd},
	}
	cancel := editsCancelledByDelete(existing)
	if !equalIDs(cancel, []int64{1, 3, 4}) {
		t.Errorf("Expected everything but the like cancelled, got %v", cancel)
	}
}

func TestMoveEditsToCancel(t *testing.T) {
	existing := []PendingBookmarkEdit{
		{ID: 1, Kind: BookmarkEditMove},
		{ID: 2, Kind: BookmarkEditLike},
		{ID: 3, Kind: BookmarkEditMove},
	}
	cancel := moveEditsToCancel(existing)
	if !equalIDs(cancel, []int64{1, 3}) {
		t.Errorf("Expected only the moves cancelled, got %v", cancel)
	}
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
