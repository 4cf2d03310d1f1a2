package store

// The outbox must stay race-free against out-of-order local calls, so
// the dedup rules are expressed as pure decisions over the edits
// currently pending for one bookmark. The store applies the returned
// cancellations and, when write is true, records the new intent.

// resolveLikeEdits decides the outbox outcome of a like or unlike
// intent. A pending edit in the same direction makes the call a no-op;
// a pending edit in the opposite direction is cancelled and the two
// intents collapse to nothing.
func resolveLikeEdits(existing []PendingBookmarkEdit, want BookmarkEditKind) (cancel []int64, write bool) {
	opposite := BookmarkEditUnlike
	if want == BookmarkEditUnlike {
		opposite = BookmarkEditLike
	}

	write = true
	for _, e := range existing {
		switch e.Kind {
		case want:
			write = false
		case opposite:
			cancel = append(cancel, e.ID)
			write = false
		}
	}
	return cancel, write
}

// editsCancelledByDelete returns the pending edits a local delete wipes
// out. A pending like survives alongside the new pending delete: the
// like intent is still worth communicating if the remote item resurfaces.
func editsCancelledByDelete(existing []PendingBookmarkEdit) (cancel []int64) {
	for _, e := range existing {
		if e.Kind != BookmarkEditLike {
			cancel = append(cancel, e.ID)
		}
	}
	return cancel
}

// moveEditsToCancel returns prior pending moves; a new move always
// replaces them so at most one move is ever pending per bookmark.
func moveEditsToCancel(existing []PendingBookmarkEdit) (cancel []int64) {
	for _, e := range existing {
		if e.Kind == BookmarkEditMove {
			cancel = append(cancel, e.ID)
		}
	}
	return cancel
}
