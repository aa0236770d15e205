package services

import (
	"cinetalk/internal/store"
)

// toggleLike is the shared like/unlike core for discussions and replies.
// State is nothing but the presence of likes/{uid} under the subject: a
// point read decides the direction, so toggling twice from a settled state
// is self-inverse, and applying "like" twice is the same as once. There is
// no cross-client locking; concurrent writers racing on the single boolean
// key settle last-write-wins.
func toggleLike(st store.Store, subjectPath, uid string) (liked bool, err error) {
	likePath := subjectPath + "/likes/" + uid
	current, err := st.Get(likePath)
	if err != nil {
		return false, err
	}
	if current != nil {
		return false, st.Remove(likePath)
	}
	return true, st.Set(likePath, true)
}

// likeCount reads the current size of a subject's like set.
func likeCount(st store.Store, subjectPath string) (int, error) {
	likes, err := st.Query(subjectPath+"/likes", store.Query{})
	if err != nil {
		return 0, err
	}
	return len(likes), nil
}
