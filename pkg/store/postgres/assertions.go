package postgres

import "github.com/meetingcore/notecore/pkg/store"

var (
	_ store.SubjectRepo        = (*SubjectRepo)(nil)
	_ store.SubjectHistoryRepo = (*SubjectHistoryRepo)(nil)
	_ store.ChunkRepo          = (*ChunkRepo)(nil)
	_ store.RelevanceLabelRepo = (*RelevanceLabelRepo)(nil)
	_ store.CandidateRepo      = (*CandidateRepo)(nil)
	_ store.SessionRepo        = (*SessionRepo)(nil)
	_ store.NoteRepo           = (*NoteRepo)(nil)
	_ store.TaskRepo           = (*TaskRepo)(nil)
)
