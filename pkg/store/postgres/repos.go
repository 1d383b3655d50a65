package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/store"
)

// NewRepos builds a store.Repos bundle backed by one open pool, the
// Postgres counterpart to store.NewMemoryRepos.
func NewRepos(pool *pgxpool.Pool) store.Repos {
	return store.Repos{
		Subjects:        NewSubjectRepo(pool),
		SubjectHistory:  NewSubjectHistoryRepo(pool),
		Chunks:          NewChunkRepo(pool),
		RelevanceLabels: NewRelevanceLabelRepo(pool),
		Candidates:      NewCandidateRepo(pool),
		Sessions:        NewSessionRepo(pool),
		Notes:           NewNoteRepo(pool),
		Tasks:           NewTaskRepo(pool),
	}
}
