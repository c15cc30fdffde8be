package application

import (
	"context"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// mockLLM returns a canned response or error.
type mockLLM struct {
	response   string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (m *mockLLM) Generate(_ context.Context, system, user string, _ int) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockHistoryStore records writes and serves canned query results.
type mockHistoryStore struct {
	prs      []model.HistoricalPR
	files    []model.HistoricalFile
	reviews  []model.HistoricalReview
	comments []model.HistoricalComment

	lastIngest map[string]string

	stats              map[string]model.ReviewerStats
	commentsByReviewer map[string][]model.HistoricalComment
	topReviewers       []model.ReviewerActivity
	pathReviewers      []model.ReviewerActivity
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{
		lastIngest:         make(map[string]string),
		stats:              make(map[string]model.ReviewerStats),
		commentsByReviewer: make(map[string][]model.HistoricalComment),
	}
}

func (m *mockHistoryStore) UpsertPR(_ context.Context, pr model.HistoricalPR) (int64, error) {
	m.prs = append(m.prs, pr)
	return int64(len(m.prs)), nil
}

func (m *mockHistoryStore) InsertPRFiles(_ context.Context, prID int64, files []model.HistoricalFile) error {
	for _, f := range files {
		f.PRID = prID
		m.files = append(m.files, f)
	}
	return nil
}

func (m *mockHistoryStore) InsertReview(_ context.Context, review model.HistoricalReview) error {
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockHistoryStore) InsertReviewComment(_ context.Context, comment model.HistoricalComment) error {
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockHistoryStore) GetLastIngest(_ context.Context, repo string) (string, error) {
	return m.lastIngest[repo], nil
}

func (m *mockHistoryStore) SetLastIngest(_ context.Context, repo, timestamp string) error {
	m.lastIngest[repo] = timestamp
	return nil
}

func (m *mockHistoryStore) GetReviewerStats(_ context.Context, _, reviewer string) (model.ReviewerStats, error) {
	return m.stats[reviewer], nil
}

func (m *mockHistoryStore) GetReviewerComments(_ context.Context, _, reviewer string, limit int) ([]model.HistoricalComment, error) {
	comments := m.commentsByReviewer[reviewer]
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (m *mockHistoryStore) GetTopReviewers(_ context.Context, _ string, limit int) ([]model.ReviewerActivity, error) {
	top := m.topReviewers
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (m *mockHistoryStore) GetReviewersForPaths(_ context.Context, _ string, paths []string, limit int) ([]model.ReviewerActivity, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := m.pathReviewers
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockOwnershipStore matches rules by simple prefix.
type mockOwnershipStore struct {
	rules    []model.OwnershipRule
	replaced bool
}

func (m *mockOwnershipStore) ReplaceRules(_ context.Context, repo string, rules []model.OwnershipRule) error {
	m.replaced = true
	m.rules = rules
	return nil
}

func (m *mockOwnershipStore) GetOwnersForPath(_ context.Context, _, path string) ([]model.OwnershipRule, error) {
	var out []model.OwnershipRule
	for _, r := range m.rules {
		prefix := strings.TrimSuffix(strings.TrimPrefix(r.PathPattern, "/"), "/")
		if prefix == "" || strings.HasPrefix(path, prefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockCardStore is an in-memory card map keyed by reviewer.
type mockCardStore struct {
	cards    map[string]model.ReviewerSkillCard
	upserted []string
}

func newMockCardStore() *mockCardStore {
	return &mockCardStore{cards: make(map[string]model.ReviewerSkillCard)}
}

func (m *mockCardStore) UpsertCard(_ context.Context, _ string, card model.ReviewerSkillCard) error {
	m.cards[card.Reviewer] = card
	m.upserted = append(m.upserted, card.Reviewer)
	return nil
}

func (m *mockCardStore) GetCard(_ context.Context, _, reviewer string) (*model.ReviewerSkillCard, error) {
	card, ok := m.cards[reviewer]
	if !ok {
		return nil, nil
	}
	return &card, nil
}

func (m *mockCardStore) GetAllCards(_ context.Context, _ string) ([]model.ReviewerSkillCard, error) {
	out := make([]model.ReviewerSkillCard, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	return out, nil
}

// mockGitHubClient serves canned PR data.
type mockGitHubClient struct {
	title string
	body  string
	diff  string
	files []model.ChangedFile

	closedPRs        []model.HistoricalPR
	reviewsByNumber  map[int][]model.HistoricalReview
	commentsByNumber map[int][]model.HistoricalComment
	fileContents     map[string]string

	filesErr error
}

func (m *mockGitHubClient) FetchPR(_ context.Context, _ string, _ int) (string, string, error) {
	return m.title, m.body, nil
}

func (m *mockGitHubClient) FetchPRDiff(_ context.Context, _ string, _ int) (string, error) {
	return m.diff, nil
}

func (m *mockGitHubClient) FetchPRFiles(_ context.Context, _ string, _ int) ([]model.ChangedFile, error) {
	if m.filesErr != nil {
		return nil, m.filesErr
	}
	return m.files, nil
}

func (m *mockGitHubClient) FetchClosedPRs(_ context.Context, _ string, maxItems int) ([]model.HistoricalPR, error) {
	prs := m.closedPRs
	if len(prs) > maxItems {
		prs = prs[:maxItems]
	}
	return prs, nil
}

func (m *mockGitHubClient) FetchReviews(_ context.Context, _ string, number int) ([]model.HistoricalReview, error) {
	return m.reviewsByNumber[number], nil
}

func (m *mockGitHubClient) FetchReviewComments(_ context.Context, _ string, number int) ([]model.HistoricalComment, error) {
	return m.commentsByNumber[number], nil
}

func (m *mockGitHubClient) FetchFileContent(_ context.Context, _, path string) (string, error) {
	return m.fileContents[path], nil
}
