package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/eduline/homework-service/internal/models"
	"github.com/eduline/homework-service/internal/service/integration"
)

// In-memory repository fakes. They implement just enough of the repository
// contracts to drive the services under test.

type fakeAccessRepo struct {
	mu           sync.Mutex
	branchGrants map[string]map[string]bool
	classGrants  map[string]map[string]bool
	leads        map[string]map[string]bool
	enrollments  map[string]map[string]bool
}

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{
		branchGrants: map[string]map[string]bool{},
		classGrants:  map[string]map[string]bool{},
		leads:        map[string]map[string]bool{},
		enrollments:  map[string]map[string]bool{},
	}
}

func keysOf(set map[string]bool) []string {
	out := []string{}
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (f *fakeAccessRepo) TeacherBranchIDs(_ context.Context, teacherID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return keysOf(f.branchGrants[teacherID]), nil
}

func (f *fakeAccessRepo) TeacherClassIDs(_ context.Context, teacherID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return keysOf(f.classGrants[teacherID]), nil
}

func (f *fakeAccessRepo) TeacherLeadClassIDs(_ context.Context, teacherID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return keysOf(f.leads[teacherID]), nil
}

func (f *fakeAccessRepo) HasClassAccess(_ context.Context, teacherID, classID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classGrants[teacherID][classID], nil
}

func (f *fakeAccessRepo) IsLead(_ context.Context, teacherID, classID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[teacherID][classID], nil
}

func (f *fakeAccessRepo) ReplaceTeacherAuthority(_ context.Context, teacherID string, branchIDs, classIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	branches := map[string]bool{}
	for _, id := range branchIDs {
		branches[id] = true
	}
	f.branchGrants[teacherID] = branches

	classes := map[string]bool{}
	for _, id := range classIDs {
		classes[id] = true
	}
	f.classGrants[teacherID] = classes

	for classID := range f.leads[teacherID] {
		if !classes[classID] {
			delete(f.leads[teacherID], classID)
		}
	}
	return nil
}

func (f *fakeAccessRepo) GrantClassAccess(_ context.Context, teacherID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classGrants[teacherID] == nil {
		f.classGrants[teacherID] = map[string]bool{}
	}
	f.classGrants[teacherID][classID] = true
	return nil
}

func (f *fakeAccessRepo) RevokeClassAccess(_ context.Context, teacherID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.classGrants[teacherID], classID)
	delete(f.leads[teacherID], classID)
	return nil
}

func (f *fakeAccessRepo) GrantLead(_ context.Context, teacherID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leads[teacherID] == nil {
		f.leads[teacherID] = map[string]bool{}
	}
	f.leads[teacherID][classID] = true
	return nil
}

func (f *fakeAccessRepo) RevokeLead(_ context.Context, teacherID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.leads[teacherID], classID)
	return nil
}

func (f *fakeAccessRepo) EnrollStudent(_ context.Context, studentID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enrollments[studentID] == nil {
		f.enrollments[studentID] = map[string]bool{}
	}
	f.enrollments[studentID][classID] = true
	return nil
}

func (f *fakeAccessRepo) UnenrollStudent(_ context.Context, studentID, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.enrollments[studentID], classID)
	return nil
}

func (f *fakeAccessRepo) IsStudentEnrolled(_ context.Context, studentID, classID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrollments[studentID][classID], nil
}

func (f *fakeAccessRepo) StudentClassIDs(_ context.Context, studentID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return keysOf(f.enrollments[studentID]), nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Lifecycle == models.LifecycleActive {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetActiveByRole(_ context.Context, role models.Role, _, _ int) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Role == role && u.Lifecycle == models.LifecycleActive {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Hide(_ context.Context, id string) error {
	if u, ok := f.users[id]; ok {
		u.Lifecycle = models.LifecycleHidden
	}
	return nil
}

func (f *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

type fakeClassRepo struct {
	classes map[string]*models.Class
}

func newFakeClassRepo(classes ...*models.Class) *fakeClassRepo {
	f := &fakeClassRepo{classes: map[string]*models.Class{}}
	for _, c := range classes {
		f.classes[c.ID] = c
	}
	return f
}

func (f *fakeClassRepo) Create(_ context.Context, class *models.Class) error {
	f.classes[class.ID] = class
	return nil
}

func (f *fakeClassRepo) GetByID(_ context.Context, id string) (*models.Class, error) {
	return f.classes[id], nil
}

func (f *fakeClassRepo) GetAll(_ context.Context, _, _ int) ([]models.Class, int, error) {
	var out []models.Class
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeClassRepo) GetByIDs(_ context.Context, ids []string) ([]models.Class, error) {
	var out []models.Class
	for _, id := range ids {
		if c, ok := f.classes[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClassRepo) Update(_ context.Context, class *models.Class) error {
	f.classes[class.ID] = class
	return nil
}

func (f *fakeClassRepo) Hide(_ context.Context, id string) error {
	if c, ok := f.classes[id]; ok {
		c.Lifecycle = models.LifecycleHidden
	}
	return nil
}

func (f *fakeClassRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.classes[id]
	return ok, nil
}

type fakeBranchRepo struct {
	branches map[string]*models.Branch
}

func newFakeBranchRepo(branches ...*models.Branch) *fakeBranchRepo {
	f := &fakeBranchRepo{branches: map[string]*models.Branch{}}
	for _, b := range branches {
		f.branches[b.ID] = b
	}
	return f
}

func (f *fakeBranchRepo) Create(_ context.Context, branch *models.Branch) error {
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeBranchRepo) GetByID(_ context.Context, id string) (*models.Branch, error) {
	return f.branches[id], nil
}

func (f *fakeBranchRepo) GetAll(_ context.Context, _, _ int) ([]models.Branch, int, error) {
	var out []models.Branch
	for _, b := range f.branches {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeBranchRepo) Update(_ context.Context, branch *models.Branch) error {
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeBranchRepo) Hide(_ context.Context, id string) error {
	if b, ok := f.branches[id]; ok {
		b.Lifecycle = models.LifecycleHidden
	}
	return nil
}

func (f *fakeBranchRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.branches[id]
	return ok, nil
}

type fakeAssignmentRepo struct {
	assignments map[string]*models.Assignment
}

func newFakeAssignmentRepo(assignments ...*models.Assignment) *fakeAssignmentRepo {
	f := &fakeAssignmentRepo{assignments: map[string]*models.Assignment{}}
	for _, a := range assignments {
		f.assignments[a.ID] = a
	}
	return f
}

func (f *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	return f.assignments[id], nil
}

func (f *fakeAssignmentRepo) GetAll(_ context.Context, _, _ int) ([]models.AssignmentWithStats, int, error) {
	var out []models.AssignmentWithStats
	for _, a := range f.assignments {
		out = append(out, models.AssignmentWithStats{Assignment: *a})
	}
	return out, len(out), nil
}

func (f *fakeAssignmentRepo) GetByClassIDs(_ context.Context, classIDs []string, _, _ int) ([]models.AssignmentWithStats, int, error) {
	allowed := map[string]bool{}
	for _, id := range classIDs {
		allowed[id] = true
	}
	var out []models.AssignmentWithStats
	for _, a := range f.assignments {
		if a.ClassID != nil && allowed[*a.ClassID] {
			out = append(out, models.AssignmentWithStats{Assignment: *a})
		}
	}
	return out, len(out), nil
}

func (f *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) Hide(_ context.Context, id string) error {
	if a, ok := f.assignments[id]; ok {
		a.Lifecycle = models.LifecycleHidden
	}
	return nil
}

func (f *fakeAssignmentRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.assignments[id]
	return ok, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*models.Submission
	order       []string
	comments    map[string][]models.Comment
	deleteErr   error
}

func newFakeSubmissionRepo(submissions ...*models.Submission) *fakeSubmissionRepo {
	f := &fakeSubmissionRepo{
		submissions: map[string]*models.Submission{},
		comments:    map[string][]models.Comment{},
	}
	for _, s := range submissions {
		f.submissions[s.ID] = s
		f.order = append(f.order, s.ID)
	}
	return f
}

func (f *fakeSubmissionRepo) addComment(submissionID string, comment models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[submissionID] = append(f.comments[submissionID], comment)
}

func (f *fakeSubmissionRepo) commentCount(submissionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments[submissionID])
}

func paginateDetails(items []models.SubmissionWithDetails, limit, offset int) []models.SubmissionWithDetails {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[submission.ID] = submission
	f.order = append(f.order, submission.ID)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.submissions[id]; ok {
		dup := *s
		return &dup, nil
	}
	return nil, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentID(_ context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmissionWithDetails
	for _, id := range f.order {
		s := f.submissions[id]
		if s != nil && s.AssignmentID == assignmentID {
			out = append(out, models.SubmissionWithDetails{Submission: *s})
		}
	}
	return paginateDetails(out, limit, offset), len(out), nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmissionWithDetails
	for _, id := range f.order {
		s := f.submissions[id]
		if s != nil && s.AssignmentID == assignmentID && s.StudentID == studentID {
			out = append(out, models.SubmissionWithDetails{Submission: *s})
		}
	}
	return paginateDetails(out, limit, offset), len(out), nil
}

func (f *fakeSubmissionRepo) GetByStudentID(_ context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmissionWithDetails
	for _, id := range f.order {
		s := f.submissions[id]
		if s != nil && s.StudentID == studentID {
			out = append(out, models.SubmissionWithDetails{Submission: *s})
		}
	}
	return paginateDetails(out, limit, offset), len(out), nil
}

func (f *fakeSubmissionRepo) GetUploadedIDsByAssignment(_ context.Context, assignmentID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, id := range f.order {
		s := f.submissions[id]
		if s != nil && s.AssignmentID == assignmentID && s.Status == models.SubmissionStatusUploaded {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeSubmissionRepo) Claim(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok || s.Status != models.SubmissionStatusUploaded {
		return false, nil
	}
	s.Status = models.SubmissionStatusProcessing
	return true, nil
}

func (f *fakeSubmissionRepo) ForceClaim(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = models.SubmissionStatusProcessing
	s.Diagnostic = nil
	return nil
}

func (f *fakeSubmissionRepo) MarkReviewed(_ context.Context, id, ocrText, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	s.Status = models.SubmissionStatusAIReviewed
	s.OCRText = &ocrText
	s.AIFeedback = &feedback
	s.Diagnostic = nil
	return nil
}

func (f *fakeSubmissionRepo) MarkFailed(_ context.Context, id, diagnostic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	s.Status = models.SubmissionStatusFailed
	s.OCRText = nil
	s.AIFeedback = nil
	s.Diagnostic = &diagnostic
	return nil
}

func (f *fakeSubmissionRepo) ReleaseToUploaded(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.submissions[id]; ok {
		s.Status = models.SubmissionStatusUploaded
	}
	return nil
}

func (f *fakeSubmissionRepo) UpdateTeacherReview(_ context.Context, id string, teacherFeedback *string, status *models.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	if teacherFeedback != nil {
		s.TeacherFeedback = teacherFeedback
	}
	if status != nil {
		s.Status = *status
	}
	return nil
}

// DeleteWithComments mirrors the transactional contract: on an injected
// failure neither the submission nor its comments are removed.
func (f *fakeSubmissionRepo) DeleteWithComments(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.submissions, id)
	delete(f.comments, id)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.SubmissionEvent
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.SubmissionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) GetBySubmissionID(_ context.Context, submissionID string) ([]models.SubmissionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmissionEvent
	for _, e := range f.events {
		if e.SubmissionID == submissionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeImageStore struct {
	mu     sync.Mutex
	images map[string][]byte
	n      int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{images: map[string][]byte{}}
}

func (f *fakeImageStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	url := fmt.Sprintf("mem://images/%d", f.n)
	f.images[url] = data
	return url, nil
}

func (f *fakeImageStore) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.images[url]
	if !ok {
		return nil, fmt.Errorf("image %s not found", url)
	}
	return data, nil
}

func (f *fakeImageStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, url)
	return nil
}

type fakeAIClient struct {
	extract  func(image []byte) (*integration.ExtractionResult, error)
	feedback func(text, englishLevel, ageGroup string) (string, error)
}

func (f *fakeAIClient) ExtractText(_ context.Context, image []byte) (*integration.ExtractionResult, error) {
	return f.extract(image)
}

func (f *fakeAIClient) GenerateFeedback(_ context.Context, text, englishLevel, ageGroup string) (string, error) {
	return f.feedback(text, englishLevel, ageGroup)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.SubmissionLifecycleEvent
}

func (f *fakePublisher) PublishSubmissionEvent(_ context.Context, event *models.SubmissionLifecycleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) byType(eventType string) []models.SubmissionLifecycleEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmissionLifecycleEvent
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
