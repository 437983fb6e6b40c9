package discussion

import (
	"errors"

	"gorm.io/gorm"

	"civiclearn/internal/auth"
	"civiclearn/internal/models"
	"civiclearn/pkg/logger"
)

// ErrParentMismatch is returned when a reply's parent comment belongs to a
// different thread.
var ErrParentMismatch = errors.New("parent comment belongs to a different thread")

// Notifier pushes thread events to live subscribers. The websocket hub
// satisfies it; a nil Notifier disables the live feed.
type Notifier interface {
	Broadcast(threadID uint, messageType string, data interface{})
}

type Service struct {
	repo     *Repository
	notifier Notifier
	log      *logger.Logger
}

func NewService(repo *Repository, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

type ThreadInput struct {
	Title    string
	Content  string
	ModuleID *uint
	Status   string
	IsPinned bool
}

func (s *Service) CreateThread(p auth.Principal, input ThreadInput) (*models.DiscussionThread, error) {
	thread := &models.DiscussionThread{
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: p.UserID,
		ModuleID: input.ModuleID,
		Status:   models.ThreadStatusOpen,
	}
	if err := s.repo.CreateThread(thread); err != nil {
		return nil, err
	}
	s.log.Info("thread created", "thread_id", thread.ID, "user_id", p.UserID)
	return thread, nil
}

// UpdateThread lets the author edit title and content; status and pinning
// are moderator operations.
func (s *Service) UpdateThread(p auth.Principal, threadID uint, input ThreadInput) (*models.DiscussionThread, error) {
	thread, err := s.repo.GetThread(threadID)
	if err != nil {
		return nil, err
	}

	isAuthor := thread.AuthorID == p.UserID
	isModerator := auth.Can(p.Role, auth.ActionModerateThreads)
	if !isAuthor && !isModerator {
		return nil, auth.ErrForbidden
	}

	if isAuthor {
		thread.Title = input.Title
		thread.Content = input.Content
	}
	if isModerator {
		if input.Status != "" {
			thread.Status = input.Status
		}
		thread.IsPinned = input.IsPinned
	}

	if err := s.repo.UpdateThread(thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *Service) ListThreads() ([]ThreadSummary, error) {
	return s.repo.ListThreads()
}

// ThreadDetail is a thread with its comment tree.
type ThreadDetail struct {
	Thread   *models.DiscussionThread `json:"thread"`
	Comments []models.Comment         `json:"comments"`
}

// GetThread serves the detail view; every fetch counts as a view.
func (s *Service) GetThread(threadID uint) (*ThreadDetail, error) {
	thread, err := s.repo.GetThread(threadID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(thread.ID); err != nil {
		return nil, err
	}
	thread.ViewsCount++

	comments, err := s.repo.ListTopLevelComments(thread.ID)
	if err != nil {
		return nil, err
	}
	return &ThreadDetail{Thread: thread, Comments: comments}, nil
}

func (s *Service) AddComment(p auth.Principal, threadID uint, content string, parentID *uint) (*models.Comment, error) {
	thread, err := s.repo.GetThread(threadID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.repo.GetComment(*parentID)
		if err != nil {
			return nil, err
		}
		if parent.ThreadID != thread.ID {
			return nil, ErrParentMismatch
		}
	}

	comment := &models.Comment{
		ThreadID: thread.ID,
		AuthorID: p.UserID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.repo.CreateComment(comment); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Broadcast(thread.ID, "comment", comment)
	}
	return comment, nil
}

func (s *Service) UpdateComment(p auth.Principal, commentID uint, content string) (*models.Comment, error) {
	comment, err := s.repo.GetComment(commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != p.UserID {
		return nil, auth.ErrForbidden
	}

	comment.Content = content
	comment.IsEdited = true
	if err := s.repo.UpdateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// LikeResult reports the new state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount uint `json:"likes_count"`
}

// ToggleLike flips the (user, comment) like relation inside a transaction.
// The unique index on the relation makes a concurrent double-toggle settle
// on one of the two serial outcomes instead of corrupting the counter.
func (s *Service) ToggleLike(p auth.Principal, commentID uint) (*LikeResult, error) {
	var liked bool

	err := s.repo.Transaction(func(tx *Repository) error {
		if _, err := tx.GetComment(commentID); err != nil {
			return err
		}

		existing, err := tx.GetLike(commentID, p.UserID)
		switch {
		case err == nil:
			if err := tx.DeleteLike(existing.ID); err != nil {
				return err
			}
			if err := tx.DecrementLikes(commentID); err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.CreateLike(&models.CommentLike{CommentID: commentID, UserID: p.UserID}); err != nil {
				return err
			}
			if err := tx.IncrementLikes(commentID); err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.GetComment(commentID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: comment.LikesCount}, nil
}
