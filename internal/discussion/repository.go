package discussion

import (
	"gorm.io/gorm"

	"civiclearn/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(fn func(*Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// ThreadSummary is a thread row plus its comment count, for listings.
type ThreadSummary struct {
	models.DiscussionThread
	CommentCount int64 `json:"comment_count"`
}

func (r *Repository) CreateThread(thread *models.DiscussionThread) error {
	return r.db.Create(thread).Error
}

func (r *Repository) UpdateThread(thread *models.DiscussionThread) error {
	return r.db.Save(thread).Error
}

func (r *Repository) GetThread(threadID uint) (*models.DiscussionThread, error) {
	var thread models.DiscussionThread
	err := r.db.First(&thread, threadID).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *Repository) ListThreads() ([]ThreadSummary, error) {
	var summaries []ThreadSummary
	err := r.db.Model(&models.DiscussionThread{}).
		Select("discussion_threads.*, COUNT(comments.id) AS comment_count").
		Joins("LEFT JOIN comments ON comments.thread_id = discussion_threads.id AND comments.deleted_at IS NULL").
		Group("discussion_threads.id").
		Order("discussion_threads.is_pinned DESC, discussion_threads.updated_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// IncrementViews bumps the view counter with a single atomic column
// expression, so concurrent detail fetches do not lose updates.
func (r *Repository) IncrementViews(threadID uint) error {
	return r.db.Model(&models.DiscussionThread{}).
		Where("id = ?", threadID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// ListTopLevelComments returns a thread's root comments, newest first,
// with one level of replies in chronological order.
func (r *Repository) ListTopLevelComments(threadID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("thread_id = ? AND parent_id IS NULL", threadID).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *Repository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *Repository) GetComment(commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.First(&comment, commentID).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *Repository) UpdateComment(comment *models.Comment) error {
	return r.db.Save(comment).Error
}

func (r *Repository) GetLike(commentID, userID uint) (*models.CommentLike, error) {
	var like models.CommentLike
	err := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *Repository) CreateLike(like *models.CommentLike) error {
	return r.db.Create(like).Error
}

func (r *Repository) DeleteLike(likeID uint) error {
	return r.db.Delete(&models.CommentLike{}, likeID).Error
}

func (r *Repository) IncrementLikes(commentID uint) error {
	return r.db.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
}

// DecrementLikes floors at zero; the counter is denormalized and must not
// go negative.
func (r *Repository) DecrementLikes(commentID uint) error {
	return r.db.Model(&models.Comment{}).
		Where("id = ? AND likes_count > 0", commentID).
		UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
}
