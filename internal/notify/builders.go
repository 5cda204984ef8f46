package notify

import (
	"github.com/connectly/backend/internal/models"
	"gorm.io/gorm"
)

// ConnectionRequested notifies the recipient of a pending request
func (s *Service) ConnectionRequested(tx *gorm.DB, req *models.ConnectionRequest, requester *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  req.RecipientID,
		ActorID: req.RequesterID,
		Type:    models.NotifConnectionRequest,
		Title:   "New connection request",
		Message: requester.FullName() + " wants to connect with you",
	})
}

// ConnectionAccepted notifies the original requester
func (s *Service) ConnectionAccepted(tx *gorm.DB, requesterID string, recipient *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  requesterID,
		ActorID: recipient.ID,
		Type:    models.NotifConnectionAccepted,
		Title:   "Connection accepted",
		Message: recipient.FullName() + " accepted your connection request",
	})
}

// PostLiked notifies the post author
func (s *Service) PostLiked(tx *gorm.DB, post *models.Post, actor *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  post.AuthorID,
		ActorID: actor.ID,
		Type:    models.NotifPostLike,
		Title:   "New like",
		Message: actor.FullName() + " liked your post",
		PostID:  &post.ID,
	})
}

// PostCommented notifies the post author
func (s *Service) PostCommented(tx *gorm.DB, post *models.Post, actor *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  post.AuthorID,
		ActorID: actor.ID,
		Type:    models.NotifPostComment,
		Title:   "New comment",
		Message: actor.FullName() + " commented on your post",
		PostID:  &post.ID,
	})
}

// PostShared notifies the original post's author
func (s *Service) PostShared(tx *gorm.DB, post *models.Post, actor *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  post.AuthorID,
		ActorID: actor.ID,
		Type:    models.NotifPostShare,
		Title:   "Post shared",
		Message: actor.FullName() + " shared your post",
		PostID:  &post.ID,
	})
}

// Mentioned notifies a user tagged in post content
func (s *Service) Mentioned(tx *gorm.DB, post *models.Post, actor *models.User, mentionedID string) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  mentionedID,
		ActorID: actor.ID,
		Type:    models.NotifMention,
		Title:   "You were mentioned",
		Message: actor.FullName() + " mentioned you in a post",
		PostID:  &post.ID,
	})
}

// JobApplied notifies the job poster of a new application
func (s *Service) JobApplied(tx *gorm.DB, job *models.Job, applicant *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  job.PosterID,
		ActorID: applicant.ID,
		Type:    models.NotifJobApplication,
		Title:   "New application",
		Message: applicant.FullName() + " applied to " + job.Title,
		JobID:   &job.ID,
	})
}

// ProfileViewed notifies a user that their profile was viewed
func (s *Service) ProfileViewed(tx *gorm.DB, viewedID string, viewer *models.User) (*models.Notification, error) {
	return s.createInTx(tx, &models.Notification{
		UserID:  viewedID,
		ActorID: viewer.ID,
		Type:    models.NotifProfileView,
		Title:   "Profile view",
		Message: viewer.FullName() + " viewed your profile",
	})
}
